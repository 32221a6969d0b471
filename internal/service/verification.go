package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rentlover/platform/internal/domain"
	"github.com/rentlover/platform/internal/identity"
)

// IdentityStore is the write side of the identity sources. Both writes are
// atomic with their outbox event.
type IdentityStore interface {
	UpsertProfile(ctx context.Context, profile domain.ProfileRecord, event domain.OutboxDraft) (bool, error)
	UpdateVerification(ctx context.Context, upd domain.VerificationUpdate) (bool, error)
}

// UserDirectory resolves merged users and drops cached snapshots.
type UserDirectory interface {
	FindUser(ctx context.Context, id uuid.UUID) (*domain.User, error)
	Invalidate(ctx context.Context) error
}

// Notifier tells a user about a verification decision.
type Notifier interface {
	NotifyApproval(ctx context.Context, notice domain.ApprovalNotice) error
}

const notifyTimeout = 10 * time.Second

// VerificationService drives the pending -> verified|rejected transitions.
type VerificationService struct {
	store    IdentityStore
	users    UserDirectory
	notifier Notifier
	logger   *slog.Logger
	now      func() time.Time
}

// NewVerificationService creates a VerificationService.
func NewVerificationService(store IdentityStore, users UserDirectory, notifier Notifier, logger *slog.Logger) *VerificationService {
	return &VerificationService{
		store:    store,
		users:    users,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// Approve verifies a pending identity. An auth-only identity gets its
// profile materialized first, using app when supplied.
func (s *VerificationService) Approve(ctx context.Context, id uuid.UUID, reviewer *uuid.UUID, app *domain.TalentApplication) (*domain.User, error) {
	return s.decide(ctx, id, domain.VerificationVerified, reviewer, "", app)
}

// Reject rejects a pending identity with a reason.
func (s *VerificationService) Reject(ctx context.Context, id uuid.UUID, reviewer *uuid.UUID, reason string) (*domain.User, error) {
	reason = strings.TrimSpace(reason)
	if err := domain.ValidateRejectionReason(reason); err != nil {
		return nil, domain.ErrValidation(err.Error())
	}
	return s.decide(ctx, id, domain.VerificationRejected, reviewer, reason, nil)
}

func (s *VerificationService) decide(
	ctx context.Context,
	id uuid.UUID,
	to domain.VerificationStatus,
	reviewer *uuid.UUID,
	reason string,
	app *domain.TalentApplication,
) (*domain.User, error) {
	user, err := s.users.FindUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.VerificationStatus != domain.VerificationPending {
		return nil, domain.ErrInvalidTransition(string(user.VerificationStatus), string(to))
	}

	now := s.now().UTC()
	if user.AuthOnly {
		profile := identity.MaterializeProfile(*user, app, now)
		created, err := s.store.UpsertProfile(ctx, profile, domain.NewProfileMaterializedEvent(profile))
		if err != nil {
			return nil, domain.ErrInternal("materialize profile", err)
		}
		if created {
			s.logger.Info("profile materialized", "user_id", id, "user_type", profile.UserType)
		}
	}

	accountStatus := domain.AccountStatusActive
	if to == domain.VerificationRejected {
		accountStatus = domain.AccountStatusSuspended
	}
	applied, err := s.store.UpdateVerification(ctx, domain.VerificationUpdate{
		UserID:        id,
		To:            to,
		AccountStatus: accountStatus,
		Reason:        reason,
		ReviewedBy:    reviewer,
		ReviewedAt:    now,
		Event:         domain.NewVerificationDecidedEvent(id, to, reason, reviewer),
	})
	if err != nil {
		return nil, domain.ErrInternal("update verification", err)
	}
	if !applied {
		// Lost the race against another reviewer.
		from := "unknown"
		if current, err := s.users.FindUser(ctx, id); err == nil {
			from = string(current.VerificationStatus)
		}
		return nil, domain.ErrInvalidTransition(from, string(to))
	}

	if err := s.users.Invalidate(ctx); err != nil {
		s.logger.Warn("directory invalidate failed", "error", err)
	}
	s.logger.Info("verification decided", "user_id", id, "status", to, "reviewer", reviewer)

	updated, err := s.users.FindUser(ctx, id)
	if err != nil {
		s.logger.Warn("re-read after verification failed", "user_id", id, "error", err)
		updated = user
		updated.VerificationStatus = to
		updated.AuthOnly = false
		updated.HasProfile = true
	}

	s.notify(ctx, updated, to == domain.VerificationVerified, reason)
	return updated, nil
}

// notify runs after commit. Delivery failures are logged and never undo or
// fail the decision.
func (s *VerificationService) notify(ctx context.Context, u *domain.User, approved bool, reason string) {
	if s.notifier == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()

	notice := domain.ApprovalNotice{
		UserID:      u.ID,
		Email:       u.Email,
		Phone:       u.Phone,
		DisplayName: u.DisplayName,
		Approved:    approved,
		Reason:      reason,
	}
	if err := s.notifier.NotifyApproval(ctx, notice); err != nil {
		nerr := domain.ErrNotificationFailure(err)
		s.logger.Warn("approval notification failed", "user_id", u.ID, "code", nerr.Code, "error", nerr)
	}
}
