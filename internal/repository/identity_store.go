package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rentlover/platform/internal/domain"
)

// PgIdentityStore is the identity store adapter over the accounts and
// profiles tables. It serves the directory reads and the verification writes.
type PgIdentityStore struct {
	pool     *pgxpool.Pool
	accounts AccountRepository
	profiles ProfileRepository
	outbox   OutboxRepository
}

// NewPgIdentityStore creates an identity store.
func NewPgIdentityStore(pool *pgxpool.Pool, accounts AccountRepository, profiles ProfileRepository, outbox OutboxRepository) *PgIdentityStore {
	return &PgIdentityStore{pool: pool, accounts: accounts, profiles: profiles, outbox: outbox}
}

func (s *PgIdentityStore) ListAccounts(ctx context.Context) ([]domain.AccountRecord, error) {
	return s.accounts.List(ctx, s.pool)
}

func (s *PgIdentityStore) ListProfiles(ctx context.Context) ([]domain.ProfileRecord, error) {
	return s.profiles.List(ctx, s.pool)
}

func (s *PgIdentityStore) FindAccount(ctx context.Context, id uuid.UUID) (*domain.AccountRecord, error) {
	return s.accounts.FindByID(ctx, s.pool, id)
}

func (s *PgIdentityStore) FindProfile(ctx context.Context, id uuid.UUID) (*domain.ProfileRecord, error) {
	return s.profiles.FindByID(ctx, s.pool, id)
}

// Watermark summarizes both tables. Row counts catch deletes, the newest
// updated_at catches inserts and updates.
func (s *PgIdentityStore) Watermark(ctx context.Context) (string, error) {
	var (
		accountCount, profileCount int64
		accountMax, profileMax     time.Time
	)
	err := s.pool.QueryRow(ctx, `
		SELECT
		  (SELECT count(*) FROM accounts),
		  (SELECT coalesce(max(updated_at), 'epoch'::timestamptz) FROM accounts),
		  (SELECT count(*) FROM profiles),
		  (SELECT coalesce(max(updated_at), 'epoch'::timestamptz) FROM profiles)`,
	).Scan(&accountCount, &accountMax, &profileCount, &profileMax)
	if err != nil {
		return "", fmt.Errorf("identity watermark: %w", err)
	}
	return fmt.Sprintf("%d.%d.%d.%d", accountCount, accountMax.UnixMicro(), profileCount, profileMax.UnixMicro()), nil
}

// UpsertProfile materializes a profile together with its outbox event. It
// never overwrites an existing profile and reports whether one was written.
func (s *PgIdentityStore) UpsertProfile(ctx context.Context, profile domain.ProfileRecord, event domain.OutboxDraft) (bool, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	inserted, err := s.profiles.InsertIfAbsent(ctx, tx, &profile)
	if err != nil {
		return false, err
	}
	if !inserted {
		return false, nil
	}
	if err := s.outbox.Insert(ctx, tx, event); err != nil {
		return false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit profile: %w", err)
	}
	return true, nil
}

// UpdateVerification applies the conditional status write and its outbox
// event atomically. It returns false when the profile was no longer pending.
func (s *PgIdentityStore) UpdateVerification(ctx context.Context, upd domain.VerificationUpdate) (bool, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	applied, err := s.profiles.UpdateVerification(ctx, tx, upd)
	if err != nil {
		return false, err
	}
	if !applied {
		return false, nil
	}
	if err := s.outbox.Insert(ctx, tx, upd.Event); err != nil {
		return false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit verification: %w", err)
	}
	return true, nil
}
