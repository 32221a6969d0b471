// Package directory serves the merged user view. It reads both identity
// sources, reconciles them in full on every rebuild, and caches the result
// keyed by the sources' watermark.
package directory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/rentlover/platform/internal/domain"
	"github.com/rentlover/platform/internal/identity"
	"github.com/rentlover/platform/internal/projection"
)

// Source is read access to the two raw identity sources.
type Source interface {
	ListAccounts(ctx context.Context) ([]domain.AccountRecord, error)
	ListProfiles(ctx context.Context) ([]domain.ProfileRecord, error)
	FindAccount(ctx context.Context, id uuid.UUID) (*domain.AccountRecord, error)
	FindProfile(ctx context.Context, id uuid.UUID) (*domain.ProfileRecord, error)
	// Watermark changes whenever either source changes.
	Watermark(ctx context.Context) (string, error)
}

// Snapshot is one reconciled view of every identity.
type Snapshot struct {
	Users        []domain.User `json:"users"`
	Degraded     bool          `json:"degraded"`
	SourceErrors []string      `json:"source_errors,omitempty"`
	Watermark    string        `json:"watermark,omitempty"`
}

// Directory builds and caches snapshots.
type Directory struct {
	source Source
	store  projection.Store
	ttl    time.Duration
	logger *slog.Logger
}

// New creates a Directory. A nil store disables caching.
func New(source Source, store projection.Store, ttl time.Duration, logger *slog.Logger) *Directory {
	return &Directory{source: source, store: store, ttl: ttl, logger: logger}
}

// Snapshot returns the merged view. When one source is unreachable the view
// is built from the other and marked degraded; degraded views are never
// cached. Only a failure of both sources is an error.
func (d *Directory) Snapshot(ctx context.Context) (*Snapshot, error) {
	watermark, wmErr := d.source.Watermark(ctx)
	if wmErr != nil {
		d.logger.Warn("directory watermark unavailable, bypassing cache", "error", wmErr)
	}

	if wmErr == nil && d.store != nil {
		cached, err := projection.GetDirectory(ctx, d.store, watermark)
		if err == nil {
			return &Snapshot{Users: cached.Users, Watermark: watermark}, nil
		}
		if !errors.Is(err, projection.ErrMiss) {
			d.logger.Warn("directory cache read failed", "error", err)
		}
	}

	snap, err := d.build(ctx)
	if err != nil {
		return nil, err
	}

	if wmErr == nil {
		snap.Watermark = watermark
		if !snap.Degraded && d.store != nil {
			p := projection.DirectoryProjection{Watermark: watermark, Users: snap.Users}
			if err := projection.PutDirectory(ctx, d.store, p, d.ttl); err != nil {
				d.logger.Warn("directory cache write failed", "error", err)
			}
		}
	}
	return snap, nil
}

func (d *Directory) build(ctx context.Context) (*Snapshot, error) {
	accounts, accErr := d.source.ListAccounts(ctx)
	profiles, profErr := d.source.ListProfiles(ctx)

	if accErr != nil && profErr != nil {
		return nil, domain.ErrPartialSourceFailure("both identity sources are unavailable",
			errors.Join(fmt.Errorf("accounts: %w", accErr), fmt.Errorf("profiles: %w", profErr)))
	}

	snap := &Snapshot{}
	if accErr != nil {
		snap.Degraded = true
		snap.SourceErrors = append(snap.SourceErrors, "accounts: "+accErr.Error())
		d.logger.Warn("account source unavailable, serving degraded directory", "error", accErr)
	}
	if profErr != nil {
		snap.Degraded = true
		snap.SourceErrors = append(snap.SourceErrors, "profiles: "+profErr.Error())
		d.logger.Warn("profile source unavailable, serving degraded directory", "error", profErr)
	}

	snap.Users = identity.Reconcile(accounts, profiles)
	return snap, nil
}

// FindUser reconciles a single identity straight from the sources.
func (d *Directory) FindUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	account, accErr := d.source.FindAccount(ctx, id)
	profile, profErr := d.source.FindProfile(ctx, id)

	if accErr != nil && profErr != nil {
		return nil, domain.ErrPartialSourceFailure("both identity sources are unavailable",
			errors.Join(accErr, profErr))
	}
	if accErr != nil {
		d.logger.Warn("account source unavailable for lookup", "user_id", id, "error", accErr)
	}
	if profErr != nil {
		d.logger.Warn("profile source unavailable for lookup", "user_id", id, "error", profErr)
	}

	u := identity.ReconcileOne(account, profile)
	if u == nil {
		return nil, domain.ErrNotFound("user", id.String())
	}
	return u, nil
}

// Invalidate drops the cached snapshot.
func (d *Directory) Invalidate(ctx context.Context) error {
	if d.store == nil {
		return nil
	}
	return projection.InvalidateDirectory(ctx, d.store)
}
