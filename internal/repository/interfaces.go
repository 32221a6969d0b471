package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rentlover/platform/internal/domain"
)

// DBTX abstracts pgx.Tx and pgxpool.Pool so repositories work with both.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// AccountRepository provides access to accounts.
type AccountRepository interface {
	// List returns every account.
	List(ctx context.Context, db DBTX) ([]domain.AccountRecord, error)

	// FindByID returns an account, or nil if absent.
	FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.AccountRecord, error)

	// Create inserts an account. Signup normally does this outside the platform.
	Create(ctx context.Context, db DBTX, account *domain.AccountRecord) error
}

// ProfileRepository provides access to profiles.
type ProfileRepository interface {
	// List returns every profile.
	List(ctx context.Context, db DBTX) ([]domain.ProfileRecord, error)

	// FindByID returns a profile, or nil if absent.
	FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.ProfileRecord, error)

	// InsertIfAbsent writes a profile unless one already exists for its id.
	// It reports whether a row was written.
	InsertIfAbsent(ctx context.Context, db DBTX, profile *domain.ProfileRecord) (bool, error)

	// UpdateVerification applies upd only while the stored status is still
	// pending. It reports whether a row was updated.
	UpdateVerification(ctx context.Context, db DBTX, upd domain.VerificationUpdate) (bool, error)
}

// BookingRepository provides access to bookings and booking_items.
type BookingRepository interface {
	// Insert writes the booking and its line items.
	Insert(ctx context.Context, db DBTX, booking *domain.Booking) error

	// FindByID returns a booking with its items, or nil if absent.
	FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.Booking, error)
}

// TransactionRepository provides access to transactions and their status history.
type TransactionRepository interface {
	// Insert writes a new transaction.
	Insert(ctx context.Context, db DBTX, tx *domain.TransactionRecord) error

	// FindByID returns a transaction, or nil if absent.
	FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.TransactionRecord, error)

	// FindByBookingID returns the transaction of a booking, or nil if absent.
	FindByBookingID(ctx context.Context, db DBTX, bookingID uuid.UUID) (*domain.TransactionRecord, error)

	// LockForUpdate acquires a row-level lock (SELECT FOR UPDATE) and returns the transaction.
	LockForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.TransactionRecord, error)

	// UpdateStatus writes the new status, captured amount and gateway reference.
	UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, status domain.PaymentStatus, captured int64, reference string) (*domain.TransactionRecord, error)

	// InsertStatusChange appends a status history row.
	InsertStatusChange(ctx context.Context, db DBTX, change domain.StatusChange) error

	// ListStatusChanges returns the history of a transaction, oldest first.
	ListStatusChanges(ctx context.Context, db DBTX, id uuid.UUID) ([]domain.StatusChange, error)
}

// EarningRepository provides access to talent_earnings.
type EarningRepository interface {
	// Insert appends an entry. A second entry of the same type for the same
	// transaction is ignored and reported as not inserted.
	Insert(ctx context.Context, db DBTX, entry *domain.EarningEntry) (bool, error)

	// ListByTransaction returns the entries of a transaction.
	ListByTransaction(ctx context.Context, db DBTX, transactionID uuid.UUID) ([]domain.EarningEntry, error)
}

// OutboxRepository provides access to the event_outbox table.
type OutboxRepository interface {
	// Insert writes an outbox event (within the same transaction as the state change).
	Insert(ctx context.Context, db DBTX, draft domain.OutboxDraft) error

	// FetchUnpublished returns unpublished events for the outbox poller.
	FetchUnpublished(ctx context.Context, db DBTX, limit int) ([]domain.OutboxRecord, error)

	// MarkPublished stamps events as published.
	MarkPublished(ctx context.Context, db DBTX, ids []int64) error
}
