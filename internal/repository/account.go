package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rentlover/platform/internal/domain"
)

// PgAccountRepository implements AccountRepository using pgx.
type PgAccountRepository struct{}

// NewPgAccountRepository creates a new PgAccountRepository.
func NewPgAccountRepository() *PgAccountRepository {
	return &PgAccountRepository{}
}

const accountColumns = `id, email, created_at, email_confirmed_at, metadata`

func (r *PgAccountRepository) List(ctx context.Context, db DBTX) ([]domain.AccountRecord, error) {
	rows, err := db.Query(ctx, `SELECT `+accountColumns+` FROM accounts ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("query accounts: %w", err)
	}
	defer rows.Close()

	var out []domain.AccountRecord
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

// FindByID returns an account by ID, or nil if not found.
func (r *PgAccountRepository) FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.AccountRecord, error) {
	row := db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
	a, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return a, err
}

func (r *PgAccountRepository) Create(ctx context.Context, db DBTX, a *domain.AccountRecord) error {
	meta, err := json.Marshal(a.Metadata)
	if err != nil || a.Metadata == nil {
		meta = []byte(`{}`)
	}
	createdAt := a.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err = db.Exec(ctx,
		`INSERT INTO accounts (id, email, created_at, email_confirmed_at, metadata) VALUES ($1, $2, $3, $4, $5)`,
		a.ID, a.Email, createdAt, a.EmailConfirmedAt, meta)
	if err != nil {
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

func scanAccount(row pgx.Row) (*domain.AccountRecord, error) {
	var a domain.AccountRecord
	var meta []byte
	if err := row.Scan(&a.ID, &a.Email, &a.CreatedAt, &a.EmailConfirmedAt, &meta); err != nil {
		return nil, err
	}
	// Metadata is a loose bag; a malformed one is treated as empty.
	if len(meta) > 0 {
		_ = json.Unmarshal(meta, &a.Metadata)
	}
	return &a, nil
}
