package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rentlover/platform/internal/domain"
	"github.com/rentlover/platform/internal/infra"
)

type earningRepo struct{}

// NewEarningRepository returns a pgx-backed EarningRepository.
func NewEarningRepository() EarningRepository {
	return &earningRepo{}
}

// Insert relies on the (transaction_id, entry_type) unique key: a replayed
// credit or reversal is dropped by the database, not by the caller.
func (r *earningRepo) Insert(ctx context.Context, db DBTX, e *domain.EarningEntry) (bool, error) {
	err := db.QueryRow(ctx, `
		INSERT INTO talent_earnings (transaction_id, talent_id, entry_type, amount)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (transaction_id, entry_type) DO NOTHING
		RETURNING id, created_at`,
		e.TransactionID, e.TalentID, string(e.EntryType), infra.RupiahToNumeric(e.Amount),
	).Scan(&e.ID, &e.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("insert talent earning: %w", err)
	}
	return true, nil
}

func (r *earningRepo) ListByTransaction(ctx context.Context, db DBTX, transactionID uuid.UUID) ([]domain.EarningEntry, error) {
	rows, err := db.Query(ctx, `
		SELECT id, transaction_id, talent_id, entry_type, amount, created_at
		FROM talent_earnings
		WHERE transaction_id = $1
		ORDER BY id ASC`, transactionID)
	if err != nil {
		return nil, fmt.Errorf("query talent earnings: %w", err)
	}
	defer rows.Close()

	var out []domain.EarningEntry
	for rows.Next() {
		var (
			e         domain.EarningEntry
			entryType string
			amount    pgtype.Numeric
		)
		if err := rows.Scan(&e.ID, &e.TransactionID, &e.TalentID, &entryType, &amount, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan talent earning: %w", err)
		}
		e.EntryType = domain.EarningEntryType(entryType)
		if e.Amount, err = infra.NumericToRupiah(amount); err != nil {
			return nil, fmt.Errorf("talent earning amount: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
