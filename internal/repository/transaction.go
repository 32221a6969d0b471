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

type transactionRepo struct{}

// NewTransactionRepository returns a pgx-backed TransactionRepository.
func NewTransactionRepository() TransactionRepository {
	return &transactionRepo{}
}

const transactionColumns = `id, booking_id, customer_id, talent_id, amount, talent_earning, platform_fee,
	payment_method, gateway_reference, captured_amount, status::text, created_at, updated_at`

func (r *transactionRepo) Insert(ctx context.Context, db DBTX, tx *domain.TransactionRecord) error {
	_, err := db.Exec(ctx, `
		INSERT INTO transactions
		  (id, booking_id, customer_id, talent_id, amount, talent_earning, platform_fee,
		   payment_method, gateway_reference, captured_amount, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11::text::payment_status, $12, $12)`,
		tx.ID, tx.BookingID, tx.CustomerID, tx.TalentID,
		infra.RupiahToNumeric(tx.Amount),
		infra.RupiahToNumeric(tx.TalentEarning),
		infra.RupiahToNumeric(tx.PlatformFee),
		tx.PaymentMethod, tx.GatewayReference,
		infra.RupiahToNumeric(tx.CapturedAmount),
		string(tx.Status), tx.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

func (r *transactionRepo) FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.TransactionRecord, error) {
	row := db.QueryRow(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = $1`, id)
	return scanTransaction(row)
}

func (r *transactionRepo) FindByBookingID(ctx context.Context, db DBTX, bookingID uuid.UUID) (*domain.TransactionRecord, error) {
	row := db.QueryRow(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE booking_id = $1`, bookingID)
	return scanTransaction(row)
}

func (r *transactionRepo) LockForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.TransactionRecord, error) {
	row := tx.QueryRow(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = $1 FOR UPDATE`, id)
	return scanTransaction(row)
}

func (r *transactionRepo) UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, status domain.PaymentStatus, captured int64, reference string) (*domain.TransactionRecord, error) {
	row := tx.QueryRow(ctx, `
		UPDATE transactions
		SET status = $2::text::payment_status,
		    captured_amount = $3,
		    gateway_reference = CASE WHEN $4 = '' THEN gateway_reference ELSE $4 END
		WHERE id = $1
		RETURNING `+transactionColumns,
		id, string(status), infra.RupiahToNumeric(captured), reference)
	t, err := scanTransaction(row)
	if err != nil {
		return nil, fmt.Errorf("update transaction status: %w", err)
	}
	if t == nil {
		return nil, domain.ErrNotFound("transaction", id.String())
	}
	return t, nil
}

func (r *transactionRepo) InsertStatusChange(ctx context.Context, db DBTX, c domain.StatusChange) error {
	_, err := db.Exec(ctx, `
		INSERT INTO transaction_status_history (transaction_id, from_status, to_status, source, reference, created_at)
		VALUES ($1, $2::text::payment_status, $3::text::payment_status, $4, $5, $6)`,
		c.TransactionID, string(c.From), string(c.To), string(c.Source), c.Reference, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert status change: %w", err)
	}
	return nil
}

func (r *transactionRepo) ListStatusChanges(ctx context.Context, db DBTX, id uuid.UUID) ([]domain.StatusChange, error) {
	rows, err := db.Query(ctx, `
		SELECT transaction_id, from_status::text, to_status::text, source, reference, created_at
		FROM transaction_status_history
		WHERE transaction_id = $1
		ORDER BY id ASC`, id)
	if err != nil {
		return nil, fmt.Errorf("query status history: %w", err)
	}
	defer rows.Close()

	var out []domain.StatusChange
	for rows.Next() {
		var (
			c             domain.StatusChange
			from, to, src string
		)
		if err := rows.Scan(&c.TransactionID, &from, &to, &src, &c.Reference, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan status change: %w", err)
		}
		c.From = domain.PaymentStatus(from)
		c.To = domain.PaymentStatus(to)
		c.Source = domain.TransitionSource(src)
		out = append(out, c)
	}
	return out, rows.Err()
}

// scanTransaction returns nil, nil when the row does not exist.
func scanTransaction(row pgx.Row) (*domain.TransactionRecord, error) {
	var (
		t                              domain.TransactionRecord
		amount, earning, fee, captured pgtype.Numeric
		status                         string
	)
	err := row.Scan(&t.ID, &t.BookingID, &t.CustomerID, &t.TalentID, &amount, &earning, &fee,
		&t.PaymentMethod, &t.GatewayReference, &captured, &status, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan transaction: %w", err)
	}

	if t.Amount, err = infra.NumericToRupiah(amount); err != nil {
		return nil, fmt.Errorf("transaction amount: %w", err)
	}
	if t.TalentEarning, err = infra.NumericToRupiah(earning); err != nil {
		return nil, fmt.Errorf("transaction talent_earning: %w", err)
	}
	if t.PlatformFee, err = infra.NumericToRupiah(fee); err != nil {
		return nil, fmt.Errorf("transaction platform_fee: %w", err)
	}
	if t.CapturedAmount, err = infra.NumericToRupiah(captured); err != nil {
		return nil, fmt.Errorf("transaction captured_amount: %w", err)
	}
	t.Status = domain.PaymentStatus(status)
	return &t, nil
}
