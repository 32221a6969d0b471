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

type bookingRepo struct{}

// NewBookingRepository returns a pgx-backed BookingRepository.
func NewBookingRepository() BookingRepository {
	return &bookingRepo{}
}

// Insert writes the booking row and one booking_items row per line item.
// Run it inside a transaction.
func (r *bookingRepo) Insert(ctx context.Context, db DBTX, b *domain.Booking) error {
	_, err := db.Exec(ctx, `
		INSERT INTO bookings
		  (id, customer_id, talent_id, subtotal, app_fee, platform_commission, talent_earning, total,
		   talent_level, commission_rate_bps, payment_method, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9::text::talent_level, $10, $11, $12)`,
		b.ID, b.CustomerID, b.TalentID,
		infra.RupiahToNumeric(b.Priced.Subtotal),
		infra.RupiahToNumeric(b.Priced.AppFee),
		infra.RupiahToNumeric(b.Priced.PlatformCommission),
		infra.RupiahToNumeric(b.Priced.TalentEarning),
		infra.RupiahToNumeric(b.Priced.Total),
		string(b.Priced.TalentLevel), b.Priced.CommissionRateBps, b.PaymentMethod, b.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert booking: %w", err)
	}

	for i, item := range b.Items {
		_, err := db.Exec(ctx, `
			INSERT INTO booking_items (booking_id, position, service_type, duration_units, unit_base_price)
			VALUES ($1, $2, $3::text::service_type, $4, $5)`,
			b.ID, i, string(item.ServiceType), item.DurationUnits, infra.RupiahToNumeric(item.UnitBasePrice))
		if err != nil {
			return fmt.Errorf("insert booking item %d: %w", i, err)
		}
	}
	return nil
}

func (r *bookingRepo) FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.Booking, error) {
	var (
		b                                            domain.Booking
		subtotal, appFee, commission, earning, total pgtype.Numeric
		level                                        string
	)
	err := db.QueryRow(ctx, `
		SELECT id, customer_id, talent_id, subtotal, app_fee, platform_commission, talent_earning, total,
		       talent_level::text, commission_rate_bps, payment_method, created_at
		FROM bookings WHERE id = $1`, id).Scan(
		&b.ID, &b.CustomerID, &b.TalentID, &subtotal, &appFee, &commission, &earning, &total,
		&level, &b.Priced.CommissionRateBps, &b.PaymentMethod, &b.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find booking: %w", err)
	}
	b.Priced.TalentLevel = domain.TalentLevel(level)

	for _, f := range []struct {
		dst *int64
		src pgtype.Numeric
	}{
		{&b.Priced.Subtotal, subtotal},
		{&b.Priced.AppFee, appFee},
		{&b.Priced.PlatformCommission, commission},
		{&b.Priced.TalentEarning, earning},
		{&b.Priced.Total, total},
	} {
		if *f.dst, err = infra.NumericToRupiah(f.src); err != nil {
			return nil, fmt.Errorf("booking amount: %w", err)
		}
	}

	rows, err := db.Query(ctx, `
		SELECT service_type::text, duration_units, unit_base_price
		FROM booking_items WHERE booking_id = $1 ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("query booking items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			item  domain.BookingLineItem
			st    string
			price pgtype.Numeric
		)
		if err := rows.Scan(&st, &item.DurationUnits, &price); err != nil {
			return nil, fmt.Errorf("scan booking item: %w", err)
		}
		item.ServiceType = domain.ServiceType(st)
		if item.UnitBasePrice, err = infra.NumericToRupiah(price); err != nil {
			return nil, fmt.Errorf("booking item price: %w", err)
		}
		b.Items = append(b.Items, item)
	}
	return &b, rows.Err()
}
