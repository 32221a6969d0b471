package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rentlover/platform/internal/domain"
)

// ExecuteOpenBooking persists a priced booking with its pending transaction.
// Pattern: Insert booking → Insert transaction → Outbox
func (e *Engine) ExecuteOpenBooking(ctx context.Context, tx pgx.Tx, booking *domain.Booking) (*domain.TransactionRecord, []domain.OutboxDraft, error) {
	if len(booking.Items) == 0 {
		return nil, nil, domain.ErrEmptyBooking()
	}
	if booking.CreatedAt.IsZero() {
		booking.CreatedAt = e.now().UTC()
	}

	if err := e.bookings.Insert(ctx, tx, booking); err != nil {
		return nil, nil, fmt.Errorf("open booking: %w", err)
	}

	record := &domain.TransactionRecord{
		ID:            uuid.New(),
		BookingID:     booking.ID,
		CustomerID:    booking.CustomerID,
		TalentID:      booking.TalentID,
		Amount:        booking.Priced.Total,
		TalentEarning: booking.Priced.TalentEarning,
		PlatformFee:   booking.Priced.PlatformFee(),
		PaymentMethod: booking.PaymentMethod,
		Status:        domain.PaymentPending,
		CreatedAt:     booking.CreatedAt,
		UpdatedAt:     booking.CreatedAt,
	}
	if err := e.transactions.Insert(ctx, tx, record); err != nil {
		return nil, nil, fmt.Errorf("open transaction: %w", err)
	}

	events := []domain.OutboxDraft{domain.NewBookingCreatedEvent(booking, record)}
	for _, evt := range events {
		if err := e.outbox.Insert(ctx, tx, evt); err != nil {
			return nil, nil, fmt.Errorf("insert outbox event: %w", err)
		}
	}
	return record, events, nil
}
