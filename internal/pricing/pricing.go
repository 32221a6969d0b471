// Package pricing computes booking totals, fees and talent payouts. All
// amounts are integer minor units; fractions are rounded half-up per field.
package pricing

import (
	"time"

	"github.com/rentlover/platform/internal/domain"
	"github.com/shopspring/decimal"
)

const (
	bpsDenominator = 10_000

	// AppFeeBps is the customer-facing app fee, independent of tier.
	AppFeeBps int64 = 1000

	// maxSubtotal keeps every derived field comfortably inside int64.
	maxSubtotal = 1_000_000_000_000_000
)

// Engine prices bookings against a commission table.
type Engine struct {
	table *CommissionTable
	now   func() time.Time
}

// NewEngine creates a pricing engine.
func NewEngine(table *CommissionTable) *Engine {
	return &Engine{table: table, now: time.Now}
}

// Table exposes the commission table the engine prices with.
func (e *Engine) Table() *CommissionTable { return e.table }

// Price prices items with the rate currently in force for level.
func (e *Engine) Price(items []domain.BookingLineItem, level domain.TalentLevel) (domain.PricedBooking, error) {
	return e.PriceAt(items, level, e.now())
}

// PriceAt prices items with the rate in force for level at the given instant.
func (e *Engine) PriceAt(items []domain.BookingLineItem, level domain.TalentLevel, at time.Time) (domain.PricedBooking, error) {
	if len(items) == 0 {
		return domain.PricedBooking{}, domain.ErrEmptyBooking()
	}
	rate, err := e.table.RateAt(level, at)
	if err != nil {
		return domain.PricedBooking{}, err
	}
	priced, err := Compute(items, rate)
	if err != nil {
		return domain.PricedBooking{}, err
	}
	priced.TalentLevel = level
	return priced, nil
}

// Compute derives every monetary field for items at commissionBps:
//
//	subtotal           = sum(unitBasePrice * durationUnits)
//	appFee             = round(subtotal * 10%)
//	platformCommission = round(subtotal * commissionBps / 10000)
//	talentEarning      = subtotal - platformCommission
//	total              = subtotal + appFee
func Compute(items []domain.BookingLineItem, commissionBps int64) (domain.PricedBooking, error) {
	if len(items) == 0 {
		return domain.PricedBooking{}, domain.ErrEmptyBooking()
	}

	subtotal := decimal.Zero
	for _, item := range items {
		if err := domain.ValidateLineItem(item); err != nil {
			return domain.PricedBooking{}, domain.ErrValidation(err.Error())
		}
		line := decimal.NewFromInt(item.UnitBasePrice).Mul(decimal.NewFromInt(item.DurationUnits))
		subtotal = subtotal.Add(line)
	}
	if subtotal.GreaterThan(decimal.NewFromInt(maxSubtotal)) {
		return domain.PricedBooking{}, domain.ErrValidation("booking subtotal too large")
	}

	sub := subtotal.IntPart()
	commission := applyBps(sub, commissionBps)
	appFee := applyBps(sub, AppFeeBps)

	return domain.PricedBooking{
		Subtotal:           sub,
		AppFee:             appFee,
		PlatformCommission: commission,
		TalentEarning:      sub - commission,
		Total:              sub + appFee,
		CommissionRateBps:  commissionBps,
	}, nil
}

// applyBps returns round_half_up(amount * bps / 10000). Amounts are never
// negative here, so rounding away from zero is rounding half-up.
func applyBps(amount, bps int64) int64 {
	rate := decimal.New(bps, -4)
	return decimal.NewFromInt(amount).Mul(rate).Round(0).IntPart()
}
