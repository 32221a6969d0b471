package policy

import (
	"testing"

	"github.com/rentlover/platform/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestEvaluateBookingLimits_AllowsWithinLimits(t *testing.T) {
	items := []domain.BookingLineItem{{ServiceType: domain.ServiceChat, DurationUnits: 3, UnitBasePrice: 25000}}
	result := EvaluateBookingLimits(DefaultBookingLimits(), items, domain.PricedBooking{Total: 82500})
	assert.True(t, result.Allowed)
}

func TestEvaluateBookingLimits_BlocksUnitsPerLine(t *testing.T) {
	items := []domain.BookingLineItem{{ServiceType: domain.ServiceCall, DurationUnits: 31, UnitBasePrice: 40000}}
	result := EvaluateBookingLimits(DefaultBookingLimits(), items, domain.PricedBooking{Total: 1})
	assert.False(t, result.Allowed)
	assert.Equal(t, "units_per_line", result.BreachedLimit)
	assert.Equal(t, int64(31), result.RequestedAmt)
}

func TestEvaluateBookingLimits_BlocksTotal(t *testing.T) {
	items := []domain.BookingLineItem{{ServiceType: domain.ServiceRentLover, DurationUnits: 30, UnitBasePrice: 450000}}
	result := EvaluateBookingLimits(DefaultBookingLimits(), items, domain.PricedBooking{Total: 60_000_000})
	assert.False(t, result.Allowed)
	assert.Equal(t, "booking_total", result.BreachedLimit)
}

func TestEvaluateBookingLimits_BlocksLineCount(t *testing.T) {
	items := make([]domain.BookingLineItem, 7)
	result := EvaluateBookingLimits(DefaultBookingLimits(), items, domain.PricedBooking{})
	assert.False(t, result.Allowed)
	assert.Equal(t, "line_items", result.BreachedLimit)
}

func TestEvaluateBookingLimits_ZeroDisables(t *testing.T) {
	items := []domain.BookingLineItem{{ServiceType: domain.ServiceChat, DurationUnits: 1000, UnitBasePrice: 1}}
	result := EvaluateBookingLimits(BookingLimitPolicy{}, items, domain.PricedBooking{Total: 1 << 50})
	assert.True(t, result.Allowed)
}
