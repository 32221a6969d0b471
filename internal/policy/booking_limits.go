package policy

import "github.com/rentlover/platform/internal/domain"

// BookingLimitPolicy caps the size of a single booking.
type BookingLimitPolicy struct {
	MaxUnitsPerLine int64 `json:"max_units_per_line"`
	MaxLineItems    int   `json:"max_line_items"`
	MaxBookingTotal int64 `json:"max_booking_total"` // minor units
}

// DefaultBookingLimits allows up to 30 units per line, 6 lines and a total
// of Rp 50,000,000.
func DefaultBookingLimits() BookingLimitPolicy {
	return BookingLimitPolicy{
		MaxUnitsPerLine: 30,
		MaxLineItems:    6,
		MaxBookingTotal: 50_000_000,
	}
}

// BookingLimitEvaluation holds the result of a limits check.
type BookingLimitEvaluation struct {
	Allowed       bool   `json:"allowed"`
	BreachedLimit string `json:"breached_limit,omitempty"`
	LimitValue    int64  `json:"limit_value,omitempty"`
	RequestedAmt  int64  `json:"requested_amount,omitempty"`
}

// EvaluateBookingLimits checks a priced booking against the policy. Zero
// limits are disabled.
func EvaluateBookingLimits(policy BookingLimitPolicy, items []domain.BookingLineItem, priced domain.PricedBooking) BookingLimitEvaluation {
	if policy.MaxLineItems > 0 && len(items) > policy.MaxLineItems {
		return BookingLimitEvaluation{
			Allowed:       false,
			BreachedLimit: "line_items",
			LimitValue:    int64(policy.MaxLineItems),
			RequestedAmt:  int64(len(items)),
		}
	}

	if policy.MaxUnitsPerLine > 0 {
		for _, item := range items {
			if item.DurationUnits > policy.MaxUnitsPerLine {
				return BookingLimitEvaluation{
					Allowed:       false,
					BreachedLimit: "units_per_line",
					LimitValue:    policy.MaxUnitsPerLine,
					RequestedAmt:  item.DurationUnits,
				}
			}
		}
	}

	if policy.MaxBookingTotal > 0 && priced.Total > policy.MaxBookingTotal {
		return BookingLimitEvaluation{
			Allowed:       false,
			BreachedLimit: "booking_total",
			LimitValue:    policy.MaxBookingTotal,
			RequestedAmt:  priced.Total,
		}
	}

	return BookingLimitEvaluation{Allowed: true}
}
