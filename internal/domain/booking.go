package domain

import (
	"time"

	"github.com/google/uuid"
)

// BookingLineItem is one selected service with its duration.
type BookingLineItem struct {
	ServiceType   ServiceType `json:"service_type"`
	DurationUnits int64       `json:"duration_units"`
	UnitBasePrice int64       `json:"unit_base_price"`
}

// Subtotal returns unitBasePrice * durationUnits.
func (i BookingLineItem) Subtotal() int64 {
	return i.UnitBasePrice * i.DurationUnits
}

// PricedBooking holds every derived monetary field, in minor units.
// PlatformCommission + AppFee is what the platform retains; Total is what
// the customer is charged.
type PricedBooking struct {
	Subtotal           int64       `json:"subtotal"`
	AppFee             int64       `json:"app_fee"`
	PlatformCommission int64       `json:"platform_commission"`
	TalentEarning      int64       `json:"talent_earning"`
	Total              int64       `json:"total"`
	TalentLevel        TalentLevel `json:"talent_level"`
	CommissionRateBps  int64       `json:"commission_rate_bps"`
}

// PlatformFee is the platform's combined retained amount.
func (p PricedBooking) PlatformFee() int64 {
	return p.PlatformCommission + p.AppFee
}

// Booking is a priced, persisted booking.
type Booking struct {
	ID            uuid.UUID         `json:"id"`
	CustomerID    uuid.UUID         `json:"customer_id"`
	TalentID      uuid.UUID         `json:"talent_id"`
	Items         []BookingLineItem `json:"items"`
	Priced        PricedBooking     `json:"priced"`
	PaymentMethod string            `json:"payment_method"`
	CreatedAt     time.Time         `json:"created_at"`
}
