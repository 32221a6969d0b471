package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rentlover/platform/internal/catalog"
	"github.com/rentlover/platform/internal/domain"
	"github.com/rentlover/platform/internal/policy"
	"github.com/rentlover/platform/internal/pricing"
)

// UserFinder resolves one merged user.
type UserFinder interface {
	FindUser(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

// BookingLedger persists a booking with its pending transaction.
type BookingLedger interface {
	OpenBooking(ctx context.Context, booking *domain.Booking) (*domain.TransactionRecord, error)
}

// BookingItemRequest is one requested line. Prices always come from the
// catalog unless a quote supplies UnitBasePrice.
type BookingItemRequest struct {
	ServiceType   domain.ServiceType `json:"service_type" validate:"required"`
	DurationUnits int64              `json:"duration_units" validate:"required,gt=0"`
	UnitBasePrice int64              `json:"unit_base_price,omitempty" validate:"gte=0"`
}

// PriceRequest is a side-effect free quote.
type PriceRequest struct {
	TalentID uuid.UUID            `json:"talent_id" validate:"required"`
	Items    []BookingItemRequest `json:"items" validate:"dive"`
}

// CreateBookingRequest opens a booking for the calling customer.
type CreateBookingRequest struct {
	TalentID      uuid.UUID            `json:"talent_id" validate:"required"`
	PaymentMethod string               `json:"payment_method" validate:"required,max=64"`
	Items         []BookingItemRequest `json:"items" validate:"dive"`
}

// BookingResult is a persisted booking with its transaction.
type BookingResult struct {
	Booking     *domain.Booking           `json:"booking"`
	Transaction *domain.TransactionRecord `json:"transaction"`
	Deferred    bool                      `json:"deferred"`
}

// BookingService prices and opens bookings.
type BookingService struct {
	users   UserFinder
	catalog *catalog.Catalog
	pricing *pricing.Engine
	limits  policy.BookingLimitPolicy
	routing policy.PaymentRoutingPolicy
	ledger  BookingLedger
	logger  *slog.Logger
	now     func() time.Time
}

// NewBookingService creates a BookingService.
func NewBookingService(
	users UserFinder,
	cat *catalog.Catalog,
	engine *pricing.Engine,
	limits policy.BookingLimitPolicy,
	routing policy.PaymentRoutingPolicy,
	ledger BookingLedger,
	logger *slog.Logger,
) *BookingService {
	return &BookingService{
		users:   users,
		catalog: cat,
		pricing: engine,
		limits:  limits,
		routing: routing,
		ledger:  ledger,
		logger:  logger,
		now:     time.Now,
	}
}

// Price quotes items for a talent with the rate in force now.
func (s *BookingService) Price(ctx context.Context, req PriceRequest) (*domain.PricedBooking, error) {
	if len(req.Items) == 0 {
		return nil, domain.ErrEmptyBooking()
	}
	talent, err := s.users.FindUser(ctx, req.TalentID)
	if err != nil {
		return nil, err
	}
	level, err := talentLevelOf(talent)
	if err != nil {
		return nil, err
	}
	items, err := s.lineItems(req.Items, true)
	if err != nil {
		return nil, err
	}

	priced, err := s.pricing.PriceAt(items, level, s.now())
	if err != nil {
		return nil, err
	}
	return &priced, nil
}

// Create prices and persists a booking. The commission rate and tier in
// force now are snapshotted onto it so later table changes never reprice.
func (s *BookingService) Create(ctx context.Context, customerID uuid.UUID, req CreateBookingRequest) (*BookingResult, error) {
	if len(req.Items) == 0 {
		return nil, domain.ErrEmptyBooking()
	}
	if customerID == req.TalentID {
		return nil, domain.ErrValidation("cannot book yourself")
	}

	customer, err := s.users.FindUser(ctx, customerID)
	if err != nil {
		return nil, err
	}
	talent, err := s.users.FindUser(ctx, req.TalentID)
	if err != nil {
		return nil, err
	}
	level, err := talentLevelOf(talent)
	if err != nil {
		return nil, err
	}

	items, err := s.lineItems(req.Items, false)
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		offering, _ := s.catalog.Offering(item.ServiceType)
		if elig := policy.EvaluateBookingEligibility(customer, talent, offering); !elig.Allowed {
			return nil, domain.ErrForbidden(restrictionMessage(offering.ServiceType, elig))
		}
	}

	priced, err := s.pricing.PriceAt(items, level, s.now())
	if err != nil {
		return nil, err
	}

	if limit := policy.EvaluateBookingLimits(s.limits, items, priced); !limit.Allowed {
		return nil, &domain.AppError{
			Code:    "BOOKING_LIMIT_EXCEEDED",
			Message: fmt.Sprintf("booking exceeds %s limit (%d > %d)", limit.BreachedLimit, limit.RequestedAmt, limit.LimitValue),
			Status:  422,
		}
	}

	route := policy.EvaluatePaymentMethod(s.routing, req.PaymentMethod)
	if !route.Allowed {
		return nil, domain.ErrValidation(route.Reason)
	}

	booking := &domain.Booking{
		ID:            uuid.New(),
		CustomerID:    customer.ID,
		TalentID:      talent.ID,
		Items:         items,
		Priced:        priced,
		PaymentMethod: strings.ToLower(strings.TrimSpace(req.PaymentMethod)),
		CreatedAt:     s.now().UTC(),
	}
	record, err := s.ledger.OpenBooking(ctx, booking)
	if err != nil {
		return nil, err
	}

	s.logger.Info("booking created",
		"booking_id", booking.ID,
		"transaction_id", record.ID,
		"customer_id", customer.ID,
		"talent_id", talent.ID,
		"total", priced.Total,
		"commission_bps", priced.CommissionRateBps,
	)
	return &BookingResult{Booking: booking, Transaction: record, Deferred: route.Deferred}, nil
}

// lineItems resolves requested lines against the catalog. Quotes may carry
// their own unit price; bookings never do.
func (s *BookingService) lineItems(reqs []BookingItemRequest, allowQuotedPrice bool) ([]domain.BookingLineItem, error) {
	items := make([]domain.BookingLineItem, 0, len(reqs))
	for i, r := range reqs {
		offering, ok := s.catalog.Offering(r.ServiceType)
		if !ok {
			return nil, domain.ErrValidation(fmt.Sprintf("items[%d]: unknown service type %q", i, r.ServiceType))
		}
		item := domain.BookingLineItem{
			ServiceType:   offering.ServiceType,
			DurationUnits: r.DurationUnits,
			UnitBasePrice: offering.BasePrice,
		}
		if allowQuotedPrice && r.UnitBasePrice > 0 {
			item.UnitBasePrice = r.UnitBasePrice
		}
		if err := domain.ValidateLineItem(item); err != nil {
			return nil, domain.ErrValidation(fmt.Sprintf("items[%d]: %v", i, err))
		}
		items = append(items, item)
	}
	return items, nil
}

func talentLevelOf(u *domain.User) (domain.TalentLevel, error) {
	if !u.IsTalent() {
		return "", domain.ErrValidation(fmt.Sprintf("user %s is not a talent", u.ID))
	}
	if u.TalentLevel == nil {
		return "", domain.ErrUnknownTier("")
	}
	return *u.TalentLevel, nil
}

func restrictionMessage(st domain.ServiceType, e policy.BookingEligibility) string {
	var parts []string
	if len(e.CustomerReasons) > 0 {
		parts = append(parts, "customer: "+strings.Join(e.CustomerReasons, ","))
	}
	if len(e.TalentReasons) > 0 {
		parts = append(parts, "talent: "+strings.Join(e.TalentReasons, ","))
	}
	return fmt.Sprintf("%s is restricted (%s)", st, strings.Join(parts, "; "))
}
