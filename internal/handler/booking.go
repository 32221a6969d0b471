package handler

import (
	"net/http"

	"github.com/rentlover/platform/internal/auth"
	"github.com/rentlover/platform/internal/domain"
	"github.com/rentlover/platform/internal/service"
)

// BookingHandler handles booking quotes and creation.
type BookingHandler struct {
	svc *service.BookingService
}

// NewBookingHandler creates a new BookingHandler.
func NewBookingHandler(svc *service.BookingService) *BookingHandler {
	return &BookingHandler{svc: svc}
}

// Price handles POST /bookings/price. It has no side effects.
func (h *BookingHandler) Price(w http.ResponseWriter, r *http.Request) {
	var req service.PriceRequest
	if !DecodeAndValidate(w, r, &req) {
		return
	}

	priced, err := h.svc.Price(r.Context(), req)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, priced)
}

// Create handles POST /bookings for the authenticated customer.
func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	customerID, ok := auth.SubjectIDFromContext(r.Context())
	if !ok {
		RespondError(w, domain.ErrUnauthorized("not authenticated"))
		return
	}

	var req service.CreateBookingRequest
	if !DecodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.svc.Create(r.Context(), customerID, req)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusCreated, result)
}
