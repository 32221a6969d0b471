package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rentlover/platform/internal/auth"
	"github.com/rentlover/platform/internal/domain"
	"github.com/rentlover/platform/internal/service"
)

// TransactionHandler exposes transaction reads and status transitions.
type TransactionHandler struct {
	svc *service.TransactionService
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(svc *service.TransactionService) *TransactionHandler {
	return &TransactionHandler{svc: svc}
}

type settlementRequest struct {
	Reference string `json:"reference" validate:"max=128"`
}

// Get handles GET /transactions/{id}. Members see only transactions they
// are a party to.
func (h *TransactionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := transactionID(w, r)
	if !ok {
		return
	}

	detail, err := h.svc.Get(r.Context(), id)
	if err != nil {
		RespondError(w, err)
		return
	}
	if !canView(r, detail.Transaction) {
		RespondError(w, domain.ErrNotFound("transaction", id.String()))
		return
	}
	RespondJSON(w, http.StatusOK, detail)
}

// ApplyGatewayOutcome handles POST /transactions/{id}/gateway-outcome,
// posted by the paying customer's client after the payment widget closes.
func (h *TransactionHandler) ApplyGatewayOutcome(w http.ResponseWriter, r *http.Request) {
	id, ok := transactionID(w, r)
	if !ok {
		return
	}

	var req service.GatewayOutcomeRequest
	if !DecodeAndValidate(w, r, &req) {
		return
	}

	if claims := auth.ClaimsFromContext(r.Context()); claims != nil && claims.Realm == auth.RealmMember {
		detail, err := h.svc.Get(r.Context(), id)
		if err != nil {
			RespondError(w, err)
			return
		}
		if detail.Transaction.CustomerID.String() != claims.Subject {
			RespondError(w, domain.ErrNotFound("transaction", id.String()))
			return
		}
	}

	result, err := h.svc.ApplyGatewayOutcome(r.Context(), id, req)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, result)
}

// Confirm handles POST /transactions/{id}/confirm (admin).
func (h *TransactionHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	id, ok := transactionID(w, r)
	if !ok {
		return
	}
	var req settlementRequest
	if !DecodeOptional(w, r, &req) {
		return
	}

	result, err := h.svc.Confirm(r.Context(), id, req.Reference)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, result)
}

// Refund handles POST /transactions/{id}/refund (admin).
func (h *TransactionHandler) Refund(w http.ResponseWriter, r *http.Request) {
	id, ok := transactionID(w, r)
	if !ok {
		return
	}
	var req settlementRequest
	if !DecodeOptional(w, r, &req) {
		return
	}

	result, err := h.svc.Refund(r.Context(), id, req.Reference)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, result)
}

func transactionID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		RespondError(w, domain.ErrValidation("invalid transaction id"))
		return uuid.Nil, false
	}
	return id, true
}

func canView(r *http.Request, tx *domain.TransactionRecord) bool {
	claims := auth.ClaimsFromContext(r.Context())
	if claims == nil || claims.Realm == auth.RealmAdmin {
		return true
	}
	return claims.Subject == tx.CustomerID.String() || claims.Subject == tx.TalentID.String()
}
