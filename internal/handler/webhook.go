package handler

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/rentlover/platform/internal/service"
)

// WebhookHandler handles payment gateway callbacks.
type WebhookHandler struct {
	txSvc  *service.TransactionService
	logger *slog.Logger
}

// NewWebhookHandler creates a new WebhookHandler.
func NewWebhookHandler(txSvc *service.TransactionService, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{txSvc: txSvc, logger: logger}
}

// HandleMidtrans handles POST /webhooks/midtrans. The signature lives in the
// body, so the raw payload is handed to the service untouched.
func (h *WebhookHandler) HandleMidtrans(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		h.logger.Error("read webhook body", "error", err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	ack, err := h.txSvc.HandleMidtransNotification(r.Context(), body)
	if err != nil {
		h.logger.Error("process midtrans notification", "error", err)
		RespondError(w, err)
		return
	}

	// Midtrans retries anything that is not 2xx.
	RespondJSON(w, http.StatusOK, ack)
}
