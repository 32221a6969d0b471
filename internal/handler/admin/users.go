package admin

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rentlover/platform/internal/auth"
	"github.com/rentlover/platform/internal/directory"
	"github.com/rentlover/platform/internal/domain"
	"github.com/rentlover/platform/internal/handler"
	"github.com/rentlover/platform/internal/infra"
	"github.com/rentlover/platform/internal/service"
)

// UserDirectory is the merged identity view the admin screens read.
type UserDirectory interface {
	Snapshot(ctx context.Context) (*directory.Snapshot, error)
	FindUser(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

// UserAdminHandler handles the admin user directory and verification decisions.
type UserAdminHandler struct {
	users        UserDirectory
	verification *service.VerificationService
	hub          *infra.WSHub
}

// NewUserAdminHandler creates a new UserAdminHandler.
func NewUserAdminHandler(users UserDirectory, verification *service.VerificationService, hub *infra.WSHub) *UserAdminHandler {
	return &UserAdminHandler{users: users, verification: verification, hub: hub}
}

type approveRequest struct {
	Application *domain.TalentApplication `json:"application"`
}

type rejectRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

// ListUsers handles GET /users?status=pending&type=companion&q=text.
// A degraded snapshot is still a 200; the flag tells the operator one
// source was missing.
func (h *UserAdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	snap, err := h.users.Snapshot(r.Context())
	if err != nil {
		handler.RespondError(w, err)
		return
	}

	q := r.URL.Query()
	filtered := filterUsers(snap.Users, q.Get("status"), q.Get("type"), q.Get("q"))
	handler.RespondJSON(w, http.StatusOK, directory.Snapshot{
		Users:        filtered,
		Degraded:     snap.Degraded,
		SourceErrors: snap.SourceErrors,
		Watermark:    snap.Watermark,
	})
}

// GetUser handles GET /users/{id}.
func (h *UserAdminHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		handler.RespondError(w, domain.ErrValidation("invalid user id"))
		return
	}

	user, err := h.users.FindUser(r.Context(), id)
	if err != nil {
		handler.RespondError(w, err)
		return
	}
	handler.RespondJSON(w, http.StatusOK, user)
}

// Approve handles POST /users/{id}/approve. The body is optional and only
// consulted when the identity has no profile yet.
func (h *UserAdminHandler) Approve(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		handler.RespondError(w, domain.ErrValidation("invalid user id"))
		return
	}

	var req approveRequest
	if !handler.DecodeOptional(w, r, &req) {
		return
	}

	user, err := h.verification.Approve(r.Context(), id, reviewerID(r), req.Application)
	if err != nil {
		handler.RespondError(w, err)
		return
	}
	handler.RespondJSON(w, http.StatusOK, user)
}

// Reject handles POST /users/{id}/reject.
func (h *UserAdminHandler) Reject(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		handler.RespondError(w, domain.ErrValidation("invalid user id"))
		return
	}

	var req rejectRequest
	if !handler.DecodeAndValidate(w, r, &req) {
		return
	}

	user, err := h.verification.Reject(r.Context(), id, reviewerID(r), req.Reason)
	if err != nil {
		handler.RespondError(w, err)
		return
	}
	handler.RespondJSON(w, http.StatusOK, user)
}

// Stream handles GET /admin/users/stream. The socket first receives the
// current snapshot, then every rebuilt one.
func (h *UserAdminHandler) Stream(w http.ResponseWriter, r *http.Request) {
	var initial *infra.WSMessage
	if snap, err := h.users.Snapshot(r.Context()); err == nil {
		initial = &infra.WSMessage{Event: directory.EventUpdated, Data: snap}
	}
	h.hub.Serve(w, r, directory.StreamRoom, auth.SubjectFromContext(r.Context()), initial)
}

func reviewerID(r *http.Request) *uuid.UUID {
	id, ok := auth.SubjectIDFromContext(r.Context())
	if !ok {
		return nil
	}
	return &id
}

func filterUsers(users []domain.User, status, userType, text string) []domain.User {
	if status == "" && userType == "" && text == "" {
		return users
	}
	text = strings.ToLower(strings.TrimSpace(text))
	out := make([]domain.User, 0, len(users))
	for _, u := range users {
		if status != "" && string(u.VerificationStatus) != status {
			continue
		}
		if userType != "" && string(u.UserType) != userType {
			continue
		}
		if text != "" &&
			!strings.Contains(strings.ToLower(u.Email), text) &&
			!strings.Contains(strings.ToLower(u.DisplayName), text) {
			continue
		}
		out = append(out, u)
	}
	return out
}
