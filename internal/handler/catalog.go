package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rentlover/platform/internal/auth"
	"github.com/rentlover/platform/internal/catalog"
	"github.com/rentlover/platform/internal/domain"
	"github.com/rentlover/platform/internal/policy"
)

// UserLookup resolves one merged user from the directory.
type UserLookup interface {
	FindUser(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

// CatalogHandler serves the service catalog and per-user eligibility.
type CatalogHandler struct {
	catalog *catalog.Catalog
	users   UserLookup
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(cat *catalog.Catalog, users UserLookup) *CatalogHandler {
	return &CatalogHandler{catalog: cat, users: users}
}

// ListServices handles GET /services. Anonymous callers get the
// unauthenticated view: browsable offerings, nothing purchasable.
func (h *CatalogHandler) ListServices(w http.ResponseWriter, r *http.Request) {
	var user *domain.User
	if id, ok := auth.SubjectIDFromContext(r.Context()); ok {
		u, err := h.users.FindUser(r.Context(), id)
		if err != nil && !domain.HasCode(err, domain.CodeNotFound) {
			RespondError(w, err)
			return
		}
		user = u
	}
	RespondJSON(w, http.StatusOK, policy.EvaluateEligibility(user, h.catalog.Offerings()))
}

// EligibleServices handles GET /users/{id}/eligible-services. Members may
// only ask about themselves; admin tokens may ask about anyone.
func (h *CatalogHandler) EligibleServices(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		RespondError(w, domain.ErrValidation("invalid user id"))
		return
	}

	claims := auth.ClaimsFromContext(r.Context())
	if claims != nil && claims.Realm == auth.RealmMember && claims.Subject != id.String() {
		RespondError(w, domain.ErrForbidden("members may only view their own eligibility"))
		return
	}

	user, err := h.users.FindUser(r.Context(), id)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, policy.EvaluateEligibility(user, h.catalog.Offerings()))
}
