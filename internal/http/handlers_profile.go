package httpx

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/forkful/recipegen/internal/domain/model"
)

// ProfileServiceInterface is the subset of service.ProfileService used by the handlers.
type ProfileServiceInterface interface {
	Get(ctx context.Context, subject string) (*model.Profile, error)
	Update(ctx context.Context, subject string, req model.UpsertProfileRequest) (*model.Profile, error)
}

// ProfileHandlers serves /api/profile for the verified caller.
type ProfileHandlers struct {
	Svc    ProfileServiceInterface
	Logger *slog.Logger
}

// Get returns the caller's profile.
func (h *ProfileHandlers) Get(w http.ResponseWriter, r *http.Request) {
	subject, ok := ownerFromRequest(w, r)
	if !ok {
		return
	}
	p, err := h.Svc.Get(r.Context(), subject)
	if err != nil {
		WriteServiceError(w, r, err, h.Logger)
		return
	}
	WriteJSON(w, http.StatusOK, p)
}

// Update creates or replaces the caller's profile.
func (h *ProfileHandlers) Update(w http.ResponseWriter, r *http.Request) {
	subject, ok := ownerFromRequest(w, r)
	if !ok {
		return
	}
	var req model.UpsertProfileRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	p, err := h.Svc.Update(r.Context(), subject, req)
	if err != nil {
		WriteServiceError(w, r, err, h.Logger)
		return
	}
	WriteJSON(w, http.StatusOK, p)
}
