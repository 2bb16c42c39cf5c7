package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/forkful/recipegen/internal/domain/model"
)

// RecipeServiceInterface is the subset of service.RecipeService used by the handlers.
type RecipeServiceInterface interface {
	Save(ctx context.Context, owner string, req model.SaveRecipeRequest) (*model.Recipe, error)
	Get(ctx context.Context, owner, id string) (*model.Recipe, error)
	List(ctx context.Context, owner string, limit int) ([]model.Recipe, error)
	Delete(ctx context.Context, owner, id string) error
}

// RecipeHandlers provides the saved-recipe library API. Every route sits behind
// RequireVerifiedIdentity; the owner is always the verified subject.
type RecipeHandlers struct {
	Svc    RecipeServiceInterface
	Logger *slog.Logger
}

// ownerFromRequest returns the verified subject or writes a 401.
func ownerFromRequest(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := IdentityFromContext(r.Context())
	if !ok {
		WriteError(w, ErrorParams{
			Code:    http.StatusUnauthorized,
			ErrCode: "authentication_required",
			Err:     errors.New("authentication required"),
		})
		return "", false
	}
	return id.UserID, true
}

// Create saves a recipe to the caller's library.
func (h *RecipeHandlers) Create(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerFromRequest(w, r)
	if !ok {
		return
	}
	var req model.SaveRecipeRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	recipe, err := h.Svc.Save(r.Context(), owner, req)
	if err != nil {
		WriteServiceError(w, r, err, h.Logger)
		return
	}
	WriteJSON(w, http.StatusCreated, recipe)
}

// List returns the caller's recipes, newest first.
func (h *RecipeHandlers) List(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerFromRequest(w, r)
	if !ok {
		return
	}
	limit := parseIntQuery(r, "limit", 0)

	recipes, err := h.Svc.List(r.Context(), owner, limit)
	if err != nil {
		WriteServiceError(w, r, err, h.Logger)
		return
	}
	if recipes == nil {
		recipes = []model.Recipe{}
	}
	WriteJSON(w, http.StatusOK, map[string]any{"recipes": recipes})
}

// GetByID returns a single recipe.
func (h *RecipeHandlers) GetByID(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerFromRequest(w, r)
	if !ok {
		return
	}
	recipe, err := h.Svc.Get(r.Context(), owner, r.PathValue("id"))
	if err != nil {
		WriteServiceError(w, r, err, h.Logger)
		return
	}
	WriteJSON(w, http.StatusOK, recipe)
}

// Delete removes a recipe.
func (h *RecipeHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerFromRequest(w, r)
	if !ok {
		return
	}
	if err := h.Svc.Delete(r.Context(), owner, r.PathValue("id")); err != nil {
		WriteServiceError(w, r, err, h.Logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
