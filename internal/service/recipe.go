package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/forkful/recipegen/internal/domain/model"
	apperrors "github.com/forkful/recipegen/internal/errors"
	"github.com/forkful/recipegen/internal/ports"
)

const (
	defaultRecipeListLimit = 50
	maxRecipeListLimit     = 200
)

// RecipeServiceOptions groups dependencies for RecipeService.
type RecipeServiceOptions struct {
	Store ports.RecipeStore
	Now   func() time.Time
	NewID func() string
}

// RecipeService manages a user's saved-recipe library.
// Every operation is scoped to the verified owner subject.
type RecipeService struct {
	store ports.RecipeStore
	now   func() time.Time
	newID func() string
}

// NewRecipeService constructs a new RecipeService.
func NewRecipeService(opts RecipeServiceOptions) *RecipeService {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	newID := opts.NewID
	if newID == nil {
		newID = func() string { return uuid.New().String() }
	}
	return &RecipeService{store: opts.Store, now: now, newID: newID}
}

// Save validates req and stores it as a new recipe owned by owner.
func (s *RecipeService) Save(ctx context.Context, owner string, req model.SaveRecipeRequest) (*model.Recipe, error) {
	if owner == "" {
		return nil, errors.New("owner is required")
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	recipe := model.Recipe{
		ID:          s.newID(),
		OwnerID:     owner,
		Title:       req.Title,
		Summary:     req.Summary,
		Ingredients: req.Ingredients,
		Steps:       req.Steps,
		Tags:        req.Tags,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.store.Save(ctx, recipe); err != nil {
		return nil, fmt.Errorf("save recipe: %w", err)
	}
	return &recipe, nil
}

// Get returns a single recipe from owner's library.
func (s *RecipeService) Get(ctx context.Context, owner, id string) (*model.Recipe, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperrors.NotFound("recipe not found")
	}
	recipe, err := s.store.Get(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	return &recipe, nil
}

// List returns owner's recipes, newest first. A non-positive limit selects the default.
func (s *RecipeService) List(ctx context.Context, owner string, limit int) ([]model.Recipe, error) {
	switch {
	case limit <= 0:
		limit = defaultRecipeListLimit
	case limit > maxRecipeListLimit:
		limit = maxRecipeListLimit
	}
	return s.store.List(ctx, owner, limit)
}

// Delete removes a recipe from owner's library.
func (s *RecipeService) Delete(ctx context.Context, owner, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return apperrors.NotFound("recipe not found")
	}
	return s.store.Delete(ctx, owner, id)
}
