package ports

import (
	"context"

	"github.com/forkful/recipegen/internal/domain/model"
)

// RecipeStore persists the saved-recipe library, scoped per owner.
type RecipeStore interface {
	Save(ctx context.Context, recipe model.Recipe) error
	Get(ctx context.Context, owner, id string) (model.Recipe, error)
	List(ctx context.Context, owner string, limit int) ([]model.Recipe, error)
	Delete(ctx context.Context, owner, id string) error
}

// ProfileStore persists user profiles keyed by subject.
type ProfileStore interface {
	Get(ctx context.Context, subject string) (*model.Profile, error)
	Upsert(ctx context.Context, req model.UpsertProfileRequest) (*model.Profile, error)
}
