// Package redis provides Redis-based adapters for the recipegen system.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"

	"github.com/redis/go-redis/v9"

	"github.com/forkful/recipegen/internal/domain/model"
	apperrors "github.com/forkful/recipegen/internal/errors"
	"github.com/forkful/recipegen/internal/ports"
)

var _ ports.RecipeStore = (*RecipeStore)(nil)

// ErrNotFound is returned when a recipe is not in the owner's library.
var ErrNotFound = errors.New("recipe not found")

// RecipeStore keeps each recipe as a JSON document under recipe:<owner>:<id> and indexes
// an owner's library in the sorted set recipes:<owner>, scored by creation time.
// Owner and id segments are escaped so a ':' inside a subject cannot reach another
// owner's keys.
type RecipeStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRecipeStore creates a new Redis-backed recipe store.
func NewRecipeStore(client redis.UniversalClient) *RecipeStore {
	return &RecipeStore{client: client}
}

// NewRecipeStoreWithPrefix namespaces every key with prefix, e.g. per test or per tenant.
func NewRecipeStoreWithPrefix(client redis.UniversalClient, prefix string) *RecipeStore {
	return &RecipeStore{client: client, prefix: prefix}
}

func (s *RecipeStore) recipeKey(owner, id string) string {
	return s.prefix + "recipe:" + keySegment(owner) + ":" + keySegment(id)
}

func (s *RecipeStore) indexKey(owner string) string {
	return s.prefix + "recipes:" + keySegment(owner)
}

// keySegment escapes ':' (and '%', keeping the mapping one-to-one).
func keySegment(v string) string {
	return url.QueryEscape(v)
}

func notFound() error {
	return apperrors.Wrap(ErrNotFound, apperrors.ErrCodeNotFound, "recipe not found")
}

func (s *RecipeStore) Save(ctx context.Context, recipe model.Recipe) error {
	if recipe.ID == "" || recipe.OwnerID == "" {
		return errors.New("recipe ID and owner are required")
	}

	data, err := json.Marshal(recipe)
	if err != nil {
		return fmt.Errorf("marshal recipe: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.recipeKey(recipe.OwnerID, recipe.ID), data, 0)
		pipe.ZAdd(ctx, s.indexKey(recipe.OwnerID), redis.Z{
			Score:  float64(recipe.CreatedAt.UnixMilli()),
			Member: recipe.ID,
		})
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis save recipe: %w", err)
	}
	return nil
}

func (s *RecipeStore) Get(ctx context.Context, owner, id string) (model.Recipe, error) {
	if owner == "" || id == "" {
		return model.Recipe{}, notFound()
	}

	data, err := s.client.Get(ctx, s.recipeKey(owner, id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return model.Recipe{}, notFound()
		}
		return model.Recipe{}, fmt.Errorf("redis get: %w", err)
	}

	var recipe model.Recipe
	if unmarshalErr := json.Unmarshal(data, &recipe); unmarshalErr != nil {
		return model.Recipe{}, fmt.Errorf("unmarshal recipe: %w", unmarshalErr)
	}
	return recipe, nil
}

// List returns up to limit recipes, newest first. Index entries whose document has
// disappeared are pruned.
func (s *RecipeStore) List(ctx context.Context, owner string, limit int) ([]model.Recipe, error) {
	if owner == "" || limit <= 0 {
		return []model.Recipe{}, nil
	}

	ids, err := s.client.ZRevRange(ctx, s.indexKey(owner), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis list index: %w", err)
	}
	if len(ids) == 0 {
		return []model.Recipe{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.recipeKey(owner, id)
	}
	docs, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis mget: %w", err)
	}

	recipes := make([]model.Recipe, 0, len(docs))
	var dangling []any
	for i, doc := range docs {
		raw, ok := doc.(string)
		if !ok {
			dangling = append(dangling, ids[i])
			continue
		}
		var recipe model.Recipe
		if unmarshalErr := json.Unmarshal([]byte(raw), &recipe); unmarshalErr != nil {
			return nil, fmt.Errorf("unmarshal recipe %s: %w", ids[i], unmarshalErr)
		}
		recipes = append(recipes, recipe)
	}

	if len(dangling) > 0 {
		if remErr := s.client.ZRem(ctx, s.indexKey(owner), dangling...).Err(); remErr != nil {
			return nil, fmt.Errorf("prune recipe index: %w", remErr)
		}
	}
	return recipes, nil
}

func (s *RecipeStore) Delete(ctx context.Context, owner, id string) error {
	if owner == "" || id == "" {
		return notFound()
	}

	var del *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		del = pipe.Del(ctx, s.recipeKey(owner, id))
		pipe.ZRem(ctx, s.indexKey(owner), id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis delete recipe: %w", err)
	}
	if del.Val() == 0 {
		return notFound()
	}
	return nil
}
