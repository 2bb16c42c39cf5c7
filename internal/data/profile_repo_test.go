package data

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forkful/recipegen/internal/domain/model"
	apperrors "github.com/forkful/recipegen/internal/errors"
	"github.com/forkful/recipegen/internal/testutil"
)

func TestProfileRepo_UpsertAndGet(t *testing.T) {
	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.TeardownTestDB(t, db) })

	clock := NewFixedTimeProvider(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
	repo := NewProfileRepoWithTimeProvider(db, clock)
	ctx := context.Background()

	created, err := repo.Upsert(ctx, model.UpsertProfileRequest{
		Subject:            "user-1",
		DisplayName:        "Ada",
		DietaryPreferences: []string{"vegetarian"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Ada", created.DisplayName)
	assert.Equal(t, []string{"vegetarian"}, created.DietaryPreferences)
	assert.True(t, created.CreatedAt.Equal(clock.Now()))

	clock.AddTime(time.Hour)
	updated, err := repo.Upsert(ctx, model.UpsertProfileRequest{Subject: "user-1", DisplayName: "Ada L."})
	require.NoError(t, err)
	assert.Equal(t, "Ada L.", updated.DisplayName)
	assert.Empty(t, updated.DietaryPreferences)
	assert.True(t, updated.CreatedAt.Equal(created.CreatedAt))
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))

	got, err := repo.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "Ada L.", got.DisplayName)
}

func TestProfileRepo_GetMissing(t *testing.T) {
	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.TeardownTestDB(t, db) })
	repo := NewProfileRepo(db)

	_, err := repo.Get(context.Background(), "nobody")
	require.ErrorIs(t, err, ErrProfileNotFound)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestProfileRepo_UpsertValidation(t *testing.T) {
	// Validation runs before any database access.
	repo := NewProfileRepo(nil)

	_, err := repo.Upsert(context.Background(), model.UpsertProfileRequest{Subject: "u1", DisplayName: strings.Repeat("x", 81)})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))

	_, err = repo.Get(context.Background(), "")
	assert.True(t, apperrors.IsNotFound(err))
}
