package model

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveRecipeRequest_NormalizeAndValidate(t *testing.T) {
	req := SaveRecipeRequest{
		Title:       "  Tomato soup ",
		Ingredients: []string{" tomatoes ", "", "salt"},
		Steps:       []string{"simmer", "  "},
	}
	req.Normalize()
	require.NoError(t, req.Validate())
	assert.Equal(t, "Tomato soup", req.Title)
	assert.Equal(t, []string{"tomatoes", "salt"}, req.Ingredients)
	assert.Equal(t, []string{"simmer"}, req.Steps)
	assert.Empty(t, req.Tags)
}

func TestSaveRecipeRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     SaveRecipeRequest
		wantErr string
	}{
		{name: "missing title", req: SaveRecipeRequest{Ingredients: []string{"a"}, Steps: []string{"b"}}, wantErr: "title"},
		{
			name:    "title too long",
			req:     SaveRecipeRequest{Title: strings.Repeat("x", 201), Ingredients: []string{"a"}, Steps: []string{"b"}},
			wantErr: "200",
		},
		{name: "no ingredients", req: SaveRecipeRequest{Title: "t", Steps: []string{"b"}}, wantErr: "ingredient"},
		{name: "no steps", req: SaveRecipeRequest{Title: "t", Ingredients: []string{"a"}}, wantErr: "step"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestUpsertProfileRequest_Validate(t *testing.T) {
	req := UpsertProfileRequest{Subject: "u1", DisplayName: "  Ada ", DietaryPreferences: []string{"vegan", " "}}
	require.NoError(t, req.Validate())
	assert.Equal(t, "Ada", req.DisplayName)
	assert.Equal(t, []string{"vegan"}, req.DietaryPreferences)

	assert.Error(t, (&UpsertProfileRequest{DisplayName: "Ada"}).Validate())
	assert.Error(t, (&UpsertProfileRequest{Subject: "u1"}).Validate())
	assert.Error(t, (&UpsertProfileRequest{Subject: "u1", DisplayName: strings.Repeat("n", 81)}).Validate())

	prefs := make([]string, 21)
	for i := range prefs {
		prefs[i] = "pref"
	}
	assert.Error(t, (&UpsertProfileRequest{Subject: "u1", DisplayName: "Ada", DietaryPreferences: prefs}).Validate())
}
