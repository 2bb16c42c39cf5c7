package model

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	maxRecipeTitleLen = 200
	maxRecipeItems    = 100
)

// Recipe is a generated recipe saved to a user's library.
// OwnerID is the verified subject of the user who saved it.
type Recipe struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	Title       string    `json:"title"`
	Summary     string    `json:"summary,omitempty"`
	Ingredients []string  `json:"ingredients"`
	Steps       []string  `json:"steps"`
	Tags        []string  `json:"tags,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// SaveRecipeRequest contains fields for saving a recipe to the library.
type SaveRecipeRequest struct {
	Title       string   `json:"title"`
	Summary     string   `json:"summary"`
	Ingredients []string `json:"ingredients"`
	Steps       []string `json:"steps"`
	Tags        []string `json:"tags"`
}

// Normalize trims whitespace and drops empty list entries in place.
func (r *SaveRecipeRequest) Normalize() {
	r.Title = strings.TrimSpace(r.Title)
	r.Summary = strings.TrimSpace(r.Summary)
	r.Ingredients = compactStrings(r.Ingredients)
	r.Steps = compactStrings(r.Steps)
	r.Tags = compactStrings(r.Tags)
}

// Validate checks that the request describes a usable recipe.
func (r *SaveRecipeRequest) Validate() error {
	if r.Title == "" {
		return errors.New("title is required")
	}
	if utf8.RuneCountInString(r.Title) > maxRecipeTitleLen {
		return errors.New("title cannot exceed 200 characters")
	}
	if len(r.Ingredients) == 0 {
		return errors.New("at least one ingredient is required")
	}
	if len(r.Steps) == 0 {
		return errors.New("at least one step is required")
	}
	if len(r.Ingredients) > maxRecipeItems || len(r.Steps) > maxRecipeItems {
		return errors.New("ingredients and steps are limited to 100 entries each")
	}
	return nil
}

func compactStrings(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if t := strings.TrimSpace(s); t != "" {
			out = append(out, t)
		}
	}
	return out
}
