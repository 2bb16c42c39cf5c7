package model

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	maxDisplayNameLen     = 80
	maxDietaryPreferences = 20
)

// Profile holds user-editable account details.
type Profile struct {
	Subject            string    `json:"subject"             db:"subject"`
	DisplayName        string    `json:"display_name"        db:"display_name"`
	DietaryPreferences []string  `json:"dietary_preferences" db:"dietary_preferences"`
	CreatedAt          time.Time `json:"created_at"          db:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"          db:"updated_at"`
}

// UpsertProfileRequest contains fields to create or replace a profile.
type UpsertProfileRequest struct {
	Subject            string   `json:"-"`
	DisplayName        string   `json:"display_name"`
	DietaryPreferences []string `json:"dietary_preferences"`
}

// Validate checks the request and normalizes its fields in place.
func (r *UpsertProfileRequest) Validate() error {
	if strings.TrimSpace(r.Subject) == "" {
		return errors.New("subject is required")
	}
	r.DisplayName = strings.TrimSpace(r.DisplayName)
	if r.DisplayName == "" {
		return errors.New("display_name is required")
	}
	if utf8.RuneCountInString(r.DisplayName) > maxDisplayNameLen {
		return errors.New("display_name cannot exceed 80 characters")
	}
	r.DietaryPreferences = compactStrings(r.DietaryPreferences)
	if len(r.DietaryPreferences) > maxDietaryPreferences {
		return errors.New("dietary_preferences is limited to 20 entries")
	}
	return nil
}
