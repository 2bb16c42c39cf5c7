package service

import (
	"context"
	"fmt"

	"github.com/forkful/recipegen/internal/domain/model"
	apperrors "github.com/forkful/recipegen/internal/errors"
	"github.com/forkful/recipegen/internal/ports"
)

// ProfileService reads and writes user profiles.
type ProfileService struct {
	store ports.ProfileStore
}

// NewProfileService constructs a new ProfileService.
func NewProfileService(store ports.ProfileStore) *ProfileService {
	return &ProfileService{store: store}
}

// Get returns the profile for subject.
func (s *ProfileService) Get(ctx context.Context, subject string) (*model.Profile, error) {
	return s.store.Get(ctx, subject)
}

// Update validates req and creates or replaces the profile for subject.
func (s *ProfileService) Update(ctx context.Context, subject string, req model.UpsertProfileRequest) (*model.Profile, error) {
	req.Subject = subject
	if err := req.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error())
	}
	p, err := s.store.Upsert(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("upsert profile: %w", err)
	}
	return p, nil
}
