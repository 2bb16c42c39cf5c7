package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/forkful/recipegen/internal/data/pgxutil"
	"github.com/forkful/recipegen/internal/domain/model"
	apperrors "github.com/forkful/recipegen/internal/errors"
	"github.com/forkful/recipegen/internal/ports"
)

var _ ports.ProfileStore = (*ProfileRepo)(nil)

const profileColumns = `subject, display_name, dietary_preferences, created_at, updated_at`

// ProfileRepo provides database operations for user profiles.
type ProfileRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewProfileRepo creates a new ProfileRepo with real time provider.
func NewProfileRepo(db *sql.DB) *ProfileRepo {
	return &ProfileRepo{DB: db, timeProvider: &RealTimeProvider{}}
}

// NewProfileRepoWithTimeProvider creates a new ProfileRepo with a custom time provider (useful for tests).
func NewProfileRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *ProfileRepo {
	return &ProfileRepo{DB: db, timeProvider: tp}
}

// Get retrieves the profile for subject.
func (r *ProfileRepo) Get(ctx context.Context, subject string) (*model.Profile, error) {
	if subject == "" {
		return nil, apperrors.Wrap(ErrProfileNotFound, apperrors.ErrCodeNotFound, "profile not found")
	}

	var out model.Profile
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `SELECT `+profileColumns+` FROM profiles WHERE subject = $1`, subject)
		if err != nil {
			return err
		}
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Profile])
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.Wrap(ErrProfileNotFound, apperrors.ErrCodeNotFound, "profile not found")
		}
		return nil, fmt.Errorf("failed to get profile: %w", apperrors.MapDBError(err))
	}
	return &out, nil
}

// Upsert creates the profile or replaces its editable fields.
func (r *ProfileRepo) Upsert(ctx context.Context, req model.UpsertProfileRequest) (*model.Profile, error) {
	if err := req.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error())
	}
	prefs := req.DietaryPreferences
	if prefs == nil {
		prefs = []string{}
	}

	now := r.timeProvider.Now().UTC()
	var out model.Profile
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			INSERT INTO profiles (subject, display_name, dietary_preferences, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $4)
			ON CONFLICT (subject) DO UPDATE SET
				display_name = EXCLUDED.display_name,
				dietary_preferences = EXCLUDED.dietary_preferences,
				updated_at = EXCLUDED.updated_at
			RETURNING `+profileColumns,
			req.Subject, req.DisplayName, prefs, now,
		)
		if err != nil {
			return err
		}
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Profile])
		return err
	})
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return &out, nil
}
