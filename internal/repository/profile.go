package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/nutritrack/nutritrack-go/internal/model"
)

var ErrProfileExists = errors.New("profile already exists")

// ProfileRepository handles the write-once profile columns of the users table.
type ProfileRepository struct {
	db *sql.DB
}

// NewProfileRepository creates a new ProfileRepository.
func NewProfileRepository(db *sql.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// createProfileQuery sets all five columns in one statement, and only while
// every one of them is still NULL.
const createProfileQuery = `
	UPDATE users
	SET age = ?, weight = ?, height = ?, gender = ?, goal = ?, updated_at = ?
	WHERE id = ?
		AND age IS NULL AND weight IS NULL AND height IS NULL
		AND gender IS NULL AND goal IS NULL`

// Get retrieves the profile of a user. A user who never saved one has an empty profile.
func (r *ProfileRepository) Get(ctx context.Context, userID string) (model.Profile, error) {
	query := `SELECT age, weight, height, gender, goal FROM users WHERE id = ?`

	var p model.Profile
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&p.Age, &p.Weight, &p.Height, &p.Gender, &p.Goal)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Profile{}, ErrUserNotFound
		}
		return model.Profile{}, fmt.Errorf("querying profile: %w", err)
	}

	return p, nil
}

// Create writes a complete profile for a user whose profile is still empty.
// It returns ErrProfileExists if any field was already set and ErrUserNotFound
// if the user does not exist.
func (r *ProfileRepository) Create(ctx context.Context, userID string, p model.Profile, at time.Time) error {
	result, err := r.db.ExecContext(ctx, createProfileQuery,
		p.Age, p.Weight, p.Height, p.Gender, p.Goal, at, userID,
	)
	if err != nil {
		return fmt.Errorf("writing profile: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("writing profile: %w", err)
	}
	if rowsAffected == 1 {
		return nil
	}

	// Nothing matched: either the user is gone or the profile is already set.
	if _, err := r.Get(ctx, userID); err != nil {
		return err
	}
	return ErrProfileExists
}
