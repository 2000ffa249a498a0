package service

import (
	"context"
	"errors"
	"time"

	"github.com/nutritrack/nutritrack-go/internal/model"
	"github.com/nutritrack/nutritrack-go/internal/repository"
	"github.com/nutritrack/nutritrack-go/internal/validation"
)

// ProfileStore persists the write-once profile of a user.
type ProfileStore interface {
	Get(ctx context.Context, userID string) (model.Profile, error)
	Create(ctx context.Context, userID string, p model.Profile, at time.Time) error
}

// Principal is the identity recovered from a verified token.
type Principal struct {
	UserID string
	Email  string
}

// ProfileService handles profile business logic.
type ProfileService struct {
	store     ProfileStore
	validator *validation.Validator
	now       func() time.Time
}

// NewProfileService creates a new ProfileService.
func NewProfileService(store ProfileStore, v *validation.Validator) *ProfileService {
	return &ProfileService{
		store:     store,
		validator: v,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func authorize(p Principal, userID string) error {
	if p.UserID == "" || p.UserID != userID {
		return ErrUnauthorized
	}
	return nil
}

// GetProfile returns the profile of userID. Fields that were never written are nil.
func (s *ProfileService) GetProfile(ctx context.Context, p Principal, userID string) (model.ProfileResponse, error) {
	if err := authorize(p, userID); err != nil {
		return model.ProfileResponse{}, err
	}

	profile, err := s.store.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return model.ProfileResponse{}, ErrNotFound
		}
		return model.ProfileResponse{}, err
	}

	return model.ProfileResponse{Profile: profile}, nil
}

// SaveProfile writes all five profile fields of userID at once. It fails with
// a *ProfileExistsError holding the stored profile if any field has already
// been written; there is no update path.
func (s *ProfileService) SaveProfile(ctx context.Context, p Principal, userID string, req model.ProfileRequest) (model.ProfileResponse, error) {
	if err := authorize(p, userID); err != nil {
		return model.ProfileResponse{}, err
	}
	if err := validate(s.validator, req); err != nil {
		return model.ProfileResponse{}, err
	}

	current, err := s.store.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return model.ProfileResponse{}, ErrNotFound
		}
		return model.ProfileResponse{}, err
	}
	if !current.IsEmpty() {
		return model.ProfileResponse{}, &ProfileExistsError{Profile: current}
	}

	profile := req.ToProfile()
	if err := s.store.Create(ctx, userID, profile, s.now()); err != nil {
		switch {
		case errors.Is(err, repository.ErrProfileExists):
			stored, getErr := s.store.Get(ctx, userID)
			if getErr != nil {
				return model.ProfileResponse{}, ErrProfileExists
			}
			return model.ProfileResponse{}, &ProfileExistsError{Profile: stored}
		case errors.Is(err, repository.ErrUserNotFound):
			return model.ProfileResponse{}, ErrNotFound
		default:
			return model.ProfileResponse{}, err
		}
	}

	return model.ProfileResponse{Profile: profile}, nil
}
