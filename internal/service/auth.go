package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nutritrack/nutritrack-go/internal/model"
	"github.com/nutritrack/nutritrack-go/internal/repository"
	"github.com/nutritrack/nutritrack-go/internal/validation"
)

// UserStore persists user records.
type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id string) (*model.User, error)
}

// PasswordHasher hashes and verifies passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, encodedHash string) (bool, error)
}

// TokenIssuer mints signed bearer tokens.
type TokenIssuer interface {
	Issue(userID, email string) (string, error)
}

// AuthService handles authentication business logic.
type AuthService struct {
	users     UserStore
	hasher    PasswordHasher
	tokens    TokenIssuer
	validator *validation.Validator
	now       func() time.Time

	// dummyHash is verified against when the email is unknown so that
	// sign-in takes about as long whether or not the account exists.
	dummyHash string
}

// NewAuthService creates a new AuthService.
func NewAuthService(users UserStore, hasher PasswordHasher, tokens TokenIssuer, v *validation.Validator) (*AuthService, error) {
	dummy, err := hasher.Hash(uuid.NewString())
	if err != nil {
		return nil, err
	}

	return &AuthService{
		users:     users,
		hasher:    hasher,
		tokens:    tokens,
		validator: v,
		now:       func() time.Time { return time.Now().UTC() },
		dummyHash: dummy,
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SignUp creates a new user account and returns an auth token.
func (s *AuthService) SignUp(ctx context.Context, req model.SignUpRequest) (model.AuthResponse, error) {
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	req.Email = normalizeEmail(req.Email)
	req.Password = strings.TrimSpace(req.Password)

	if err := validate(s.validator, req); err != nil {
		return model.AuthResponse{}, err
	}

	_, err := s.users.GetByEmail(ctx, req.Email)
	if err == nil {
		return model.AuthResponse{}, ErrDuplicateUser
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return model.AuthResponse{}, err
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return model.AuthResponse{}, err
	}

	now := s.now()
	user := &model.User{
		ID:           uuid.NewString(),
		Email:        req.Email,
		PasswordHash: hash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	// The unique index is the final arbiter when two signups race past the lookup.
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return model.AuthResponse{}, ErrDuplicateUser
		}
		return model.AuthResponse{}, err
	}

	return s.authResponse(user)
}

// SignIn authenticates a user and returns an auth token. An unknown email and
// a wrong password produce the same error.
func (s *AuthService) SignIn(ctx context.Context, req model.SignInRequest) (model.AuthResponse, error) {
	req.Email = normalizeEmail(req.Email)
	req.Password = strings.TrimSpace(req.Password)

	if err := validate(s.validator, req); err != nil {
		return model.AuthResponse{}, err
	}

	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			_, _ = s.hasher.Verify(req.Password, s.dummyHash)
			return model.AuthResponse{}, ErrInvalidCredentials
		}
		return model.AuthResponse{}, err
	}

	match, err := s.hasher.Verify(req.Password, user.PasswordHash)
	if err != nil {
		return model.AuthResponse{}, err
	}
	if !match {
		return model.AuthResponse{}, ErrInvalidCredentials
	}

	return s.authResponse(user)
}

// CurrentUser retrieves a user by ID and returns safe user data.
func (s *AuthService) CurrentUser(ctx context.Context, userID string) (model.UserResponse, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return model.UserResponse{}, ErrNotFound
		}
		return model.UserResponse{}, err
	}

	return user.ToResponse(), nil
}

func (s *AuthService) authResponse(user *model.User) (model.AuthResponse, error) {
	token, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return model.AuthResponse{}, err
	}

	return model.AuthResponse{
		User:  user.ToResponse(),
		Token: token,
	}, nil
}
