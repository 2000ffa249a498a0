package repository

import (
	"context"
	"sync"
	"time"

	"github.com/nutritrack/nutritrack-go/internal/model"
)

// MemoryStore keeps users in process memory. It gives the same uniqueness and
// write-once guarantees as the MySQL repositories and is meant for local
// development and tests; nothing survives a restart.
type MemoryStore struct {
	mu      sync.RWMutex
	byID    map[string]*model.User
	byEmail map[string]string
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:    make(map[string]*model.User),
		byEmail: make(map[string]string),
	}
}

// Create stores a copy of user, rejecting a duplicate email.
func (s *MemoryStore) Create(_ context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byEmail[user.Email]; exists {
		return ErrDuplicateEmail
	}

	u := *user
	s.byID[u.ID] = &u
	s.byEmail[u.Email] = u.ID
	return nil
}

// GetByEmail retrieves a copy of the user with the given email.
func (s *MemoryStore) GetByEmail(_ context.Context, email string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[email]
	if !ok {
		return nil, ErrUserNotFound
	}
	u := *s.byID[id]
	return &u, nil
}

// GetByID retrieves a copy of the user with the given ID.
func (s *MemoryStore) GetByID(_ context.Context, id string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.byID[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	c := *u
	return &c, nil
}

// Profiles returns a view of the store with the profile method set.
func (s *MemoryStore) Profiles() *MemoryProfiles {
	return &MemoryProfiles{s: s}
}

// MemoryProfiles is the profile side of a MemoryStore.
type MemoryProfiles struct {
	s *MemoryStore
}

// Get retrieves the profile of a user.
func (m *MemoryProfiles) Get(ctx context.Context, userID string) (model.Profile, error) {
	u, err := m.s.GetByID(ctx, userID)
	if err != nil {
		return model.Profile{}, err
	}
	return u.Profile, nil
}

// Create writes a complete profile while the stored one is still empty.
// The check and the write happen under the same lock.
func (m *MemoryProfiles) Create(_ context.Context, userID string, p model.Profile, at time.Time) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	u, ok := m.s.byID[userID]
	if !ok {
		return ErrUserNotFound
	}
	if !u.Profile.IsEmpty() {
		return ErrProfileExists
	}

	u.Profile = p
	u.UpdatedAt = at
	return nil
}
