package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/nutritrack/nutritrack-go/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_UniqueEmail(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, &model.User{ID: "u-1", Email: "a@b.com"}))
	err := s.Create(ctx, &model.User{ID: "u-2", Email: "a@b.com"})
	assert.ErrorIs(t, err, ErrDuplicateEmail)

	u, err := s.GetByEmail(ctx, "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, "u-1", u.ID)

	_, err = s.GetByID(ctx, "u-2")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestMemoryStore_ConcurrentSignupsOneWins(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs <- s.Create(ctx, &model.User{ID: string(rune('a' + i)), Email: "race@b.com"})
		}(i)
	}
	wg.Wait()
	close(errs)

	var ok int
	for err := range errs {
		if err == nil {
			ok++
		} else {
			assert.ErrorIs(t, err, ErrDuplicateEmail)
		}
	}
	assert.Equal(t, 1, ok)
}

func TestMemoryProfiles_WriteOnce(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.Create(ctx, &model.User{ID: "u-1", Email: "a@b.com"}))
	profiles := s.Profiles()

	p, err := profiles.Get(ctx, "u-1")
	require.NoError(t, err)
	assert.True(t, p.IsEmpty())

	first := model.ProfileRequest{Age: 30, Weight: 70, Height: 180, Gender: "Male", Goal: "Gain Muscle"}.ToProfile()
	second := model.ProfileRequest{Age: 99, Weight: 99, Height: 99, Gender: "Other", Goal: "Lose Weight"}.ToProfile()

	require.NoError(t, profiles.Create(ctx, "u-1", first, time.Now()))
	assert.ErrorIs(t, profiles.Create(ctx, "u-1", second, time.Now()), ErrProfileExists)

	p, err = profiles.Get(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, 30, *p.Age)
	assert.Equal(t, "Gain Muscle", *p.Goal)

	assert.ErrorIs(t, profiles.Create(ctx, "ghost", first, time.Now()), ErrUserNotFound)
	_, err = profiles.Get(ctx, "ghost")
	assert.ErrorIs(t, err, ErrUserNotFound)
}
