package truststore

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/trustkeeper/internal/common"
	"github.com/dmitrijs2005/trustkeeper/internal/server/models"
	"github.com/dmitrijs2005/trustkeeper/internal/timex"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMemory(t *testing.T) (*MemoryStore, *models.User) {
	t.Helper()
	s := NewMemoryStore(timex.NewManualClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))
	u, err := s.CreateUser(context.Background(), &models.User{Email: "A@x.com", PasswordHash: "h"}, "d1", "1.1.1.1")
	require.NoError(t, err)
	return s, u
}

func TestMemoryStore_CreateAndFind(t *testing.T) {
	s, u := newMemory(t)
	ctx := context.Background()

	assert.NotEmpty(t, u.ID)
	assert.Equal(t, "a@x.com", u.Email)

	byEmail, err := s.FindUserByEmail(ctx, "a@X.COM")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)

	byID, err := s.FindUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", byID.Email)

	_, err = s.FindUserByEmail(ctx, "nobody@x.com")
	assert.ErrorIs(t, err, common.ErrUserNotFound)
}

func TestMemoryStore_DuplicateEmail(t *testing.T) {
	s, _ := newMemory(t)

	_, err := s.CreateUser(context.Background(), &models.User{Email: "a@x.com"}, "d2", "2.2.2.2")
	assert.ErrorIs(t, err, common.ErrDuplicateEmail)
}

func TestMemoryStore_BootstrapTrust(t *testing.T) {
	s, u := newMemory(t)
	ctx := context.Background()

	ok, err := s.HasDomain(ctx, u.ID, "d1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.HasDomain(ctx, u.ID, "d2")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = s.HasIP(ctx, u.ID, "1.1.1.1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.HasVerifiedEmail(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStore_AddDomainIdempotent(t *testing.T) {
	s, u := newMemory(t)
	ctx := context.Background()

	added, err := s.AddDomain(ctx, u.ID, "d2")
	require.NoError(t, err)
	assert.True(t, added)

	added, err = s.AddDomain(ctx, u.ID, "D2/")
	require.NoError(t, err)
	assert.False(t, added)

	_, err = s.AddDomain(ctx, "missing", "d2")
	assert.ErrorIs(t, err, common.ErrUserNotFound)
}

func TestMemoryStore_ConcurrentAddDomain_OneWinner(t *testing.T) {
	s, u := newMemory(t)

	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			added, err := s.AddDomain(context.Background(), u.ID, "d-race")
			if err == nil && added {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
}

func TestMemoryStore_ConcurrentCreate_OneUser(t *testing.T) {
	s := NewMemoryStore(nil)

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.CreateUser(context.Background(), &models.User{Email: "race@x.com"}, "d1", "1.1.1.1")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	created := 0
	for err := range errs {
		if err == nil {
			created++
		} else {
			assert.True(t, errors.Is(err, common.ErrDuplicateEmail))
		}
	}
	assert.Equal(t, 1, created)
}

func TestMemoryStore_IPs(t *testing.T) {
	s, u := newMemory(t)
	ctx := context.Background()

	added, err := s.AddIP(ctx, u.ID, "2.2.2.2:80")
	require.NoError(t, err)
	assert.True(t, added)

	ok, err := s.HasIP(ctx, u.ID, "2.2.2.2")
	require.NoError(t, err)
	assert.True(t, ok)

	removed, err := s.RemoveIP(ctx, u.ID, "2.2.2.2")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = s.RemoveIP(ctx, u.ID, "2.2.2.2")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestMemoryStore_VerifiedEmailAndFacts(t *testing.T) {
	s, u := newMemory(t)
	ctx := context.Background()

	require.NoError(t, s.AddVerifiedEmail(ctx, u.ID, "a@x.com"))
	require.NoError(t, s.AddVerifiedEmail(ctx, u.ID, "A@x.com"))

	facts, err := s.LoadFacts(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"d1"}, facts.Domains)
	assert.Equal(t, []string{"1.1.1.1"}, facts.IPs)
	assert.Equal(t, []string{"a@x.com"}, facts.VerifiedEmails)
}

func TestMemoryStore_DeleteCascades(t *testing.T) {
	s, u := newMemory(t)
	ctx := context.Background()

	require.NoError(t, s.DeleteUser(ctx, u.ID))

	_, err := s.FindUserByID(ctx, u.ID)
	assert.ErrorIs(t, err, common.ErrUserNotFound)

	facts, err := s.LoadFacts(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, facts.Domains)
	assert.Empty(t, facts.IPs)

	assert.ErrorIs(t, s.DeleteUser(ctx, u.ID), common.ErrUserNotFound)

	// the email is free again
	_, err = s.CreateUser(ctx, &models.User{Email: "a@x.com"}, "d1", "1.1.1.1")
	require.NoError(t, err)
}

func TestMemoryStore_ProfileAndPassword(t *testing.T) {
	s, u := newMemory(t)
	ctx := context.Background()

	other, err := s.CreateUser(ctx, &models.User{Email: "b@x.com", Profile: models.Profile{PhoneNumber: "+1"}}, "d1", "1.1.1.1")
	require.NoError(t, err)

	_, err = s.UpdateProfile(ctx, u.ID, models.Profile{PhoneNumber: "+1"})
	assert.ErrorIs(t, err, common.ErrInvalidArgument)

	updated, err := s.UpdateProfile(ctx, u.ID, models.Profile{FirstName: "Ada", PhoneNumber: "+2"})
	require.NoError(t, err)
	assert.Equal(t, "Ada", updated.FirstName)

	_, err = s.UpdateProfile(ctx, other.ID, models.Profile{PhoneNumber: "+1"})
	require.NoError(t, err)

	require.NoError(t, s.UpdatePassword(ctx, u.ID, "h2"))
	got, err := s.FindUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "h2", got.PasswordHash)

	assert.ErrorIs(t, s.UpdatePassword(ctx, "missing", "h"), common.ErrUserNotFound)
}
