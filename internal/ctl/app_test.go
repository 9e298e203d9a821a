package ctl

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/dmitrijs2005/trustkeeper/internal/common"
	"github.com/dmitrijs2005/trustkeeper/internal/server/passwords"
	"github.com/dmitrijs2005/trustkeeper/internal/server/truststore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func stubPasswords(t *testing.T, entries ...string) {
	t.Helper()
	orig := readPassword
	i := 0
	readPassword = func(int) ([]byte, error) {
		if i >= len(entries) {
			return nil, errors.New("no more input")
		}
		pw := []byte(entries[i])
		i++
		return pw, nil
	}
	t.Cleanup(func() { readPassword = orig })
}

func newTestApp(t *testing.T) (*App, *truststore.MemoryStore, *bytes.Buffer, *int) {
	t.Helper()
	store := truststore.NewMemoryStore(nil)
	migrations := 0
	out := &bytes.Buffer{}
	app := NewApp(store, func(context.Context) error { migrations++; return nil },
		passwords.NewBcryptHasher(bcrypt.MinCost), out)
	return app, store, out, &migrations
}

func TestRun_Usage(t *testing.T) {
	app, _, out, _ := newTestApp(t)

	require.ErrorIs(t, app.Run(context.Background(), nil), errUsage)
	assert.Contains(t, out.String(), "usage: trustctl")

	require.ErrorIs(t, app.Run(context.Background(), []string{"trust-ip", "only-one"}), errUsage)
	require.NoError(t, app.Run(context.Background(), []string{"help"}))
}

func TestRun_Migrate(t *testing.T) {
	app, _, out, migrations := newTestApp(t)

	require.NoError(t, app.Run(context.Background(), []string{"migrate"}))
	assert.Equal(t, 1, *migrations)
	assert.Contains(t, out.String(), "migrations applied")
}

func TestRun_CreateSuperuser(t *testing.T) {
	ctx := context.Background()
	app, store, out, _ := newTestApp(t)
	stubPasswords(t, "hunter22", "hunter22")

	require.NoError(t, app.Run(ctx, []string{"create-superuser", "Root@Example.com"}))
	assert.Contains(t, out.String(), "created root@example.com")

	user, err := store.FindUserByEmail(ctx, "root@example.com")
	require.NoError(t, err)
	assert.True(t, user.IsAdmin)
	assert.True(t, user.IsSuperuser)

	verified, err := store.HasVerifiedEmail(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, verified)

	known, err := store.HasDomain(ctx, user.ID, common.DefaultDomain)
	require.NoError(t, err)
	assert.True(t, known)

	stubPasswords(t, "x", "x")
	require.ErrorIs(t, app.Run(ctx, []string{"create-admin", "root@example.com"}), common.ErrDuplicateEmail)
}

func TestRun_CreateAdmin_PasswordProblems(t *testing.T) {
	ctx := context.Background()

	t.Run("mismatch", func(t *testing.T) {
		app, _, _, _ := newTestApp(t)
		stubPasswords(t, "one", "two")
		require.ErrorIs(t, app.Run(ctx, []string{"create-admin", "a@example.com"}), errPasswordMismatch)
	})

	t.Run("empty", func(t *testing.T) {
		app, _, _, _ := newTestApp(t)
		stubPasswords(t, "", "")
		require.ErrorIs(t, app.Run(ctx, []string{"create-admin", "a@example.com"}), common.ErrInvalidArgument)
	})

	t.Run("terminal error", func(t *testing.T) {
		app, _, _, _ := newTestApp(t)
		stubPasswords(t)
		require.Error(t, app.Run(ctx, []string{"create-admin", "a@example.com"}))
	})
}

func TestRun_TrustShowDelete(t *testing.T) {
	ctx := context.Background()
	app, store, out, _ := newTestApp(t)
	stubPasswords(t, "pw", "pw")
	require.NoError(t, app.Run(ctx, []string{"create-admin", "ops@example.com"}))

	require.NoError(t, app.Run(ctx, []string{"trust-ip", "ops@example.com", "10.0.0.7:443"}))
	assert.Contains(t, out.String(), "trusted 10.0.0.7 for ops@example.com")

	require.NoError(t, app.Run(ctx, []string{"trust-ip", "ops@example.com", "10.0.0.7"}))
	assert.Contains(t, out.String(), "already trusted")

	require.ErrorIs(t, app.Run(ctx, []string{"trust-ip", "ops@example.com", "nope"}), common.ErrInvalidArgument)

	out.Reset()
	require.NoError(t, app.Run(ctx, []string{"show-user", "ops@example.com"}))
	assert.Contains(t, out.String(), "admin:     true")
	assert.Contains(t, out.String(), "10.0.0.7")

	require.NoError(t, app.Run(ctx, []string{"delete-user", "ops@example.com"}))
	_, err := store.FindUserByEmail(ctx, "ops@example.com")
	require.ErrorIs(t, err, common.ErrUserNotFound)

	require.ErrorIs(t, app.Run(ctx, []string{"delete-user", "ops@example.com"}), common.ErrUserNotFound)
}
