// Package authplugin provides a contract test suite for AuthPlugin
// implementations.
package authplugin

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sufield/wabbit/internal/core/domain"
	"github.com/sufield/wabbit/internal/core/errors"
	"github.com/sufield/wabbit/internal/core/ports"
)

// Role is the role the fixture must grant Allowed to.
const Role = "contract-admin"

// Fixture is a started plugin under test.
type Fixture[A, X any] struct {
	Plugin ports.AuthPlugin[A, X]
	// Allowed is granted to Role; Denied is granted to nobody.
	Allowed X
	Denied  X
}

// Factory creates a started plugin; cleanup is the caller's job via t.Cleanup.
type Factory[A, X any] func(t *testing.T) Fixture[A, X]

// Run executes the complete contract test suite.
func Run[A, X any](t *testing.T, newImpl Factory[A, X]) {
	ctx := context.Background()

	add := func(t *testing.T, p ports.AuthPlugin[A, X], login string, opts ...func(*domain.AccountOptions)) A {
		t.Helper()
		o := domain.AccountOptions{Login: login, Password: login + "-password", Roles: []string{Role}}
		for _, fn := range opts {
			fn(&o)
		}
		acct, err := p.AddAccount(ctx, o)
		require.NoError(t, err)
		return acct
	}

	t.Run("login with valid password", func(t *testing.T) {
		f := newImpl(t)
		add(t, f.Plugin, "alice")

		acct, err := f.Plugin.Login(ctx, domain.PasswordCredentials{Login: "alice", Password: "alice-password"})
		require.NoError(t, err)

		roles, err := f.Plugin.Roles(ctx, acct)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{Role}, roles)
	})

	t.Run("bad credentials are authentication errors", func(t *testing.T) {
		f := newImpl(t)
		add(t, f.Plugin, "alice")

		for _, creds := range []domain.Credentials{
			domain.PasswordCredentials{Login: "alice", Password: "wrong-password"},
			domain.PasswordCredentials{Login: "nobody", Password: "whatever-pass"},
			domain.TokenCredentials{Token: "not-a-session"},
		} {
			_, err := f.Plugin.Login(ctx, creds)
			require.Error(t, err, "%s", creds)
			assert.True(t, errors.IsAuthFailure(err), "%s: %v", creds, err)
			assert.False(t, errors.IsExpired(err), "%s: %v", creds, err)
		}
	})

	t.Run("expired password is an expired authentication error", func(t *testing.T) {
		f := newImpl(t)
		add(t, f.Plugin, "old", func(o *domain.AccountOptions) {
			o.PasswordExpiresAt = time.Now().Add(-time.Hour)
		})

		_, err := f.Plugin.Login(ctx, domain.PasswordCredentials{Login: "old", Password: "old-password"})
		require.Error(t, err)
		assert.True(t, errors.IsExpired(err))
		assert.True(t, errors.IsAuthFailure(err), "expired errors are authentication errors")
	})

	t.Run("check action", func(t *testing.T) {
		f := newImpl(t)
		add(t, f.Plugin, "alice")
		acct, err := f.Plugin.Login(ctx, domain.PasswordCredentials{Login: "alice", Password: "alice-password"})
		require.NoError(t, err)

		assert.NoError(t, f.Plugin.CheckAction(ctx, acct, f.Allowed))
		err = f.Plugin.CheckAction(ctx, acct, f.Denied)
		require.Error(t, err)
		assert.True(t, errors.IsAuthFailure(err))
	})

	t.Run("duplicate account", func(t *testing.T) {
		f := newImpl(t)
		add(t, f.Plugin, "alice")

		_, err := f.Plugin.AddAccount(ctx, domain.AccountOptions{Login: "alice", Password: "another-password"})
		assert.ErrorIs(t, err, errors.ErrAccountExists)
	})

	t.Run("invalid account options", func(t *testing.T) {
		f := newImpl(t)
		_, err := f.Plugin.AddAccount(ctx, domain.AccountOptions{Login: "", Password: "long-enough"})
		assert.ErrorIs(t, err, errors.ErrInvalidArgument)
	})

	t.Run("has account", func(t *testing.T) {
		f := newImpl(t)
		add(t, f.Plugin, "alice")

		found, err := f.Plugin.HasAccount(ctx, domain.AccountQuery{Login: "alice"})
		require.NoError(t, err)
		assert.True(t, found)

		found, err = f.Plugin.HasAccount(ctx, domain.AccountQuery{Login: "nobody"})
		require.NoError(t, err, "a query that matches nothing is not an error")
		assert.False(t, found)

		_, err = f.Plugin.HasAccount(ctx, domain.AccountQuery{})
		assert.Error(t, err, "a query without criteria is malformed")
	})

	t.Run("accounts", func(t *testing.T) {
		f := newImpl(t)
		for _, login := range []string{"svc-b", "svc-a", "human"} {
			add(t, f.Plugin, login)
		}

		accts, err := f.Plugin.Accounts(ctx, domain.AccountQuery{Login: "svc-*"})
		require.NoError(t, err)
		assert.Len(t, accts, 2)

		accts, err = f.Plugin.Accounts(ctx, domain.AccountQuery{Role: Role})
		require.NoError(t, err)
		assert.Len(t, accts, 3)
	})

	t.Run("concurrent add and login", func(t *testing.T) {
		f := newImpl(t)
		add(t, f.Plugin, "seed")

		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(2)
			go func(i int) {
				defer wg.Done()
				_, err := f.Plugin.AddAccount(ctx, domain.AccountOptions{
					Login:    fmt.Sprintf("user-%d", i),
					Password: "concurrent-password",
				})
				assert.NoError(t, err)
			}(i)
			go func() {
				defer wg.Done()
				_, err := f.Plugin.Login(ctx, domain.PasswordCredentials{Login: "seed", Password: "seed-password"})
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		accts, err := f.Plugin.Accounts(ctx, domain.AccountQuery{Login: "user-*"})
		require.NoError(t, err)
		assert.Len(t, accts, 8)
	})
}
