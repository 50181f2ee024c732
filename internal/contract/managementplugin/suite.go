// Package managementplugin provides a contract test suite for
// ManagementPlugin implementations.
package managementplugin

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sufield/wabbit/internal/core/errors"
	"github.com/sufield/wabbit/internal/core/ports"
)

// Factory creates a started plugin; cleanup is the caller's job via t.Cleanup.
type Factory func(t *testing.T) ports.ManagementPlugin

type target struct{ id int }

// Run executes the complete contract test suite.
func Run(t *testing.T, newImpl Factory) {
	ctx := context.Background()

	t.Run("reg returns a handle dereg accepts", func(t *testing.T) {
		m := newImpl(t)
		handle, err := m.Reg(ctx, &target{1}, "contract", "bean", map[string]string{"kind": "test"})
		require.NoError(t, err)
		assert.Equal(t, "contract", handle.Domain())
		name, ok := handle.Property("name")
		assert.True(t, ok)
		assert.Equal(t, "bean", name)

		assert.NoError(t, m.Dereg(ctx, handle))
	})

	t.Run("registering a taken name conflicts", func(t *testing.T) {
		m := newImpl(t)
		_, err := m.Reg(ctx, &target{1}, "contract", "bean", nil)
		require.NoError(t, err)

		_, err = m.Reg(ctx, &target{2}, "contract", "bean", nil)
		assert.ErrorIs(t, err, errors.ErrAlreadyRegistered)
	})

	t.Run("deregistering an unknown handle fails", func(t *testing.T) {
		m := newImpl(t)
		handle, err := m.Reg(ctx, &target{1}, "contract", "bean", nil)
		require.NoError(t, err)
		require.NoError(t, m.Dereg(ctx, handle))

		assert.ErrorIs(t, m.Dereg(ctx, handle), errors.ErrNotRegistered)
	})

	t.Run("invalid names are rejected", func(t *testing.T) {
		m := newImpl(t)
		_, err := m.Reg(ctx, &target{1}, "", "bean", nil)
		assert.ErrorIs(t, err, errors.ErrInvalidArgument)
		_, err = m.Reg(ctx, &target{1}, "contract", "", nil)
		assert.ErrorIs(t, err, errors.ErrInvalidArgument)
	})

	t.Run("reset releases every registration", func(t *testing.T) {
		m := newImpl(t)
		handle, err := m.Reg(ctx, &target{1}, "contract", "bean", nil)
		require.NoError(t, err)

		require.NoError(t, m.Reset(ctx))
		assert.ErrorIs(t, m.Dereg(ctx, handle), errors.ErrNotRegistered)

		_, err = m.Reg(ctx, &target{1}, "contract", "bean", nil)
		assert.NoError(t, err)
	})
}
