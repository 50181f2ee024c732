// Package configurationprovider provides a contract test suite for
// ConfigurationProvider implementations.
package configurationprovider

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sufield/wabbit/internal/core/domain"
	"github.com/sufield/wabbit/internal/core/ports"
)

// Factory creates a new ConfigurationProvider implementation for testing.
type Factory func(t *testing.T) ports.ConfigurationProvider

// TestPaths provides test paths for configuration testing.
type TestPaths struct {
	ValidPath   string
	InvalidPath string
}

// Run executes the complete contract test suite against any ConfigurationProvider implementation.
func Run(t *testing.T, newImpl Factory, paths TestPaths) {
	ctx := context.Background()

	t.Run("load valid configuration", func(t *testing.T) {
		config, err := newImpl(t).LoadConfiguration(ctx, paths.ValidPath)
		require.NoError(t, err)
		require.NotNil(t, config)

		assert.NotEmpty(t, config.Management.Domain)
		assert.NoError(t, config.Validate(), "loaded configuration should be valid")
	})

	t.Run("load invalid configuration", func(t *testing.T) {
		config, err := newImpl(t).LoadConfiguration(ctx, paths.InvalidPath)
		assert.Error(t, err)
		assert.Nil(t, config, "LoadConfiguration should return nil config on error")
	})

	t.Run("default configuration is valid", func(t *testing.T) {
		config := newImpl(t).GetDefaultConfiguration(ctx)
		require.NotNil(t, config)
		require.NoError(t, config.Validate())
		assert.NotEmpty(t, config.Plugins)
	})

	t.Run("empty and whitespace paths rejected", func(t *testing.T) {
		provider := newImpl(t)
		for _, p := range []string{"", "   "} {
			_, err := provider.LoadConfiguration(ctx, p)
			assert.Error(t, err, "path %q", p)
		}
	})

	t.Run("validation edge cases", func(t *testing.T) {
		base := newImpl(t).GetDefaultConfiguration(ctx)
		require.NotNil(t, base)

		testCases := []struct {
			name   string
			modify func(c ports.Configuration) ports.Configuration
		}{
			{
				name: "empty management domain",
				modify: func(c ports.Configuration) ports.Configuration {
					c.Management.Domain = ""
					return c
				},
			},
			{
				name: "management domain with separator",
				modify: func(c ports.Configuration) ports.Configuration {
					c.Management.Domain = "a,b"
					return c
				},
			},
			{
				name: "duplicate plugin id",
				modify: func(c ports.Configuration) ports.Configuration {
					c.Plugins = append(append([]ports.PluginConfig(nil), c.Plugins...), c.Plugins[0])
					return c
				},
			},
			{
				name: "plugin without id",
				modify: func(c ports.Configuration) ports.Configuration {
					c.Plugins = []ports.PluginConfig{{Kind: ports.KindAuth}}
					return c
				},
			},
			{
				name: "unknown plugin kind",
				modify: func(c ports.Configuration) ports.Configuration {
					c.Plugins = []ports.PluginConfig{{ID: domain.MustNameParams("x"), Kind: "queue"}}
					return c
				},
			},
		}

		for _, tc := range testCases {
			t.Run(tc.name, func(t *testing.T) {
				modified := tc.modify(*base)
				assert.Error(t, modified.Validate())
			})
		}
	})
}
