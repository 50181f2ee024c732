// Package config loads host configuration from YAML files and the environment.
package config

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/sufield/wabbit/internal/core/domain"
	"github.com/sufield/wabbit/internal/core/errors"
	"github.com/sufield/wabbit/internal/core/ports"
)

// EnvPrefix prefixes environment overrides, e.g. WABBIT_LOGGING_LEVEL=debug.
const EnvPrefix = "WABBIT"

// Default plugin ids used by GetDefaultConfiguration.
var (
	DefaultAuthPluginID       = domain.MustNameParams("auth", "memory")
	DefaultManagementPluginID = domain.MustNameParams("management")
)

// FileProvider provides configs from files.
type FileProvider struct{}

var _ ports.ConfigurationProvider = (*FileProvider)(nil)

// NewFileProvider creates provider.
func NewFileProvider() *FileProvider {
	return &FileProvider{}
}

// DecodeHook is the mapstructure hook chain used for configuration and
// plugin settings.
func DecodeHook() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		domain.NameParamsDecodeHook(),
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)
}

// LoadConfiguration reads the YAML file at path, applies WABBIT_ environment
// overrides and defaults, and validates the result.
func (p *FileProvider) LoadConfiguration(ctx context.Context, path string) (*ports.Configuration, error) {
	if strings.TrimSpace(path) == "" {
		return nil, &errors.ValidationError{
			Field:   "path",
			Value:   path,
			Message: "configuration file path cannot be empty or whitespace",
		}
	}

	absPath, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config file path: %w", err)
	}

	if ctx != nil {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("configuration loading canceled: %w", ctx.Err())
		default:
		}
	}

	v := p.newViper()
	v.SetConfigFile(absPath)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg ports.Configuration
	if err := v.Unmarshal(&cfg, viper.DecodeHook(DecodeHook())); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration in file %s: %w", path, err)
	}

	return &cfg, nil
}

func (p *FileProvider) newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("management.domain", ports.DefaultManagementDomain)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	return v
}

// GetDefaultConfiguration returns a configuration hosting the in-memory
// management registry and an in-memory auth backend with an admin role and
// no accounts.
func (p *FileProvider) GetDefaultConfiguration(_ context.Context) *ports.Configuration {
	return &ports.Configuration{
		Management: ports.ManagementConfig{Domain: ports.DefaultManagementDomain},
		Logging:    ports.LoggingConfig{Level: "info", Format: "text"},
		Plugins: []ports.PluginConfig{
			{
				ID:   DefaultManagementPluginID,
				Kind: ports.KindManagement,
			},
			{
				ID:   DefaultAuthPluginID,
				Kind: ports.KindAuth,
				Settings: map[string]any{
					"session_ttl": "30m",
					"permissions": map[string]any{
						"admin": []any{"*:*"},
					},
				},
			},
		},
	}
}
