package ports

import (
	"context"
	"fmt"

	"github.com/sufield/wabbit/internal/core/domain"
	"github.com/sufield/wabbit/internal/core/errors"
)

// DefaultManagementDomain is the domain plugins are registered under.
const DefaultManagementDomain = "wabbit"

// Configuration is the complete host configuration.
type Configuration struct {
	Management ManagementConfig `mapstructure:"management" yaml:"management"`
	Logging    LoggingConfig    `mapstructure:"logging" yaml:"logging"`
	Plugins    []PluginConfig   `mapstructure:"plugins" yaml:"plugins" validate:"dive"`
}

// ManagementConfig controls how plugins are exposed for management.
type ManagementConfig struct {
	Domain string `mapstructure:"domain" yaml:"domain" validate:"required,excludesall=:=0x2C"`
}

// LoggingConfig selects the log level and output format.
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	Format string `mapstructure:"format" yaml:"format" validate:"omitempty,oneof=text json"`
}

// Validate checks field rules and that plugin ids are present and unique.
func (c *Configuration) Validate() error {
	if c == nil {
		return &errors.ValidationError{
			Field:   "configuration",
			Value:   nil,
			Message: "configuration cannot be nil",
		}
	}

	if err := domain.ValidateStruct(c); err != nil {
		return err
	}

	seen := make(map[string]struct{}, len(c.Plugins))
	for i, p := range c.Plugins {
		if p.ID.IsZero() {
			return &errors.ValidationError{
				Field:   fmt.Sprintf("plugins[%d].id", i),
				Value:   "",
				Message: "plugin id is required",
			}
		}
		if _, dup := seen[p.ID.Key()]; dup {
			return &errors.ValidationError{
				Field:   fmt.Sprintf("plugins[%d].id", i),
				Value:   p.ID.String(),
				Message: "plugin id is not unique",
			}
		}
		seen[p.ID.Key()] = struct{}{}
	}
	return nil
}

// PluginsOfKind returns the plugin configs with the given kind, in order.
func (c *Configuration) PluginsOfKind(kind string) []PluginConfig {
	var out []PluginConfig
	for _, p := range c.Plugins {
		if p.Kind == kind {
			out = append(out, p)
		}
	}
	return out
}

// ConfigurationProvider loads host configuration.
type ConfigurationProvider interface {
	LoadConfiguration(ctx context.Context, path string) (*Configuration, error)
	GetDefaultConfiguration(ctx context.Context) *Configuration
}
