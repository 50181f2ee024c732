// Package ports defines the capability contracts plugins implement and the
// host consumes.
package ports

import (
	"context"

	"github.com/sufield/wabbit/internal/core/domain"
)

// Plugin kinds understood by the host.
const (
	KindAuth       = "auth"
	KindManagement = "management"
)

// PluginConfig is the per-instance configuration handed to Configure.
// Settings are decoded by the plugin itself.
type PluginConfig struct {
	ID       domain.NameParams `mapstructure:"id" yaml:"id" validate:"name_params"`
	Kind     string            `mapstructure:"kind" yaml:"kind" validate:"required,oneof=auth management"`
	Settings map[string]any    `mapstructure:"settings" yaml:"settings,omitempty"`
}

// Pluggable is the lifecycle every plugin participates in. The host calls
// Configure once, then Start, and finally Stop.
type Pluggable interface {
	Configure(ctx context.Context, cfg PluginConfig) error
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// Resetable components can be returned to a clean, empty state.
type Resetable interface {
	Reset(ctx context.Context) error
}

// MessageHandler is implemented by plugins that accept messages routed by the host.
type MessageHandler interface {
	Handle(ctx context.Context, msg PlugMessage) error
}
