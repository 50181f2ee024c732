package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/sufield/wabbit/internal/adapters/logging"
	"github.com/sufield/wabbit/internal/adapters/secondary/config"
	"github.com/sufield/wabbit/internal/core/ports"
)

// globalOptions holds the persistent flags shared by every subcommand.
type globalOptions struct {
	configPath string
	logLevel   string
	logFormat  string
}

// NewRootCommand builds the wabbit command tree.
func NewRootCommand() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:   "wabbit",
		Short: "Plugin host for authentication and management plugins",
		Long: `Plugin host for authentication and management plugins.

Wabbit loads plugins identified by name and parameters, drives their lifecycle
and exposes each of them through a management registry. Use this CLI to check
configuration, inspect the registered plugins and try out credentials.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Path to the YAML configuration file (built-in defaults when empty)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level override: debug, info, warn or error")
	root.PersistentFlags().StringVar(&opts.logFormat, "log-format", "", "Log format override: text or json")

	root.AddCommand(
		newValidateCmd(opts),
		newInspectCmd(opts),
		newLoginCmd(opts),
		newRunCmd(opts),
		newVersionCmd(),
		newManCmd(),
	)
	return root
}

// Execute runs the root command with os.Args.
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

// loadConfiguration reads --config, or the built-in defaults without it,
// and applies the logging flag overrides.
func (o *globalOptions) loadConfiguration(ctx context.Context) (*ports.Configuration, error) {
	provider := config.NewFileProvider()

	var cfg *ports.Configuration
	if o.configPath == "" {
		cfg = provider.GetDefaultConfiguration(ctx)
	} else {
		loaded, err := provider.LoadConfiguration(ctx, o.configPath)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrConfig, err)
		}
		cfg = loaded
	}

	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
	}
	if o.logFormat != "" {
		cfg.Logging.Format = o.logFormat
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUsage, err)
	}
	return cfg, nil
}

// logger builds the redacting logger for cmd's error stream.
func (o *globalOptions) logger(cmd *cobra.Command, cfg *ports.Configuration) (*slog.Logger, error) {
	handler, err := logging.NewHandler(cmd.ErrOrStderr(), cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfig, err)
	}
	return slog.New(handler), nil
}
