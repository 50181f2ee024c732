package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sufield/wabbit/internal/core/ports"
	"github.com/sufield/wabbit/internal/factory"
)

// startRuntime loads configuration, builds the plugin host and starts it.
// The returned stop function must be called once the command is done.
func (o *globalOptions) startRuntime(cmd *cobra.Command) (*factory.Runtime, *ports.Configuration, func() error, error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := o.loadConfiguration(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	logger, err := o.logger(cmd, cfg)
	if err != nil {
		return nil, nil, nil, err
	}

	rt, err := factory.NewRuntime(ctx, cfg, factory.Options{Logger: logger})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%w: %v", ErrConfig, err)
	}
	if err := rt.Host.Start(ctx); err != nil {
		return nil, nil, nil, fmt.Errorf("%w: failed to start plugins: %v", ErrRuntime, err)
	}

	stop := func() error {
		if err := rt.Host.Stop(ctx); err != nil {
			return fmt.Errorf("%w: failed to stop plugins: %v", ErrRuntime, err)
		}
		return nil
	}
	return rt, cfg, stop, nil
}
