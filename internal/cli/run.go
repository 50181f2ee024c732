package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sufield/wabbit/internal/shutdown"
)

func newRunCmd(opts *globalOptions) *cobra.Command {
	var grace time.Duration

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the configured plugins and keep them running until interrupted",
		Long: `Start every configured plugin, register it with the management plugin and
block until the process receives SIGINT or SIGTERM. Plugins are then
deregistered and stopped within the grace period.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, cfg, stop, err := opts.startRuntime(cmd)
			if err != nil {
				return err
			}

			logger, err := opts.logger(cmd, cfg)
			if err != nil {
				_ = stop()
				return err
			}
			coordinator := shutdown.NewCoordinator(&shutdown.Config{GracePeriod: grace, Logger: logger})
			coordinator.Register("plugin host", func(context.Context) error { return stop() })

			fmt.Fprintf(cmd.OutOrStdout(), "Running %d plugin(s) under management domain %s\n", rt.Host.Len(), cfg.Management.Domain)

			<-cmd.Context().Done()
			if err := coordinator.Shutdown(context.Background()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Stopped")
			return nil
		},
	}

	cmd.Flags().DurationVar(&grace, "grace-period", shutdown.DefaultGracePeriod, "Maximum time to wait for plugins to stop")
	return cmd
}
