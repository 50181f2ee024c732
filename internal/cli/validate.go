package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sufield/wabbit/internal/core/ports"
)

func newValidateCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate a configuration file",
		Long: `Load the configuration, check every field and plugin id, and bring the
plugins up once so that plugin settings are checked as well.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.configPath == "" {
				return fmt.Errorf("%w: --config is required", ErrUsage)
			}

			_, cfg, stop, err := opts.startRuntime(cmd)
			if err != nil {
				return err
			}
			if err := stop(); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Configuration %s is valid: %d auth plugin(s), %d management plugin(s)\n",
				opts.configPath,
				len(cfg.PluginsOfKind(ports.KindAuth)),
				len(cfg.PluginsOfKind(ports.KindManagement)))
			return nil
		},
	}
}
