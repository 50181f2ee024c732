package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sufield/wabbit/internal/buildinfo"
)

func newVersionCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  "Display detailed version and build information for the wabbit CLI.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := buildinfo.Get()
			out := cmd.OutOrStdout()

			switch format {
			case "json":
				encoder := json.NewEncoder(out)
				encoder.SetIndent("", "  ")
				if err := encoder.Encode(info); err != nil {
					return fmt.Errorf("%w: failed to encode version info as JSON: %v", ErrInternal, err)
				}
			case "text":
				fmt.Fprintf(out, "Version: %s\n", info.Version)
				fmt.Fprintf(out, "Commit: %s\n", info.CommitHash)
				fmt.Fprintf(out, "Build Time: %s\n", info.BuildTime)
				fmt.Fprintf(out, "Build User: %s\n", info.BuildUser)
				fmt.Fprintf(out, "Build Host: %s\n", info.BuildHost)
				fmt.Fprintf(out, "Go Version: %s\n", info.GoVersion)
				fmt.Fprintf(out, "OS/Arch: %s/%s\n", info.OS, info.Arch)
			default:
				return fmt.Errorf("%w: unsupported format %q, use 'text' or 'json'", ErrUsage, format)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text or json")
	return cmd
}
