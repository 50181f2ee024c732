package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	yaml "gopkg.in/yaml.v3"
)

// PluginReport describes one hosted plugin.
type PluginReport struct {
	ID         string   `json:"id" yaml:"id"`
	Name       string   `json:"name" yaml:"name"`
	Params     []string `json:"params" yaml:"params"`
	Kind       string   `json:"kind" yaml:"kind"`
	Hash       int32    `json:"hash" yaml:"hash"`
	ObjectName string   `json:"object_name,omitempty" yaml:"object_name,omitempty"`
}

// InspectReport is what the inspect command prints.
type InspectReport struct {
	Domain        string         `json:"domain" yaml:"domain"`
	Plugins       []PluginReport `json:"plugins" yaml:"plugins"`
	Registrations []string       `json:"registrations" yaml:"registrations"`
}

func newInspectCmd(opts *globalOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Start the configured plugins and show how they are registered",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := checkFormat(format, "text", "json", "yaml"); err != nil {
				return err
			}

			rt, cfg, stop, err := opts.startRuntime(cmd)
			if err != nil {
				return err
			}

			kinds := make(map[string]string, len(cfg.Plugins))
			for _, p := range cfg.Plugins {
				kinds[p.ID.Key()] = p.Kind
			}

			report := InspectReport{Domain: cfg.Management.Domain, Registrations: []string{}}
			for _, id := range rt.Host.IDs() {
				pr := PluginReport{
					ID:     id.String(),
					Name:   id.Name(),
					Params: id.Params(),
					Kind:   kinds[id.Key()],
					Hash:   id.HashCode(),
				}
				if on, ok := rt.Host.ObjectName(id); ok {
					pr.ObjectName = on.String()
				}
				report.Plugins = append(report.Plugins, pr)
			}
			if rt.Management != nil {
				for _, on := range rt.Management.Names() {
					report.Registrations = append(report.Registrations, on.String())
				}
			}

			if err := stop(); err != nil {
				return err
			}
			return writeReport(cmd.OutOrStdout(), format, report)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text, json or yaml")
	return cmd
}

func writeReport(w io.Writer, format string, report InspectReport) error {
	switch format {
	case "json":
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(report); err != nil {
			return fmt.Errorf("%w: failed to encode report as JSON: %v", ErrInternal, err)
		}
	case "yaml":
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(report); err != nil {
			return fmt.Errorf("%w: failed to encode report as YAML: %v", ErrInternal, err)
		}
		if err := encoder.Close(); err != nil {
			return fmt.Errorf("%w: failed to encode report as YAML: %v", ErrInternal, err)
		}
	default:
		fmt.Fprintf(w, "Management domain: %s\n", report.Domain)
		fmt.Fprintf(w, "Plugins (%d):\n", len(report.Plugins))
		for _, p := range report.Plugins {
			registered := p.ObjectName
			if registered == "" {
				registered = "-"
			}
			fmt.Fprintf(w, "  %-24s kind=%-10s hash=%-11d %s\n", p.ID, p.Kind, p.Hash, registered)
		}
	}
	return nil
}

func checkFormat(format string, allowed ...string) error {
	for _, a := range allowed {
		if format == a {
			return nil
		}
	}
	return fmt.Errorf("%w: unsupported format %q, use %s", ErrUsage, format, strings.Join(allowed, ", "))
}
