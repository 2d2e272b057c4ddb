package config

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/ordo/cmd/ordo/cmdutil"
	"github.com/marmos91/ordo/pkg/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long: `Validate the ordo configuration file.

Checks for syntax errors, missing required fields, invalid values and a
connection string without an instance root.

Examples:
  ordo config validate
  ordo config validate --config /etc/ordo/ordo.yaml`,
	RunE: runConfigValidate,
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	configPath := cmdutil.Flags.ConfigFile

	cfg, err := config.MustLoad(configPath)
	if err != nil {
		return err
	}

	addr, err := cfg.Coordination.Address()
	if err != nil {
		return err
	}

	displayPath := configPath
	if displayPath == "" {
		displayPath = config.GetDefaultConfigPath()
	}

	var warnings []string
	if cfg.API.JWT.Secret == "" {
		warnings = append(warnings, "JWT secret not configured - 'ordo serve' and 'ordo token' will fail")
	}
	if cfg.Oracle.ConfDir == "" {
		warnings = append(warnings, "oracle.conf_dir not configured - only the primary file ships with the oracle")
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Configuration file: %s\n", displayPath)
	_, _ = fmt.Fprintln(out, "Validation: OK")

	if len(warnings) > 0 {
		_, _ = fmt.Fprintln(out, "\nWarnings:")
		for _, w := range warnings {
			_, _ = fmt.Fprintf(out, "  - %s\n", w)
		}
	}

	_, _ = fmt.Fprintf(out, "\nConfiguration summary:\n")
	_, _ = fmt.Fprintf(out, "  Application:     %s\n", cfg.Application.Name)
	_, _ = fmt.Fprintf(out, "  Coordination:    %s %v\n", cfg.Coordination.Backend, addr.Hosts)
	_, _ = fmt.Fprintf(out, "  Instance root:   %s\n", addr.Root)
	_, _ = fmt.Fprintf(out, "  Table:           %s (%s)\n", cfg.Table.Name, cfg.Table.Backend)
	_, _ = fmt.Fprintf(out, "  Oracle:          %d x %s\n", cfg.Oracle.Instances, cfg.Oracle.MaxMemory)
	_, _ = fmt.Fprintf(out, "  Log level:       %s\n", cfg.Logging.Level)
	return nil
}
