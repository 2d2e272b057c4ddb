package config

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/marmos91/ordo/cmd/ordo/cmdutil"
	"github.com/marmos91/ordo/internal/cli/output"
	"github.com/marmos91/ordo/pkg/config"
)

var (
	showOutput  string
	showSecrets bool
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Display current configuration",
	Long: `Display the effective configuration: file values merged with ORDO_*
environment overrides and defaults.

By default outputs YAML format. Use --output to change format.

Examples:
  ordo config show
  ordo config show --output json
  ordo config show --config /etc/ordo/ordo.yaml`,
	RunE: runConfigShow,
}

func init() {
	showCmd.Flags().StringVarP(&showOutput, "output", "o", "yaml", "Output format (yaml|json)")
	showCmd.Flags().BoolVar(&showSecrets, "show-secrets", false, "Print passwords and the JWT secret in clear")
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.MustLoad(cmdutil.Flags.ConfigFile)
	if err != nil {
		return err
	}

	format, err := output.ParseFormat(showOutput)
	if err != nil {
		return err
	}

	if !showSecrets {
		redact(cfg)
	}

	switch format {
	case output.FormatJSON:
		return output.PrintJSON(os.Stdout, cfg)
	default:
		return output.PrintYAML(os.Stdout, cfg)
	}
}

const redacted = "********"

func redact(cfg *config.Config) {
	for _, s := range []*string{&cfg.API.JWT.Secret, &cfg.Coordination.Password, &cfg.Table.Postgres.Password} {
		if *s != "" {
			*s = redacted
		}
	}
}
