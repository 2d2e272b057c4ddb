package config

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/ordo/cmd/ordo/cmdutil"
	"github.com/marmos91/ordo/pkg/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a sample configuration file",
	Long: `Write a sample configuration file with a freshly generated API secret.

The file is written to --config, or to the default location when the flag
is not set.

Examples:
  ordo config init
  ordo config init --config ./ordo.yaml --force`,
	RunE: runConfigInit,
}

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "Overwrite an existing configuration file")
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := cmdutil.Flags.ConfigFile
	if path == "" {
		var err error
		if path, err = config.InitConfig(initForce); err != nil {
			return err
		}
	} else if err := config.InitConfigToPath(path, initForce); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Configuration written to %s\n\n", path)
	_, _ = fmt.Fprintln(out, "Next steps:")
	_, _ = fmt.Fprintf(out, "  1. Set coordination.connect and table.name in %s\n", path)
	_, _ = fmt.Fprintln(out, "  2. Create the instance with: ordo init")
	return nil
}
