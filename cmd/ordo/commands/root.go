// Package commands implements the ordo CLI.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/marmos91/ordo/cmd/ordo/commands/config"
	"github.com/marmos91/ordo/cmd/ordo/commands/oracle"
	"github.com/marmos91/ordo/cmd/ordo/cmdutil"
)

var (
	// Version information injected at build time.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "ordo",
	Short: "Ordo - transactional instance lifecycle coordinator",
	Long: `Ordo creates and removes the persistent footprint of a transactional
processing instance: its coordination subtree (under a chroot of the
coordination service) and its backing table.

Every command reads the instance from a configuration file; the
coordination connect string ("host1,host2/path") selects the instance root.

Use "ordo [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cmdutil.Version = Version
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

// GetRootCmd returns the root command for testing purposes.
func GetRootCmd() *cobra.Command {
	return rootCmd
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cmdutil.Flags.ConfigFile, "config", "", "config file (default: $XDG_CONFIG_HOME/ordo/ordo.yaml)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(removeCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(completionCmd)
	rootCmd.AddCommand(config.Cmd)
	rootCmd.AddCommand(oracle.Cmd)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// ExitCode maps a command error to the process exit code.
func ExitCode(err error) int {
	return cmdutil.ExitCode(err)
}
