// Package oracle implements the oracle subcommands.
package oracle

import (
	"github.com/spf13/cobra"
)

// Cmd is the oracle subcommand.
var Cmd = &cobra.Command{
	Use:   "oracle",
	Short: "Timestamp oracle deployment",
	Long: `Plan and run the timestamp oracle of the instance.

Subcommands:
  plan   Print the launch spec for a cluster launcher
  elect  Hold oracle leadership until interrupted`,
}

func init() {
	Cmd.AddCommand(planCmd)
	Cmd.AddCommand(electCmd)
}
