package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/marmos91/ordo/cmd/ordo/cmdutil"
	"github.com/marmos91/ordo/pkg/instance"
)

var (
	removeKeepTable bool
	removeForce     bool
)

var removeCmd = &cobra.Command{
	Use:   "remove",
	Short: "Remove the instance",
	Long: `Remove the instance described by the configuration: delete the whole
coordination subtree, including its root, and drop the backing table.

Remove refuses while an oracle leader is live. Stop the oracle first.
Removing an instance that was never initialized does nothing.

Examples:
  # Remove, confirming by typing the instance root
  ordo remove

  # Remove but keep table data
  ordo remove --keep-table --force`,
	RunE: runRemove,
}

func init() {
	removeCmd.Flags().BoolVar(&removeKeepTable, "keep-table", false, "Keep the backing table")
	removeCmd.Flags().BoolVarP(&removeForce, "force", "f", false, "Skip confirmation prompt")
}

func runRemove(cmd *cobra.Command, args []string) error {
	cfg, err := cmdutil.LoadConfig()
	if err != nil {
		return err
	}

	stop, err := cmdutil.StartTelemetry(cmd.Context(), cfg, false)
	if err != nil {
		return err
	}
	defer stop()

	admin, err := cmdutil.OpenAdmin(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer func() { _ = admin.Close() }()

	var opts []instance.RemoveOption
	if removeKeepTable {
		opts = append(opts, instance.KeepTable())
	}

	return cmdutil.Confirm(fmt.Sprintf("Remove instance %s", admin.Root()), admin.Root(), removeForce, func() error {
		if err := admin.Remove(cmd.Context(), opts...); err != nil {
			return err
		}
		printer, err := cmdutil.NewPrinter(os.Stdout, "table")
		if err != nil {
			return err
		}
		printer.Success(fmt.Sprintf("Instance %s removed", admin.Root()))
		return nil
	})
}
