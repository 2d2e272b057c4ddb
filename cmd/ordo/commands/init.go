package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/marmos91/ordo/cmd/ordo/cmdutil"
	"github.com/marmos91/ordo/pkg/instance"
)

var (
	initClearCoordination bool
	initClearTable        bool
	initForce             bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the instance",
	Long: `Initialize the instance described by the configuration: create the
backing table with its locality groups, write the shared configuration and
the initialized marker under the coordination root.

Without flags, init fails if the instance is already initialized or the
table already exists. The clear flags destroy the existing state first and
ask for confirmation unless --force is given.

To create a configuration file use 'ordo config init'.

Examples:
  # Initialize a fresh instance
  ordo init

  # Reinitialize, discarding coordination state and table data
  ordo init --clear-coordination --clear-table --force`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initClearCoordination, "clear-coordination", false, "Destroy existing coordination state first")
	initCmd.Flags().BoolVar(&initClearTable, "clear-table", false, "Drop the existing backing table first")
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "Skip confirmation prompt")
}

func runInit(cmd *cobra.Command, args []string) error {
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

	opts := instance.InitOptions{
		ClearCoordinationState: initClearCoordination,
		ClearTable:             initClearTable,
	}

	run := func() error {
		if err := admin.Initialize(cmd.Context(), opts); err != nil {
			return err
		}
		printer, err := cmdutil.NewPrinter(os.Stdout, "table")
		if err != nil {
			return err
		}
		printer.Success(fmt.Sprintf("Instance %s initialized (table %s)", admin.Root(), admin.Table()))
		return nil
	}

	if !opts.ClearCoordinationState && !opts.ClearTable {
		return run()
	}
	return cmdutil.Confirm(
		fmt.Sprintf("Destroy existing state of %s and table %s", admin.Root(), admin.Table()),
		"", initForce, run)
}
