package oracle

import (
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/marmos91/ordo/cmd/ordo/cmdutil"
	"github.com/marmos91/ordo/internal/cli/output"
	"github.com/marmos91/ordo/internal/logger"
	"github.com/marmos91/ordo/pkg/oracle"
)

var (
	planOutput string
	planWatch  bool
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Print the oracle launch spec",
	Long: `Print the launch spec of the oracle: one runnable with one virtual
core and oracle.max_memory per replica, oracle.instances replicas, and the
configuration files shipped under ./conf.

Examples:
  ordo oracle plan
  ordo oracle plan -o json
  ordo oracle plan --watch -o json`,
	RunE: runPlan,
}

func init() {
	planCmd.Flags().StringVarP(&planOutput, "output", "o", "table", "Output format (table|json|yaml)")
	planCmd.Flags().BoolVarP(&planWatch, "watch", "w", false, "Print a new spec whenever configuration files change")
}

func runPlan(cmd *cobra.Command, args []string) error {
	printer, err := cmdutil.NewPrinter(os.Stdout, planOutput)
	if err != nil {
		return err
	}

	cfg, err := cmdutil.LoadConfig()
	if err != nil {
		return err
	}

	emit := func(spec *oracle.LaunchSpec) error {
		if printer.Format() == output.FormatTable {
			return printer.Print(specTable(spec))
		}
		return printer.Print(spec)
	}

	planner := oracle.NewPlanner()
	if !planWatch {
		spec, err := planner.Build(cfg)
		if err != nil {
			return err
		}
		return emit(spec)
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	return planner.Watch(ctx, cfg, oracle.DefaultSettle, func(spec *oracle.LaunchSpec, err error) {
		if err != nil {
			logger.Warn("launch spec rejected", logger.Err(err))
			return
		}
		if err := emit(spec); err != nil {
			logger.Warn("failed to print launch spec", logger.Err(err))
		}
	})
}

func specTable(spec *oracle.LaunchSpec) output.KeyValues {
	var kv output.KeyValues
	kv.Add("Application", spec.Application)
	kv.Add("Runnable", spec.Runnable)
	kv.Add("Instances", strconv.Itoa(spec.Resources.Instances))
	kv.Add("Virtual cores", strconv.Itoa(spec.Resources.VirtualCores))
	kv.Add("Memory (MiB)", strconv.FormatInt(spec.Resources.MemoryMB, 10))
	kv.Add("Order", spec.Order)
	for _, f := range spec.Files {
		kv.Add(f.Destination, f.Source)
	}
	return kv
}
