package oracle

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/marmos91/ordo/cmd/ordo/cmdutil"
	"github.com/marmos91/ordo/internal/logger"
	"github.com/marmos91/ordo/pkg/instance"
	"github.com/marmos91/ordo/pkg/oracle"
)

var electInterval time.Duration

var electCmd = &cobra.Command{
	Use:   "elect",
	Short: "Campaign for oracle leadership",
	Long: `Register this process as an oracle replica of the instance and hold
leadership until interrupted. Replicas that lose the election stand by and
take over when the leader's session ends.

The instance must be initialized first.

Examples:
  ordo oracle elect
  ordo oracle elect --interval 2s`,
	RunE: runElect,
}

func init() {
	electCmd.Flags().DurationVar(&electInterval, "interval", 5*time.Second, "How often to campaign or check leadership")
}

func runElect(cmd *cobra.Command, args []string) error {
	if electInterval <= 0 {
		return fmt.Errorf("--interval must be positive")
	}

	cfg, err := cmdutil.LoadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	stop, err := cmdutil.StartTelemetry(ctx, cfg, true)
	if err != nil {
		return err
	}
	defer stop()

	addr, err := cfg.Coordination.Address()
	if err != nil {
		return err
	}
	client, err := instance.OpenCoordination(ctx, cfg.Coordination, addr)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	elector := oracle.NewElector(client, addr.Root)
	logger.Info("oracle replica started", logger.Leader(elector.ID()), logger.Root(addr.Root))

	return elector.Run(ctx, electInterval, func() {
		fmt.Fprintf(os.Stdout, "Leading %s as %s\n", addr.Root, elector.ID())
	})
}
