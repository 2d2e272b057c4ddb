package commands

import (
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/marmos91/ordo/cmd/ordo/cmdutil"
	"github.com/marmos91/ordo/internal/cli/output"
	"github.com/marmos91/ordo/pkg/instance"
)

var statusOutput string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show instance status",
	Long: `Show the lifecycle state of the instance: whether it is initialized,
whether the backing table exists, and whether an oracle leader is live.

Examples:
  ordo status
  ordo status -o json`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().StringVarP(&statusOutput, "output", "o", "table", "Output format (table|json|yaml)")
}

func runStatus(cmd *cobra.Command, args []string) error {
	printer, err := cmdutil.NewPrinter(os.Stdout, statusOutput)
	if err != nil {
		return err
	}

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

	st, err := admin.Status(cmd.Context())
	if err != nil {
		return err
	}

	if printer.Format() == output.FormatTable {
		return printer.Print(statusTable(st))
	}
	return printer.Print(st)
}

func statusTable(st *instance.Status) output.KeyValues {
	var kv output.KeyValues
	kv.Add("Application", st.Application)
	kv.Add("Root", st.Root)
	kv.Add("State", string(st.State))
	kv.Add("Table", st.Table)
	kv.Add("Table exists", cmdutil.BoolToYesNo(st.TableExists))

	groups := make([]string, 0, len(st.LocalityGroups))
	for name, families := range st.LocalityGroups {
		groups = append(groups, name+"="+strings.Join(families, ","))
	}
	sort.Strings(groups)
	kv.Add("Locality groups", cmdutil.EmptyOr(strings.Join(groups, " "), "-"))

	kv.Add("Shared config", cmdutil.BoolToYesNo(st.SharedConfig))
	if st.Marker != nil {
		kv.Add("Initialized at", st.Marker.CreatedAt.Format("2006-01-02 15:04:05 MST"))
		kv.Add("Initialized by", cmdutil.EmptyOr(st.Marker.Version, "-"))
	}
	kv.Add("Leader live", cmdutil.BoolToYesNo(st.LeaderLive))
	if st.Leader != nil {
		kv.Add("Leader", st.Leader.ID)
		kv.Add("Leader host", cmdutil.EmptyOr(st.Leader.Host, "-"))
		kv.Add("Leader since", st.Leader.StartedAt.Format("2006-01-02 15:04:05 MST"))
	}
	return kv
}
