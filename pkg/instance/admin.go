// Package instance implements the lifecycle of an ordo instance: the
// coordination subtree below its chroot, the backing table and the
// administrative operations that create and tear them down.
package instance

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/marmos91/ordo/internal/logger"
	"github.com/marmos91/ordo/internal/telemetry"
	"github.com/marmos91/ordo/pkg/coord"
	instanceerrors "github.com/marmos91/ordo/pkg/instance/errors"
	"github.com/marmos91/ordo/pkg/table"
	"go.opentelemetry.io/otel/attribute"
)

// State is the lifecycle state of an instance as seen by the admin.
type State string

const (
	StateUninitialized State = "uninitialized"
	StateInitialized   State = "initialized"
)

// Operation names used in logs, spans and metrics.
const (
	OpInitialize = "initialize"
	OpRemove     = "remove"
	OpStatus     = "status"
)

// Options configures an Admin.
type Options struct {
	// Application is recorded in the initialized marker.
	Application string

	// Root is the instance root path (the chroot).
	Root string

	// Table is the backing table name.
	Table string

	// SharedConfig is written to the config node at initialize.
	SharedConfig []byte

	// Version is recorded in the initialized marker.
	Version string

	// Metrics records operations. Nil disables recording.
	Metrics Metrics
}

// InitOptions controls Initialize.
type InitOptions struct {
	// ClearCoordinationState destroys any existing coordination subtree
	// before initializing.
	ClearCoordinationState bool

	// ClearTable drops any existing backing table before creating it.
	ClearTable bool
}

type removeOptions struct {
	keepTable bool
}

// RemoveOption configures Remove.
type RemoveOption func(*removeOptions)

// KeepTable makes Remove leave the backing table in place.
func KeepTable() RemoveOption {
	return func(o *removeOptions) { o.keepTable = true }
}

// Status is a point-in-time view of an instance.
type Status struct {
	Application    string              `json:"application" yaml:"application"`
	Root           string              `json:"root" yaml:"root"`
	State          State               `json:"state" yaml:"state"`
	Table          string              `json:"table" yaml:"table"`
	TableExists    bool                `json:"table_exists" yaml:"table_exists"`
	LocalityGroups map[string][]string `json:"locality_groups,omitempty" yaml:"locality_groups,omitempty"`
	SharedConfig   bool                `json:"shared_config" yaml:"shared_config"`
	Marker         *Marker             `json:"marker,omitempty" yaml:"marker,omitempty"`
	LeaderLive     bool                `json:"leader_live" yaml:"leader_live"`
	Leader         *LeaderInfo         `json:"leader,omitempty" yaml:"leader,omitempty"`
}

// Admin drives initialize and remove for one instance. It holds no
// in-process locks; concurrent callers are arbitrated by the atomic
// create-if-absent of the backing stores.
type Admin struct {
	opts    Options
	state   *StateStore
	tables  *TableProvisioner
	metrics Metrics

	closers []io.Closer
}

// New returns an Admin using client and tables. The Admin does not own the
// backends; Close only releases what Open created.
func New(client coord.Client, tables table.Store, opts Options) (*Admin, error) {
	if opts.Root == "" || opts.Root == "/" {
		return nil, instanceerrors.NewInvalidConfigurationError("coordination.connect", "instance root must be a path below /")
	}
	if err := coord.ValidatePath(opts.Root); err != nil {
		return nil, instanceerrors.NewInvalidConfigurationError("coordination.connect", err.Error())
	}
	if err := table.ValidateName(opts.Table); err != nil {
		return nil, instanceerrors.NewInvalidConfigurationError("table.name", err.Error())
	}

	return &Admin{
		opts:    opts,
		state:   NewStateStore(client, opts.Root),
		tables:  NewTableProvisioner(tables, opts.Table),
		metrics: opts.Metrics,
	}, nil
}

// Root returns the instance root path.
func (a *Admin) Root() string { return a.opts.Root }

// Table returns the backing table name.
func (a *Admin) Table() string { return a.opts.Table }

// StateStore returns the coordination state store.
func (a *Admin) StateStore() *StateStore { return a.state }

// Tables returns the table provisioner.
func (a *Admin) Tables() *TableProvisioner { return a.tables }

// State returns the lifecycle state derived from the initialized marker.
func (a *Admin) State(ctx context.Context) (State, error) {
	ok, err := a.state.Exists(ctx)
	if err != nil {
		return "", err
	}
	if ok {
		return StateInitialized, nil
	}
	return StateUninitialized, nil
}

// Initialize creates the coordination state and the backing table.
//
// On an initialized instance, without ClearCoordinationState the call fails
// with AlreadyInitialized and changes nothing. With ClearCoordinationState
// but without ClearTable it fails with TableExists after the coordination
// state was destroyed; a retry with ClearTable completes it.
func (a *Admin) Initialize(ctx context.Context, opts InitOptions) (err error) {
	ctx, done := a.begin(ctx, OpInitialize,
		telemetry.ClearCoordination(opts.ClearCoordinationState),
		telemetry.ClearTable(opts.ClearTable))
	defer func() { done(err) }()

	if opts.ClearCoordinationState {
		live, err := a.state.LeaderIsLive(ctx)
		if err != nil {
			return err
		}
		if live {
			logger.WarnCtx(ctx, "clearing coordination state while a leader is attached")
		}
		if err := a.state.Destroy(ctx); err != nil {
			return err
		}
	} else {
		exists, err := a.state.Exists(ctx)
		if err != nil {
			return err
		}
		if exists {
			return instanceerrors.NewAlreadyInitializedError(a.opts.Root)
		}
	}

	if opts.ClearTable {
		if err := a.tables.Destroy(ctx); err != nil {
			return err
		}
	}
	if err := a.tables.Create(ctx); err != nil {
		return err
	}
	telemetry.AddEvent(ctx, "table.created")

	marker := Marker{
		Application: a.opts.Application,
		Table:       a.opts.Table,
		CreatedAt:   time.Now().UTC(),
		Version:     a.opts.Version,
	}
	if err := a.state.Create(ctx, a.opts.SharedConfig, marker); err != nil {
		return err
	}

	logger.InfoCtx(ctx, "instance initialized", logger.KeyApplication, a.opts.Application)
	return nil
}

// Remove destroys the coordination state and drops the backing table. It
// refuses with ActiveInstance while a live leader is attached. Removing an
// uninitialized instance leaves the table alone; only orphaned coordination
// nodes under the root are cleared.
//
// The liveness check and the destroy are separate steps; a leader that
// registers in between is not detected.
func (a *Admin) Remove(ctx context.Context, opts ...RemoveOption) (err error) {
	var o removeOptions
	for _, opt := range opts {
		opt(&o)
	}

	ctx, done := a.begin(ctx, OpRemove)
	defer func() { done(err) }()

	live, err := a.state.LeaderIsLive(ctx)
	if err != nil {
		return err
	}
	a.setLeaderLive(live)
	if live {
		return instanceerrors.NewActiveInstanceError(a.opts.Root)
	}

	initialized, err := a.state.Exists(ctx)
	if err != nil {
		return err
	}
	if !initialized {
		// Without a marker the table is not ours to drop: it may be left
		// from Remove(KeepTable()) or a partially applied initialize.
		if err := a.state.Destroy(ctx); err != nil {
			return err
		}
		logger.DebugCtx(ctx, "instance not initialized, nothing to remove")
		return nil
	}

	if err := a.state.Destroy(ctx); err != nil {
		return err
	}
	if !o.keepTable {
		if err := a.tables.Destroy(ctx); err != nil {
			return err
		}
	}

	logger.InfoCtx(ctx, "instance removed", "keep_table", o.keepTable)
	return nil
}

// Status reports the state of the instance.
func (a *Admin) Status(ctx context.Context) (st *Status, err error) {
	ctx, done := a.begin(ctx, OpStatus)
	defer func() { done(err) }()

	st = &Status{
		Application: a.opts.Application,
		Root:        a.opts.Root,
		State:       StateUninitialized,
		Table:       a.opts.Table,
	}

	if st.Marker, err = a.state.Marker(ctx); err != nil {
		return nil, err
	}
	if st.Marker != nil {
		st.State = StateInitialized
	}

	cfg, err := a.state.SharedConfig(ctx)
	if err != nil {
		return nil, err
	}
	st.SharedConfig = cfg != nil

	if st.TableExists, err = a.tables.Exists(ctx); err != nil {
		return nil, err
	}
	if st.TableExists {
		if st.LocalityGroups, err = a.tables.LocalityGroups(ctx); err != nil {
			return nil, err
		}
	}

	if st.Leader, err = a.state.CurrentLeader(ctx); err != nil {
		return nil, err
	}
	st.LeaderLive = st.Leader != nil
	a.setLeaderLive(st.LeaderLive)

	telemetry.SetAttributes(ctx, telemetry.State(string(st.State)), telemetry.LeaderLive(st.LeaderLive))
	logger.DebugCtx(ctx, "status read", logger.State(string(st.State)), "leader_live", st.LeaderLive)
	return st, nil
}

// Close releases the backends opened by Open.
func (a *Admin) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// begin opens the span and log context of an operation. The returned func
// ends them and records the outcome.
func (a *Admin) begin(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	attrs = append(attrs, telemetry.Application(a.opts.Application))
	ctx, span := telemetry.StartAdminSpan(ctx, op, a.opts.Root, a.opts.Table, attrs...)

	lc := logger.NewLogContext(op).
		WithInstance(a.opts.Root, a.opts.Table).
		WithTrace(telemetry.TraceID(ctx), telemetry.SpanID(ctx))
	ctx = logger.WithContext(ctx, lc)
	logger.DebugCtx(ctx, "operation started")

	return ctx, func(err error) {
		defer span.End()

		result := resultOf(err)
		if err != nil {
			telemetry.RecordError(ctx, err)
			logger.WarnCtx(ctx, "operation failed", logger.KeyErrorCode, result, logger.Err(err), logger.KeyDurationMs, lc.DurationMs())
		} else {
			logger.DebugCtx(ctx, "operation finished", logger.KeyDurationMs, lc.DurationMs())
		}

		if a.metrics != nil {
			a.metrics.ObserveOperation(op, result, time.Since(lc.StartTime))
		}
	}
}

func (a *Admin) setLeaderLive(live bool) {
	if a.metrics != nil {
		a.metrics.SetLeaderLive(live)
	}
}

// resultOf names the outcome of an operation for metrics.
func resultOf(err error) string {
	if err == nil {
		return "ok"
	}
	if code := instanceerrors.CodeOf(err); code != 0 {
		return code.String()
	}
	return "error"
}
