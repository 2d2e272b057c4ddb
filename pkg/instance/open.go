package instance

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/marmos91/ordo/internal/logger"
	"github.com/marmos91/ordo/pkg/config"
	"github.com/marmos91/ordo/pkg/coord"
	"github.com/marmos91/ordo/pkg/coord/etcd"
	coordmemory "github.com/marmos91/ordo/pkg/coord/memory"
	"github.com/marmos91/ordo/pkg/coord/zookeeper"
	"github.com/marmos91/ordo/pkg/instance/chroot"
	instanceerrors "github.com/marmos91/ordo/pkg/instance/errors"
	"github.com/marmos91/ordo/pkg/table"
	"github.com/marmos91/ordo/pkg/table/badger"
	"github.com/marmos91/ordo/pkg/table/leveldb"
	tablememory "github.com/marmos91/ordo/pkg/table/memory"
	tablesql "github.com/marmos91/ordo/pkg/table/sql"
)

type openOptions struct {
	metrics Metrics
	version string
}

// OpenOption configures Open.
type OpenOption func(*openOptions)

// WithMetrics records admin operations in m.
func WithMetrics(m Metrics) OpenOption {
	return func(o *openOptions) { o.metrics = m }
}

// WithVersion sets the version recorded in the initialized marker.
func WithVersion(v string) OpenOption {
	return func(o *openOptions) { o.version = v }
}

// Open resolves the chroot of cfg, connects the coordination client and
// opens the table store. The returned Admin owns both; Close releases them.
func Open(ctx context.Context, cfg *config.Config, opts ...OpenOption) (*Admin, error) {
	var o openOptions
	for _, opt := range opts {
		opt(&o)
	}

	addr, err := cfg.Coordination.Address()
	if err != nil {
		return nil, err
	}

	shared, err := cfg.MarshalShared()
	if err != nil {
		return nil, err
	}

	client, err := OpenCoordination(ctx, cfg.Coordination, addr)
	if err != nil {
		return nil, err
	}

	tables, err := OpenTableStore(cfg.Table)
	if err != nil {
		_ = client.Close()
		return nil, err
	}

	admin, err := New(client, tables, Options{
		Application:  cfg.Application.Name,
		Root:         addr.Root,
		Table:        cfg.Table.Name,
		SharedConfig: shared,
		Version:      o.version,
		Metrics:      o.metrics,
	})
	if err != nil {
		_ = tables.Close()
		_ = client.Close()
		return nil, err
	}
	admin.closers = []io.Closer{client, tables}

	logger.Debug("instance opened",
		logger.Root(addr.Root),
		logger.Hosts(addr.Hosts),
		logger.Table(cfg.Table.Name),
		logger.KeyBackend, cfg.Coordination.Backend+"/"+cfg.Table.Backend)
	return admin, nil
}

// OpenCoordination connects to the coordination backend of cfg. Paths used
// through the client are absolute and include addr.Root.
func OpenCoordination(ctx context.Context, cfg config.CoordinationConfig, addr chroot.Address) (coord.Client, error) {
	switch cfg.Backend {
	case config.CoordinationEtcd:
		client, err := etcd.New(ctx, etcd.Config{
			Endpoints:   addr.Endpoints(etcd.DefaultPort),
			DialTimeout: cfg.DialTimeout,
			SessionTTL:  cfg.SessionTimeout,
			Username:    cfg.Username,
			Password:    cfg.Password,
		})
		if err != nil {
			return nil, instanceerrors.NewUnavailableError("connect to etcd", err)
		}
		return client, nil

	case config.CoordinationZookeeper:
		client, err := zookeeper.New(ctx, zookeeper.Config{
			Servers:        addr.Endpoints(zookeeper.DefaultPort),
			SessionTimeout: cfg.SessionTimeout,
			DialTimeout:    cfg.DialTimeout,
		})
		if err != nil {
			return nil, instanceerrors.NewUnavailableError("connect to zookeeper", err)
		}
		return client, nil

	case config.CoordinationMemory:
		// Processes sharing a host list share one in-process tree.
		return coordmemory.Shared(strings.Join(addr.Hosts, ",")).Connect(), nil

	default:
		return nil, instanceerrors.NewInvalidConfigurationError("coordination.backend", fmt.Sprintf("unknown coordination backend %q", cfg.Backend))
	}
}

// OpenTableStore opens the table store of cfg.
func OpenTableStore(cfg config.TableConfig) (table.Store, error) {
	var (
		store table.Store
		err   error
	)

	switch cfg.Backend {
	case config.TableBadger:
		store, err = badger.Open(cfg.Path)
	case config.TableLevelDB:
		store, err = leveldb.Open(cfg.Path)
	case config.TableSQLite:
		store, err = tablesql.Open(&tablesql.Config{
			Type:       tablesql.DatabaseTypeSQLite,
			SQLitePath: cfg.Path,
		})
	case config.TablePostgres:
		pg := cfg.Postgres
		store, err = tablesql.Open(&tablesql.Config{
			Type: tablesql.DatabaseTypePostgres,
			Postgres: tablesql.PostgresConfig{
				Host:         pg.Host,
				Port:         pg.Port,
				Database:     pg.Database,
				User:         pg.User,
				Password:     pg.Password,
				SSLMode:      pg.SSLMode,
				MaxOpenConns: pg.MaxOpenConns,
				MaxIdleConns: pg.MaxIdleConns,
			},
		})
	case config.TableMemory:
		store = tablememory.Shared(cfg.Path)
	default:
		return nil, instanceerrors.NewInvalidConfigurationError("table.backend", fmt.Sprintf("unknown table backend %q", cfg.Backend))
	}

	if err != nil {
		return nil, instanceerrors.NewUnavailableError("open "+cfg.Backend+" table store", err)
	}
	return store, nil
}
