package instance

import (
	"context"
	"errors"

	"github.com/marmos91/ordo/internal/logger"
	instanceerrors "github.com/marmos91/ordo/pkg/instance/errors"
	"github.com/marmos91/ordo/pkg/table"
)

// TableProvisioner creates and drops the backing table of an instance.
type TableProvisioner struct {
	store table.Store
	name  string
}

// NewTableProvisioner returns a provisioner for the table name in store.
func NewTableProvisioner(store table.Store, name string) *TableProvisioner {
	return &TableProvisioner{store: store, name: name}
}

// Name returns the table name.
func (p *TableProvisioner) Name() string {
	return p.name
}

// Exists reports whether the table exists.
func (p *TableProvisioner) Exists(ctx context.Context) (bool, error) {
	ok, err := p.store.TableExists(ctx, p.name)
	if err != nil {
		return false, instanceerrors.NewUnavailableError("check table", err)
	}
	return ok, nil
}

// Create creates the table with the notification locality group in one
// step. An existing table yields TableExists and is left untouched.
func (p *TableProvisioner) Create(ctx context.Context) error {
	cfg := table.TableConfig{LocalityGroups: NotifyLocalityGroups()}

	err := p.store.CreateTable(ctx, p.name, cfg)
	switch {
	case errors.Is(err, table.ErrTableExists):
		return instanceerrors.NewTableExistsError(p.name)
	case err != nil:
		return instanceerrors.NewUnavailableError("create table", err)
	}

	logger.DebugCtx(ctx, "table created", logger.Table(p.name), logger.KeyGroup, NotifyLocalityGroup)
	return nil
}

// Destroy drops the table and its data. A missing table is not an error.
func (p *TableProvisioner) Destroy(ctx context.Context) error {
	err := p.store.DeleteTable(ctx, p.name)
	if errors.Is(err, table.ErrTableNotFound) {
		return nil
	}
	if err != nil {
		return instanceerrors.NewUnavailableError("delete table", err)
	}

	logger.DebugCtx(ctx, "table deleted", logger.Table(p.name))
	return nil
}

// LocalityGroups returns the locality groups of the table, or nil if the
// table does not exist.
func (p *TableProvisioner) LocalityGroups(ctx context.Context) (map[string][]string, error) {
	groups, err := p.store.LocalityGroups(ctx, p.name)
	if errors.Is(err, table.ErrTableNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, instanceerrors.NewUnavailableError("read locality groups", err)
	}
	return groups, nil
}
