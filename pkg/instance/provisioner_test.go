package instance

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	instanceerrors "github.com/marmos91/ordo/pkg/instance/errors"
	"github.com/marmos91/ordo/pkg/table"
	"github.com/marmos91/ordo/pkg/table/badger"
	tablememory "github.com/marmos91/ordo/pkg/table/memory"
)

func provisionerStores(t *testing.T) map[string]table.Store {
	t.Helper()
	b, err := badger.Open("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })

	return map[string]table.Store{
		"memory": tablememory.New(),
		"badger": b,
	}
}

func TestTableProvisioner(t *testing.T) {
	for name, store := range provisionerStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			p := NewTableProvisioner(store, "prov_test")

			ok, err := p.Exists(ctx)
			require.NoError(t, err)
			assert.False(t, ok)

			groups, err := p.LocalityGroups(ctx)
			require.NoError(t, err)
			assert.Nil(t, groups)

			require.NoError(t, p.Create(ctx))

			groups, err = p.LocalityGroups(ctx)
			require.NoError(t, err)
			assert.Equal(t, map[string][]string{"notify": {"ntfy"}}, groups)

			err = p.Create(ctx)
			assert.True(t, instanceerrors.IsTableExists(err), "got %v", err)

			require.NoError(t, p.Destroy(ctx))
			require.NoError(t, p.Destroy(ctx), "dropping an absent table is a no-op")

			ok, err = p.Exists(ctx)
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}
