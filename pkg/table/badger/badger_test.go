package badger

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/ordo/pkg/table"
	"github.com/marmos91/ordo/pkg/table/tabletest"
)

func TestConformance(t *testing.T) {
	tabletest.RunConformanceSuite(t, func(t *testing.T) table.Store {
		s, err := Open(filepath.Join(t.TempDir(), "tables"))
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}

func TestInMemory(t *testing.T) {
	s, err := Open("")
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.CreateTable(context.Background(), "app", table.TableConfig{}))
	ok, err := s.TableExists(context.Background(), "app")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestPersistsAcrossReopen(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "tables")
	ctx := context.Background()

	s, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, s.CreateTable(ctx, "app", table.TableConfig{
		LocalityGroups: map[string][]string{"notify": {"ntfy"}},
	}))
	require.NoError(t, s.Close())

	s, err = Open(dir)
	require.NoError(t, err)
	defer s.Close()

	groups, err := s.LocalityGroups(ctx, "app")
	require.NoError(t, err)
	assert.Equal(t, map[string][]string{"notify": {"ntfy"}}, groups)
}

func TestCellKeyRoundTrip(t *testing.T) {
	k := table.Key{Row: "row", Family: "ntfy", Qualifier: "q"}
	raw := cellKey("id", k)

	got, err := decodeCellKey(dataPrefix("id"), raw)
	require.NoError(t, err)
	assert.Equal(t, k, got)
}
