package leveldb

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

func TestInMemoryConformance(t *testing.T) {
	tabletest.RunConformanceSuite(t, func(t *testing.T) table.Store {
		s, err := Open("")
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}

func TestDeleteRemovesCells(t *testing.T) {
	ctx := context.Background()
	s, err := Open("")
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.CreateTable(ctx, "app", table.TableConfig{}))
	d, err := s.descriptor("app")
	require.NoError(t, err)
	require.NoError(t, s.Write(ctx, "app", []table.Entry{{Key: table.Key{Row: "r"}, Value: []byte("v")}}))
	require.NoError(t, s.DeleteTable(ctx, "app"))

	ok, err := s.db.Has(cellKey(d.ID, table.Key{Row: "r"}), nil)
	require.NoError(t, err)
	assert.False(t, ok)
}
