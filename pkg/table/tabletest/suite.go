package tabletest

import (
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/ordo/pkg/table"
)

// StoreFactory creates a store for one test.
type StoreFactory func(t *testing.T) table.Store

// RunConformanceSuite runs the table.Store conformance tests.
func RunConformanceSuite(t *testing.T, factory StoreFactory) {
	t.Helper()

	t.Run("Tables", func(t *testing.T) {
		runTableTests(t, factory)
	})

	t.Run("LocalityGroups", func(t *testing.T) {
		runLocalityGroupTests(t, factory)
	})

	t.Run("Data", func(t *testing.T) {
		runDataTests(t, factory)
	})

	t.Run("Concurrency", func(t *testing.T) {
		runConcurrencyTests(t, factory)
	})
}

func tableName(t *testing.T) string {
	t.Helper()
	return "t_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

var notifyConfig = table.TableConfig{
	LocalityGroups: map[string][]string{"notify": {"ntfy"}},
}

func runTableTests(t *testing.T, factory StoreFactory) {
	t.Run("CreateAndExists", func(t *testing.T) {
		s := factory(t)
		ctx := t.Context()
		name := tableName(t)

		ok, err := s.TableExists(ctx, name)
		require.NoError(t, err)
		assert.False(t, ok)

		require.NoError(t, s.CreateTable(ctx, name, notifyConfig))

		ok, err = s.TableExists(ctx, name)
		require.NoError(t, err)
		assert.True(t, ok)

		names, err := s.ListTables(ctx)
		require.NoError(t, err)
		assert.Contains(t, names, name)
	})

	t.Run("CreateExisting", func(t *testing.T) {
		s := factory(t)
		ctx := t.Context()
		name := tableName(t)

		require.NoError(t, s.CreateTable(ctx, name, notifyConfig))
		assert.ErrorIs(t, s.CreateTable(ctx, name, table.TableConfig{}), table.ErrTableExists)
	})

	t.Run("CreateInvalidName", func(t *testing.T) {
		s := factory(t)
		assert.Error(t, s.CreateTable(t.Context(), "bad name", notifyConfig))
	})

	t.Run("Delete", func(t *testing.T) {
		s := factory(t)
		ctx := t.Context()
		name := tableName(t)

		require.NoError(t, s.CreateTable(ctx, name, notifyConfig))
		require.NoError(t, s.DeleteTable(ctx, name))

		ok, err := s.TableExists(ctx, name)
		require.NoError(t, err)
		assert.False(t, ok)

		assert.ErrorIs(t, s.DeleteTable(ctx, name), table.ErrTableNotFound)
	})

	t.Run("ListSorted", func(t *testing.T) {
		s := factory(t)
		ctx := t.Context()
		base := tableName(t)

		for _, suffix := range []string{"_c", "_a", "_b"} {
			require.NoError(t, s.CreateTable(ctx, base+suffix, table.TableConfig{}))
		}

		names, err := s.ListTables(ctx)
		require.NoError(t, err)

		var mine []string
		for _, n := range names {
			if strings.HasPrefix(n, base) {
				mine = append(mine, n)
			}
		}
		assert.Equal(t, []string{base + "_a", base + "_b", base + "_c"}, mine)
	})
}

func runLocalityGroupTests(t *testing.T, factory StoreFactory) {
	t.Run("AppliedAtCreate", func(t *testing.T) {
		s := factory(t)
		ctx := t.Context()
		name := tableName(t)

		require.NoError(t, s.CreateTable(ctx, name, notifyConfig))

		groups, err := s.LocalityGroups(ctx, name)
		require.NoError(t, err)
		assert.Equal(t, map[string][]string{"notify": {"ntfy"}}, groups)
	})

	t.Run("EmptyConfig", func(t *testing.T) {
		s := factory(t)
		ctx := t.Context()
		name := tableName(t)

		require.NoError(t, s.CreateTable(ctx, name, table.TableConfig{}))

		groups, err := s.LocalityGroups(ctx, name)
		require.NoError(t, err)
		assert.Empty(t, groups)
	})

	t.Run("Replace", func(t *testing.T) {
		s := factory(t)
		ctx := t.Context()
		name := tableName(t)

		require.NoError(t, s.CreateTable(ctx, name, notifyConfig))
		require.NoError(t, s.SetLocalityGroups(ctx, name, map[string][]string{
			"hot":  {"b", "a"},
			"cold": {"z"},
		}))

		groups, err := s.LocalityGroups(ctx, name)
		require.NoError(t, err)
		assert.Equal(t, map[string][]string{"hot": {"a", "b"}, "cold": {"z"}}, groups)
	})

	t.Run("MissingTable", func(t *testing.T) {
		s := factory(t)
		ctx := t.Context()
		name := tableName(t)

		_, err := s.LocalityGroups(ctx, name)
		assert.ErrorIs(t, err, table.ErrTableNotFound)
		assert.ErrorIs(t, s.SetLocalityGroups(ctx, name, nil), table.ErrTableNotFound)
	})

	t.Run("RejectsSharedFamily", func(t *testing.T) {
		s := factory(t)
		err := s.CreateTable(t.Context(), tableName(t), table.TableConfig{
			LocalityGroups: map[string][]string{"a": {"f"}, "b": {"f"}},
		})
		assert.Error(t, err)
	})
}

func runDataTests(t *testing.T, factory StoreFactory) {
	t.Run("ScanSorted", func(t *testing.T) {
		s := factory(t)
		ctx := t.Context()
		name := tableName(t)

		require.NoError(t, s.CreateTable(ctx, name, notifyConfig))
		require.NoError(t, s.Write(ctx, name, []table.Entry{
			{Key: table.Key{Row: "r2", Family: "data", Qualifier: "q"}, Value: []byte("3")},
			{Key: table.Key{Row: "r1", Family: "ntfy", Qualifier: "b"}, Value: []byte("2")},
			{Key: table.Key{Row: "r1", Family: "ntfy", Qualifier: "a"}, Value: []byte("1")},
		}))

		var got []string
		require.NoError(t, s.Scan(ctx, name, func(e table.Entry) error {
			got = append(got, string(e.Value))
			return nil
		}))
		assert.Equal(t, []string{"1", "2", "3"}, got)
	})

	t.Run("Overwrite", func(t *testing.T) {
		s := factory(t)
		ctx := t.Context()
		name := tableName(t)
		key := table.Key{Row: "r", Family: "f", Qualifier: "q"}

		require.NoError(t, s.CreateTable(ctx, name, table.TableConfig{}))
		require.NoError(t, s.Write(ctx, name, []table.Entry{{Key: key, Value: []byte("old")}}))
		require.NoError(t, s.Write(ctx, name, []table.Entry{{Key: key, Value: []byte("new")}}))

		var got []table.Entry
		require.NoError(t, s.Scan(ctx, name, func(e table.Entry) error {
			got = append(got, e)
			return nil
		}))
		require.Len(t, got, 1)
		assert.Equal(t, key, got[0].Key)
		assert.Equal(t, []byte("new"), got[0].Value)
	})

	t.Run("ScanStopsOnError", func(t *testing.T) {
		s := factory(t)
		ctx := t.Context()
		name := tableName(t)
		stop := errors.New("stop")

		require.NoError(t, s.CreateTable(ctx, name, table.TableConfig{}))
		require.NoError(t, s.Write(ctx, name, []table.Entry{
			{Key: table.Key{Row: "a"}, Value: []byte("1")},
			{Key: table.Key{Row: "b"}, Value: []byte("2")},
		}))

		calls := 0
		err := s.Scan(ctx, name, func(table.Entry) error {
			calls++
			return stop
		})
		assert.ErrorIs(t, err, stop)
		assert.Equal(t, 1, calls)
	})

	t.Run("DataGoneAfterRecreate", func(t *testing.T) {
		s := factory(t)
		ctx := t.Context()
		name := tableName(t)

		require.NoError(t, s.CreateTable(ctx, name, notifyConfig))
		require.NoError(t, s.Write(ctx, name, []table.Entry{{Key: table.Key{Row: "r"}, Value: []byte("v")}}))
		require.NoError(t, s.DeleteTable(ctx, name))
		require.NoError(t, s.CreateTable(ctx, name, notifyConfig))

		count := 0
		require.NoError(t, s.Scan(ctx, name, func(table.Entry) error {
			count++
			return nil
		}))
		assert.Zero(t, count)
	})

	t.Run("TablesAreIsolated", func(t *testing.T) {
		s := factory(t)
		ctx := t.Context()
		a, b := tableName(t), tableName(t)

		require.NoError(t, s.CreateTable(ctx, a, table.TableConfig{}))
		require.NoError(t, s.CreateTable(ctx, b, table.TableConfig{}))
		require.NoError(t, s.Write(ctx, a, []table.Entry{{Key: table.Key{Row: "r"}, Value: []byte("v")}}))

		count := 0
		require.NoError(t, s.Scan(ctx, b, func(table.Entry) error {
			count++
			return nil
		}))
		assert.Zero(t, count)
	})

	t.Run("MissingTable", func(t *testing.T) {
		s := factory(t)
		ctx := t.Context()
		name := tableName(t)

		assert.ErrorIs(t, s.Write(ctx, name, []table.Entry{{Key: table.Key{Row: "r"}}}), table.ErrTableNotFound)
		assert.ErrorIs(t, s.Scan(ctx, name, func(table.Entry) error { return nil }), table.ErrTableNotFound)
	})
}

func runConcurrencyTests(t *testing.T, factory StoreFactory) {
	t.Run("SingleCreateWins", func(t *testing.T) {
		s := factory(t)
		name := tableName(t)

		const n = 8
		var wins, exists atomic.Int32
		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				err := s.CreateTable(t.Context(), name, notifyConfig)
				switch {
				case err == nil:
					wins.Add(1)
				case assert.ErrorIs(t, err, table.ErrTableExists):
					exists.Add(1)
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, int32(1), wins.Load())
		assert.Equal(t, int32(n-1), exists.Load())
	})
}
