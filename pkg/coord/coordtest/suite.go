package coordtest

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/ordo/pkg/coord"
)

// ConnectFunc opens a new session on the service under test.
type ConnectFunc func(t *testing.T) coord.Client

// RunConformanceSuite runs the coord.Client conformance tests.
func RunConformanceSuite(t *testing.T, connect ConnectFunc) {
	t.Helper()

	t.Run("Nodes", func(t *testing.T) {
		runNodeTests(t, connect)
	})

	t.Run("Delete", func(t *testing.T) {
		runDeleteTests(t, connect)
	})

	t.Run("Ephemeral", func(t *testing.T) {
		runEphemeralTests(t, connect)
	})

	t.Run("Concurrency", func(t *testing.T) {
		runConcurrencyTests(t, connect)
	})
}

// testRoot returns a fresh, not yet created root for one test.
func testRoot(t *testing.T) string {
	t.Helper()
	return "/coordtest/" + uuid.NewString()
}

func runNodeTests(t *testing.T, connect ConnectFunc) {
	t.Run("CreateAndGet", func(t *testing.T) {
		c := connect(t)
		root := testRoot(t)
		ctx := t.Context()

		require.NoError(t, c.Create(ctx, root+"/config", []byte("a: 1"), coord.WithParents()))

		n, err := c.Get(ctx, root+"/config")
		require.NoError(t, err)
		assert.Equal(t, root+"/config", n.Path)
		assert.Equal(t, []byte("a: 1"), n.Data)
		assert.False(t, n.Ephemeral)

		ok, err := c.Exists(ctx, root)
		require.NoError(t, err)
		assert.True(t, ok, "WithParents must create ancestors")
	})

	t.Run("CreateExisting", func(t *testing.T) {
		c := connect(t)
		root := testRoot(t)
		ctx := t.Context()

		require.NoError(t, c.Create(ctx, root, nil, coord.WithParents()))
		err := c.Create(ctx, root, []byte("x"), coord.WithParents())
		assert.ErrorIs(t, err, coord.ErrNodeExists)
	})

	t.Run("CreateMissingParent", func(t *testing.T) {
		c := connect(t)
		root := testRoot(t)

		err := c.Create(t.Context(), root+"/child", nil)
		assert.ErrorIs(t, err, coord.ErrNoNode)
	})

	t.Run("GetMissing", func(t *testing.T) {
		c := connect(t)
		root := testRoot(t)
		ctx := t.Context()

		_, err := c.Get(ctx, root)
		assert.ErrorIs(t, err, coord.ErrNoNode)

		ok, err := c.Exists(ctx, root)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("Children", func(t *testing.T) {
		c := connect(t)
		root := testRoot(t)
		ctx := t.Context()

		require.NoError(t, c.Create(ctx, root+"/b", nil, coord.WithParents()))
		require.NoError(t, c.Create(ctx, root+"/a", nil))
		require.NoError(t, c.Create(ctx, root+"/a/nested", nil))

		names, err := c.Children(ctx, root)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, names)

		_, err = c.Children(ctx, root+"/missing")
		assert.ErrorIs(t, err, coord.ErrNoNode)
	})

	t.Run("Set", func(t *testing.T) {
		c := connect(t)
		root := testRoot(t)
		ctx := t.Context()

		require.NoError(t, c.Create(ctx, root, []byte("v1"), coord.WithParents()))
		require.NoError(t, c.Set(ctx, root, []byte("v2")))

		n, err := c.Get(ctx, root)
		require.NoError(t, err)
		assert.Equal(t, []byte("v2"), n.Data)

		assert.ErrorIs(t, c.Set(ctx, root+"/missing", nil), coord.ErrNoNode)
	})
}

func runDeleteTests(t *testing.T, connect ConnectFunc) {
	t.Run("Delete", func(t *testing.T) {
		c := connect(t)
		root := testRoot(t)
		ctx := t.Context()

		require.NoError(t, c.Create(ctx, root, nil, coord.WithParents()))
		require.NoError(t, c.Delete(ctx, root))
		assert.ErrorIs(t, c.Delete(ctx, root), coord.ErrNoNode)
	})

	t.Run("DeleteAllSubtree", func(t *testing.T) {
		c := connect(t)
		root := testRoot(t)
		ctx := t.Context()

		require.NoError(t, c.Create(ctx, root+"/app/config", nil, coord.WithParents()))
		require.NoError(t, c.Create(ctx, root+"/app/initialized", nil))
		require.NoError(t, c.Create(ctx, root+"/app2", nil))

		require.NoError(t, c.DeleteAll(ctx, root+"/app"))

		ok, err := c.Exists(ctx, root+"/app")
		require.NoError(t, err)
		assert.False(t, ok)

		ok, err = c.Exists(ctx, root+"/app2")
		require.NoError(t, err)
		assert.True(t, ok, "sibling sharing a name prefix must survive")
	})

	t.Run("DeleteAllAbsent", func(t *testing.T) {
		c := connect(t)
		assert.NoError(t, c.DeleteAll(t.Context(), testRoot(t)))
	})

	t.Run("DeleteAllRemovesForeignEphemeral", func(t *testing.T) {
		owner := connect(t)
		admin := connect(t)
		root := testRoot(t)
		ctx := t.Context()

		require.NoError(t, admin.Create(ctx, root, nil, coord.WithParents()))
		require.NoError(t, owner.Create(ctx, root+"/leader", nil, coord.Ephemeral()))

		require.NoError(t, admin.DeleteAll(ctx, root))

		ok, err := admin.Exists(ctx, root)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func runEphemeralTests(t *testing.T, connect ConnectFunc) {
	t.Run("OwnedBySession", func(t *testing.T) {
		owner := connect(t)
		root := testRoot(t)
		ctx := t.Context()

		require.NoError(t, owner.Create(ctx, root, nil, coord.WithParents()))
		require.NoError(t, owner.Create(ctx, root+"/leader", []byte("id"), coord.Ephemeral()))

		n, err := owner.Get(ctx, root+"/leader")
		require.NoError(t, err)
		assert.True(t, n.Ephemeral)
		assert.Equal(t, owner.Session(), n.Owner)
	})

	t.Run("AliveWhileOwnerConnected", func(t *testing.T) {
		owner := connect(t)
		observer := connect(t)
		root := testRoot(t)
		ctx := t.Context()

		require.NoError(t, owner.Create(ctx, root, nil, coord.WithParents()))
		require.NoError(t, owner.Create(ctx, root+"/leader", nil, coord.Ephemeral()))

		n, err := observer.Get(ctx, root+"/leader")
		require.NoError(t, err)

		alive, err := observer.Alive(ctx, n)
		require.NoError(t, err)
		assert.True(t, alive)
	})

	t.Run("RemovedOnClose", func(t *testing.T) {
		owner := connect(t)
		observer := connect(t)
		root := testRoot(t)
		ctx := t.Context()

		require.NoError(t, observer.Create(ctx, root, nil, coord.WithParents()))
		require.NoError(t, owner.Create(ctx, root+"/leader", nil, coord.Ephemeral()))

		n, err := observer.Get(ctx, root+"/leader")
		require.NoError(t, err)

		require.NoError(t, owner.Close())

		require.Eventually(t, func() bool {
			ok, err := observer.Exists(ctx, root+"/leader")
			return err == nil && !ok
		}, defaultEventually, defaultTick)

		alive, err := observer.Alive(ctx, n)
		require.NoError(t, err)
		assert.False(t, alive)

		ok, err := observer.Exists(ctx, root)
		require.NoError(t, err)
		assert.True(t, ok, "persistent parent must survive")
	})

	t.Run("PersistentNodeAlive", func(t *testing.T) {
		c := connect(t)
		root := testRoot(t)
		ctx := t.Context()

		require.NoError(t, c.Create(ctx, root, nil, coord.WithParents()))
		n, err := c.Get(ctx, root)
		require.NoError(t, err)

		alive, err := c.Alive(ctx, n)
		require.NoError(t, err)
		assert.True(t, alive)
	})
}

func runConcurrencyTests(t *testing.T, connect ConnectFunc) {
	t.Run("SingleCreateWins", func(t *testing.T) {
		root := testRoot(t)
		setup := connect(t)
		require.NoError(t, setup.Create(t.Context(), root, nil, coord.WithParents()))

		const n = 8
		clients := make([]coord.Client, n)
		for i := range clients {
			clients[i] = connect(t)
		}

		var wins, exists atomic.Int32
		var wg sync.WaitGroup
		for _, c := range clients {
			wg.Add(1)
			go func(c coord.Client) {
				defer wg.Done()
				err := c.Create(t.Context(), root+"/initialized", nil)
				switch {
				case err == nil:
					wins.Add(1)
				case assert.ErrorIs(t, err, coord.ErrNodeExists):
					exists.Add(1)
				}
			}(c)
		}
		wg.Wait()

		assert.Equal(t, int32(1), wins.Load())
		assert.Equal(t, int32(n-1), exists.Load())
	})
}
