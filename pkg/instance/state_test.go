package instance

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/ordo/pkg/coord"
	coordmemory "github.com/marmos91/ordo/pkg/coord/memory"
	instanceerrors "github.com/marmos91/ordo/pkg/instance/errors"
)

func TestStateStore_CreateAndDestroy(t *testing.T) {
	ctx := context.Background()
	client := coordmemory.NewServer().Connect()
	s := NewStateStore(client, "/a/b/c")

	ok, err := s.Exists(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Create(ctx, []byte("cfg"), Marker{Application: "app"}))

	ok, err = s.Exists(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	children, err := client.Children(ctx, "/a/b/c")
	require.NoError(t, err)
	assert.Equal(t, []string{ConfigNode, MarkerNode}, children)

	require.NoError(t, s.Destroy(ctx))
	ok, err = client.Exists(ctx, "/a/b/c")
	require.NoError(t, err)
	assert.False(t, ok)

	// Ancestors outside the root are left alone.
	ok, err = client.Exists(ctx, "/a/b")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, s.Destroy(ctx), "destroying an absent subtree is a no-op")
}

func TestStateStore_CreateTwiceFailsAlreadyInitialized(t *testing.T) {
	ctx := context.Background()
	s := NewStateStore(coordmemory.NewServer().Connect(), testRoot)

	require.NoError(t, s.Create(ctx, nil, Marker{}))
	err := s.Create(ctx, []byte("new"), Marker{})
	assert.True(t, instanceerrors.IsAlreadyInitialized(err), "got %v", err)
}

func TestStateStore_CreateOverwritesLeftoverConfig(t *testing.T) {
	ctx := context.Background()
	client := coordmemory.NewServer().Connect()
	require.NoError(t, client.Create(ctx, ConfigPath(testRoot), []byte("old"), coord.WithParents()))

	s := NewStateStore(client, testRoot)
	require.NoError(t, s.Create(ctx, []byte("new"), Marker{}))

	cfg, err := s.SharedConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, "new", string(cfg))
}

func TestStateStore_LeaderLiveness(t *testing.T) {
	ctx := context.Background()
	server := coordmemory.NewServer()
	s := NewStateStore(server.Connect(), testRoot)

	live, err := s.LeaderIsLive(ctx)
	require.NoError(t, err)
	assert.False(t, live)

	leader := server.Connect()
	require.NoError(t, leader.Create(ctx, LeaderPath(testRoot), []byte(`{"id":"r1"}`), coord.WithParents(), coord.Ephemeral()))

	info, err := s.CurrentLeader(ctx)
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.Equal(t, "r1", info.ID)

	server.Disconnect(leader.Session())
	live, err = s.LeaderIsLive(ctx)
	require.NoError(t, err)
	assert.False(t, live)

	server.Reconnect(leader.Session())
	live, err = s.LeaderIsLive(ctx)
	require.NoError(t, err)
	assert.True(t, live)

	server.Expire(leader.Session())
	live, err = s.LeaderIsLive(ctx)
	require.NoError(t, err)
	assert.False(t, live)
}

func TestStateStore_LeaderWithoutBodyUsesSession(t *testing.T) {
	ctx := context.Background()
	server := coordmemory.NewServer()
	s := NewStateStore(server.Connect(), testRoot)

	leader := server.Connect()
	require.NoError(t, leader.Create(ctx, LeaderPath(testRoot), nil, coord.WithParents(), coord.Ephemeral()))

	info, err := s.CurrentLeader(ctx)
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.Equal(t, string(leader.Session()), info.ID)
}

func TestStateStore_UndecodableLeaderIsStillLive(t *testing.T) {
	ctx := context.Background()
	server := coordmemory.NewServer()
	s := NewStateStore(server.Connect(), testRoot)

	leader := server.Connect()
	require.NoError(t, leader.Create(ctx, LeaderPath(testRoot), []byte("not json"), coord.WithParents(), coord.Ephemeral()))

	live, err := s.LeaderIsLive(ctx)
	require.NoError(t, err)
	assert.True(t, live)

	info, err := s.CurrentLeader(ctx)
	require.NoError(t, err)
	assert.Equal(t, string(leader.Session()), info.ID)
	assert.Empty(t, info.Host)
}

func TestStateStore_ClosedClientIsUnavailable(t *testing.T) {
	client := coordmemory.NewServer().Connect()
	require.NoError(t, client.Close())

	s := NewStateStore(client, testRoot)
	_, err := s.Exists(context.Background())
	require.Error(t, err)
	assert.Equal(t, instanceerrors.ErrCodeUnavailable, instanceerrors.CodeOf(err))
	assert.ErrorIs(t, err, coordmemory.ErrSessionExpired)
}
