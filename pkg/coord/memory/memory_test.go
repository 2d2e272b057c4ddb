package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/ordo/pkg/coord"
	"github.com/marmos91/ordo/pkg/coord/coordtest"
)

func TestConformance(t *testing.T) {
	server := NewServer()
	coordtest.RunConformanceSuite(t, func(t *testing.T) coord.Client {
		c := server.Connect()
		t.Cleanup(func() { _ = c.Close() })
		return c
	})
}

func TestDisconnectedSessionKeepsNodeButIsNotAlive(t *testing.T) {
	ctx := context.Background()
	server := NewServer()
	owner := server.Connect()
	observer := server.Connect()

	require.NoError(t, owner.Create(ctx, "/app/leader", nil, coord.WithParents(), coord.Ephemeral()))
	server.Disconnect(owner.Session())

	n, err := observer.Get(ctx, "/app/leader")
	require.NoError(t, err, "node must remain while the session is only disconnected")

	alive, err := observer.Alive(ctx, n)
	require.NoError(t, err)
	assert.False(t, alive)

	server.Reconnect(owner.Session())
	alive, err = observer.Alive(ctx, n)
	require.NoError(t, err)
	assert.True(t, alive)
}

func TestExpireRemovesEphemeralNodes(t *testing.T) {
	ctx := context.Background()
	server := NewServer()
	owner := server.Connect()
	observer := server.Connect()

	require.NoError(t, owner.Create(ctx, "/app/leader", nil, coord.WithParents(), coord.Ephemeral()))
	server.Expire(owner.Session())

	ok, err := observer.Exists(ctx, "/app/leader")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, SessionExpired, server.SessionState(owner.Session()))

	_, err = owner.Get(ctx, "/app")
	assert.ErrorIs(t, err, ErrSessionExpired)
}

func TestSharedServer(t *testing.T) {
	a := Shared(t.Name())
	b := Shared(t.Name())
	assert.Same(t, a, b)
	assert.NotSame(t, a, Shared(t.Name()+"-other"))
}

func TestCanceledContext(t *testing.T) {
	c := NewServer().Connect()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Exists(ctx, "/")
	assert.ErrorIs(t, err, context.Canceled)
}
