package chroot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	instanceerrors "github.com/marmos91/ordo/pkg/instance/errors"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		connect string
		hosts   []string
		root    string
	}{
		{"single host", "localhost/ordo", []string{"localhost"}, "/ordo"},
		{"host with port", "localhost:9999/ordo/app", []string{"localhost:9999"}, "/ordo/app"},
		{"host list", "zk1:2181,zk2:2181,zk3/ordo/app", []string{"zk1:2181", "zk2:2181", "zk3"}, "/ordo/app"},
		{"trailing slash", "localhost/ordo/app/", []string{"localhost"}, "/ordo/app"},
		{"deep root", "localhost/very/long/path", []string{"localhost"}, "/very/long/path"},
		{"ipv6", "[::1]:2379/ordo", []string{"[::1]:2379"}, "/ordo"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			addr, err := Parse(tt.connect)
			require.NoError(t, err)
			assert.Equal(t, tt.hosts, addr.Hosts)
			assert.Equal(t, tt.root, addr.Root)
		})
	}
}

func TestParseRejectsMissingChroot(t *testing.T) {
	for _, connect := range []string{
		"localhost",
		"localhost/",
		"localhost:9999",
		"localhost:9999/",
		"localhost:9999//",
		"",
		"/ordo",
		"a,,b/ordo",
		"localhost:port/ordo",
		"localhost:70000/ordo",
		"localhost/ordo//app",
		"localhost/ordo/../app",
	} {
		t.Run(connect, func(t *testing.T) {
			_, err := Parse(connect)
			require.Error(t, err)
			assert.True(t, instanceerrors.IsInvalidConfiguration(err), "got %v", err)
		})
	}
}

func TestDistinctRootsForPrefixes(t *testing.T) {
	a, err := Parse("localhost/very/long/path")
	require.NoError(t, err)
	b, err := Parse("localhost/very/long/path2")
	require.NoError(t, err)

	assert.NotEqual(t, a.Root, b.Root)
}

func TestStringIsCanonical(t *testing.T) {
	addr, err := Parse("zk1:2181,zk2/ordo/app///")
	require.NoError(t, err)
	assert.Equal(t, "zk1:2181,zk2/ordo/app", addr.String())

	again, err := Parse(addr.String())
	require.NoError(t, err)
	assert.Equal(t, addr, again)
}

func TestEndpoints(t *testing.T) {
	addr, err := Parse("etcd1,etcd2:2380/ordo")
	require.NoError(t, err)
	assert.Equal(t, []string{"etcd1:2379", "etcd2:2380"}, addr.Endpoints(2379))
}

func TestJoin(t *testing.T) {
	assert.Equal(t, "/ordo/app/leader", Join("/ordo/app", "leader"))
	assert.Equal(t, "/ordo/app", Join("/ordo/app"))
}
