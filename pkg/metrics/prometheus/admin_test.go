package prometheus

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/ordo/pkg/instance"
)

func TestAdminMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewAdminMetrics(reg)

	var _ instance.Metrics = m

	m.ObserveOperation(instance.OpInitialize, "ok", 20*time.Millisecond)
	m.ObserveOperation(instance.OpInitialize, "AlreadyInitialized", time.Millisecond)
	m.ObserveOperation(instance.OpRemove, "ok", time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.operations.WithLabelValues(instance.OpInitialize, "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.operations.WithLabelValues(instance.OpInitialize, "AlreadyInitialized")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.operations.WithLabelValues(instance.OpRemove, "ok")))

	m.SetLeaderLive(true)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.leaderLive))
	m.SetLeaderLive(false)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.leaderLive))

	mfs, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(mfs))
	for _, mf := range mfs {
		names = append(names, mf.GetName())
	}
	assert.ElementsMatch(t, []string{
		"ordo_admin_operations_total",
		"ordo_admin_operation_duration_seconds",
		"ordo_leader_live",
	}, names)
}

func TestAdminMetricsNilSafe(t *testing.T) {
	var m *adminMetrics
	m.ObserveOperation(instance.OpStatus, "ok", time.Millisecond)
	m.SetLeaderLive(true)
}
