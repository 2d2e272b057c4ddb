package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/ordo/pkg/instance"
)

type stubMetrics struct{}

func (stubMetrics) ObserveOperation(string, string, time.Duration) {}
func (stubMetrics) SetLeaderLive(bool)                              {}

func TestRegistryLifecycle(t *testing.T) {
	reset()
	t.Cleanup(reset)

	assert.False(t, IsEnabled())
	assert.Nil(t, GetRegistry())

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	reg := InitRegistry()
	require.NotNil(t, reg)
	assert.True(t, IsEnabled())
	assert.Same(t, reg, InitRegistry())

	rec = httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestNewAdminMetrics(t *testing.T) {
	reset()
	saved := newPrometheusAdminMetrics
	t.Cleanup(func() {
		reset()
		newPrometheusAdminMetrics = saved
	})

	RegisterAdminMetricsConstructor(func() instance.Metrics { return stubMetrics{} })
	assert.Nil(t, NewAdminMetrics(), "disabled metrics must yield nil")

	InitRegistry()
	assert.NotNil(t, NewAdminMetrics())

	newPrometheusAdminMetrics = nil
	assert.Nil(t, NewAdminMetrics())
}
