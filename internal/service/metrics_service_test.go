package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMetricsObserveExport(t *testing.T) {
	m := NewMetricsService()

	m.ObserveExport("csv", ExportOutcomeSuccess, 120)
	m.ObserveExport("csv", "EXPORT_TOO_LARGE", 0)
	m.ObserveExport("pdf", ExportOutcomeSuccess, 5)
	m.ObserveExportJob("FINISHED")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.exportsTotal.WithLabelValues("csv", ExportOutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.exportsTotal.WithLabelValues("csv", "EXPORT_TOO_LARGE")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.exportJobs.WithLabelValues("FINISHED")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.exportRows))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "placement_export_requests_total"))
}

func TestMetricsNilReceiverIsSafe(t *testing.T) {
	var m *MetricsService
	m.ObserveExport("csv", ExportOutcomeSuccess, 1)
	m.ObserveHTTPRequest(http.MethodGet, "/", http.StatusOK, time.Millisecond)
	m.ObserveCacheLookup("colleges", true, time.Millisecond)
	m.ObserveCacheWrite("set", time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestCacheLookupsByKeyspace(t *testing.T) {
	m := NewMetricsService()
	cache := NewCacheService(newMemCache(), m, time.Minute, zap.NewNop(), true)
	ctx := context.Background()

	var out []string
	hit, err := cache.Get(ctx, "colleges:all", &out)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, cache.Set(ctx, "colleges:all", []string{"a"}, 0))
	hit, err = cache.Get(ctx, "colleges:all", &out)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, []string{"a"}, out)

	assert.Equal(t, 0.5, m.hitRatio())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheLookups.WithLabelValues("colleges", "hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheLookups.WithLabelValues("colleges", "miss")))

	disabled := NewCacheService(newMemCache(), m, time.Minute, zap.NewNop(), false)
	assert.False(t, disabled.Enabled())
	hit, err = disabled.Get(ctx, "colleges:all", &out)
	require.NoError(t, err)
	assert.False(t, hit)
}
