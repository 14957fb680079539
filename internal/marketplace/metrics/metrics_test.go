package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	m := New()

	m.ConversionDone("direct")
	m.ConversionDone("direct")
	m.ConversionDone("unavailable")
	m.StaleRateUsed()
	m.RefreshPairDone("updated")
	m.RefreshFinished(time.Unix(1715331600, 0))

	assert.InDelta(t, 2, testutil.ToFloat64(m.conversions.WithLabelValues("direct")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.conversions.WithLabelValues("unavailable")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.staleRates), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.refreshedPairs.WithLabelValues("updated")), 0)
	assert.InDelta(t, 1715331600, testutil.ToFloat64(m.lastRefreshTime), 0)
}

func TestHandler(t *testing.T) {
	m := New()
	m.ConversionDone("composed")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `marketplace_conversions_total{outcome="composed"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}
