package metrics

import (
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.SnapshotBuilt(time.Millisecond, 3, nil)
	m.CacheLookup(true)
	m.IconResolved("written")
	m.ActionDone("close", errors.New("boom"))
	assert.Nil(t, m.Registry())
}

func TestCounters(t *testing.T) {
	m := New()

	m.CacheLookup(true)
	m.CacheLookup(true)
	m.CacheLookup(false)
	m.SnapshotBuilt(5*time.Millisecond, 4, nil)
	m.SnapshotBuilt(time.Millisecond, 0, errors.New("io"))
	m.ActionDone("close", errors.New("gone"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.cacheLookups.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheLookups.WithLabelValues("miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.snapshotBuilds.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.snapshotBuilds.WithLabelValues("error")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.snapshotWindows))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.actions.WithLabelValues("close", "error")))
}

func TestHandlerServesExposition(t *testing.T) {
	m := New()
	m.IconResolved("written")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), `xswitcher_icon_resolutions_total{outcome="written"} 1`)
}
