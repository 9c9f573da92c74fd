package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.ObserveSave(nil)
	m.ObserveSave(errors.New("disk full"))
	m.ObserveSave(nil)
	m.ObserveLoad(ResultCorrupt)
	m.ObserveReload(nil)
	m.SubscriberAdded()
	m.SubscriberAdded()
	m.SubscriberRemoved()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.saves.WithLabelValues(ResultOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.saves.WithLabelValues(ResultError)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.loads.WithLabelValues(ResultCorrupt)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.reloads.WithLabelValues(ResultOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.subscribers))
}

func TestMetrics_NilIsSafe(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.ObserveSave(nil)
		m.ObserveLoad(ResultOK)
		m.ObserveReload(nil)
		m.SubscriberAdded()
		m.SubscriberRemoved()
	})
}

func TestMetrics_HandlerServesPrivateRegistry(t *testing.T) {
	m := New()
	m.ObserveSave(nil)

	count, err := testutil.GatherAndCount(m.registry, "habit_store_saves_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "habit_store_saves_total")
	assert.NotContains(t, w.Body.String(), "go_goroutines", "process collectors live on the default registry")
}
