package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	m := New()

	m.RoomsActive.Set(2)
	m.EventsReceived.WithLabelValues("chat").Inc()
	m.EventsReceived.WithLabelValues("chat").Inc()
	m.EventsDropped.Inc()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RoomsActive))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.EventsReceived.WithLabelValues("chat")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EventsDropped))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `cowatch_events_received_total{type="chat"} 2`)
	assert.Contains(t, string(body), "cowatch_rooms_active 2")
}
