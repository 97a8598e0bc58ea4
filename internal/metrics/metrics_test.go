// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New()

	m.Counter("sentences").Inc()
	m.Counter("sentences").Inc()
	m.Counter("candidates").Inc()
	m.Fault("analyse")
	m.Shard("read")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Counter("sentences")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Counter("candidates")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.faults.WithLabelValues("analyse")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.shards.WithLabelValues("read")))
}

func TestHandler(t *testing.T) {
	m := New()
	m.Counter("sentences").Add(3)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `clause_engine_counted_items_total{counter="sentences"} 3`)
}
