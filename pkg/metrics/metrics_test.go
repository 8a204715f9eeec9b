package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveTurn(t *testing.T) {
	c := New()
	c.ObserveTurn("", time.Millisecond)
	c.ObserveTurn("", time.Millisecond)
	c.ObserveTurn("E_TYPE", time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.Turns(OutcomeOK, "")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Turns(OutcomeError, "E_TYPE")))
	assert.Equal(t, 0.0, testutil.ToFloat64(c.Turns(OutcomeError, "E_LEX")))
}

func TestSetBindings(t *testing.T) {
	c := New()
	c.SetBindings(5)
	assert.Equal(t, 5.0, testutil.ToFloat64(c.Bindings()))
}

func TestNilCollectorIsNoop(t *testing.T) {
	var c *Collector
	assert.NotPanics(t, func() {
		c.ObserveTurn("E_LEX", time.Second)
		c.SetBindings(1)
	})
}

func TestRouter(t *testing.T) {
	c := New()
	c.ObserveTurn("", time.Millisecond)
	router := c.Router()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `doug_turns_total{code="",outcome="ok"} 1`)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok\n", rec.Body.String())
}
