package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionCounters(t *testing.T) {
	before := testutil.ToFloat64(sessionsActive)

	SessionStarted("metrics-test", false)
	assert.Equal(t, before+1, testutil.ToFloat64(sessionsActive))
	assert.Equal(t, 1.0, testutil.ToFloat64(sessionsStarted.WithLabelValues("metrics-test", "false")))

	Answer("metrics-test", true)
	Assist("metrics-test")
	SessionFinished("metrics-test", true, 40)

	assert.Equal(t, before, testutil.ToFloat64(sessionsActive))
	assert.Equal(t, 1.0, testutil.ToFloat64(sessionsFinished.WithLabelValues("metrics-test", "true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(answers.WithLabelValues("metrics-test", "true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(assists.WithLabelValues("metrics-test")))
}

func TestMiddlewareUsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware)
	r.Get("/things/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	r.Handle("/metrics", Handler())

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/things/42", nil))
	require.Equal(t, http.StatusTeapot, rr.Code)

	assert.Equal(t, 1.0, testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/things/{id}", "418")))

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, strings.Contains(rr.Body.String(), "brainarcade_http_requests_total"))
}
