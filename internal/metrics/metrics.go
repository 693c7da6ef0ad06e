// Package metrics exposes Prometheus counters for the arcade server.
package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "brainarcade"

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests received",
	}, []string{"method", "route", "status"})

	httpLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	sessionsStarted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sessions_started_total",
		Help:      "Game sessions started",
	}, []string{"game", "daily"})

	sessionsFinished = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sessions_finished_total",
		Help:      "Game sessions that reached finished, by whether every round was played",
	}, []string{"game", "completed"})

	sessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "sessions_active",
		Help:      "Sessions currently holding a live clock",
	})

	answers = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "answers_total",
		Help:      "Answer submissions by verdict",
	}, []string{"game", "correct"})

	assists = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "assists_revealed_total",
		Help:      "Assist reveal requests",
	}, []string{"game"})

	finalScore = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "session_score",
		Help:      "Final score of finished sessions",
		Buckets:   prometheus.ExponentialBuckets(5, 2, 10),
	}, []string{"game"})
)

// SessionStarted counts a new session and marks it active.
func SessionStarted(game string, daily bool) {
	sessionsStarted.WithLabelValues(game, strconv.FormatBool(daily)).Inc()
	sessionsActive.Inc()
}

// SessionFinished counts a finished session and releases its active slot.
func SessionFinished(game string, completed bool, score int) {
	sessionsFinished.WithLabelValues(game, strconv.FormatBool(completed)).Inc()
	finalScore.WithLabelValues(game).Observe(float64(score))
	sessionsActive.Dec()
}

// Answer counts one submission.
func Answer(game string, correct bool) {
	answers.WithLabelValues(game, strconv.FormatBool(correct)).Inc()
}

// Assist counts one reveal.
func Assist(game string) {
	assists.WithLabelValues(game).Inc()
}

type responseRecorder struct {
	http.ResponseWriter
	status int
}

func (r *responseRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *responseRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Hijack keeps websocket upgrades working behind the middleware.
func (r *responseRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if h, ok := r.ResponseWriter.(http.Hijacker); ok {
		return h.Hijack()
	}
	return nil, nil, fmt.Errorf("metrics: underlying ResponseWriter does not support hijacking")
}

// Middleware records request count and latency, labelled by chi route pattern.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(rec, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		labels := prometheus.Labels{
			"method": r.Method,
			"route":  route,
			"status": strconv.Itoa(rec.status),
		}
		httpRequests.With(labels).Inc()
		httpLatency.With(labels).Observe(time.Since(start).Seconds())
	})
}

// Handler exposes the default Prometheus metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
