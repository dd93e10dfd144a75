package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/ndquoc/ecom-service/pkg/metrics"
)

// statusRecorder captures the status code for the request counter. It does
// not forward http.Flusher or http.Hijacker; all routes here write plain
// JSON responses.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// instrument records request counts by status and latency per handler.
func instrument(m *metrics.ServerMetrics, name string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next(rec, r)

		m.Requests.WithLabelValues(name, strconv.Itoa(rec.status)).Inc()
		m.LatencyMS.WithLabelValues(name).Observe(float64(time.Since(start).Milliseconds()))
	}
}
