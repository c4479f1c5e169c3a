package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"flanergide/pkg/store"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flanergide_http_requests_total",
		Help: "HTTP requests by route, method and status.",
	}, []string{"route", "method", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "flanergide_http_request_duration_seconds",
		Help:    "HTTP request latency by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})

	EventsStored = promauto.NewCounter(prometheus.CounterOpts{
		Name: "flanergide_events_stored_total",
		Help: "Events accepted into the memory store.",
	})

	SearchesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "flanergide_searches_total",
		Help: "Semantic search queries served.",
	})

	BlogRefreshTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flanergide_blog_refresh_total",
		Help: "Blog refresh runs by outcome.",
	}, []string{"outcome"})
)

func init() {
	promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "flanergide_event_db_bytes",
		Help: "Best-effort on-disk size of the event DB.",
	}, func() float64 {
		return float64(store.DiskUsage())
	})
}

// Middleware records request counts and latency. The route label uses the
// mux route template so path parameters do not explode cardinality.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		srw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(srw, r)

		route := r.URL.Path
		if cur := mux.CurrentRoute(r); cur != nil {
			if tmpl, err := cur.GetPathTemplate(); err == nil {
				route = tmpl
			}
		}
		requestsTotal.WithLabelValues(route, r.Method, strconv.Itoa(srw.status)).Inc()
		requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// statusRecorder captures the response status code.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
