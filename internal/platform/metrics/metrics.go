package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	initOnce sync.Once

	httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "gateway_http_in_flight_requests",
		Help: "In-flight gateway HTTP requests.",
	})

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_http_requests_total",
			Help: "Total gateway HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gateway_http_request_duration_seconds",
			Help:    "Gateway HTTP latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	authorityCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "authority_requests_total",
			Help: "Requests sent to the remote authority.",
		},
		[]string{"method", "path", "status"},
	)

	authorityDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "authority_request_duration_seconds",
			Help:    "Remote authority latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	advisoryFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "advisory_failures_total",
			Help: "Swallowed failures that never block the primary action.",
		},
		[]string{"kind"},
	)
)

// Advisory failure kinds.
const (
	KindFaceDetect   = "face_detect"
	KindPhotoPersist = "photo_persist"
	KindJournal      = "journal"
)

// Init registra las métricas en el registry default (una sola vez).
func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(
			httpInFlight,
			httpRequestsTotal,
			httpRequestDuration,
			authorityCalls,
			authorityDuration,
			advisoryFailures,
		)
	})
}

func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveAuthority tiene la firma de httpclient.Observer.
func ObserveAuthority(method, path string, status int, elapsed time.Duration, _ error) {
	code := "error"
	if status > 0 {
		code = strconv.Itoa(status)
	}
	authorityCalls.WithLabelValues(method, path, code).Inc()
	authorityDuration.WithLabelValues(method, path).Observe(elapsed.Seconds())
}

func AdvisoryFailure(kind string) {
	advisoryFailures.WithLabelValues(kind).Inc()
}

// Instrument mide RPS/latencia usando el patrón de ruta de chi (no el path crudo).
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httpInFlight.Inc()
		defer httpInFlight.Dec()

		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(sw, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil {
			if p := rc.RoutePattern(); p != "" {
				route = p
			}
		}

		httpRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(sw.code)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}
