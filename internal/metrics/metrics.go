package metrics

import (
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds every banas collector. The CLI and the dev server expose it.
	Registry = prometheus.NewRegistry()

	// HTTPRequestsTotal counts requests served by the dev server
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "banas",
			Subsystem: "devserver",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "banas",
			Subsystem: "devserver",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
		},
		[]string{"method", "path"},
	)

	// ClientRequestsTotal counts outbound calls made by the resource client
	ClientRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "banas",
			Subsystem: "client",
			Name:      "requests_total",
			Help:      "Total number of backend requests issued.",
		},
		[]string{"method", "path", "status"},
	)

	ClientRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "banas",
			Subsystem: "client",
			Name:      "request_duration_seconds",
			Help:      "Round-trip time of backend requests.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~40s
		},
		[]string{"method", "path"},
	)

	TokenRefreshTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "banas",
			Subsystem: "client",
			Name:      "token_refresh_total",
			Help:      "Access token refresh attempts.",
		},
		[]string{"result"},
	)

	// StoreActionsTotal counts store actions by outcome (ok, error, stale)
	StoreActionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "banas",
			Subsystem: "store",
			Name:      "actions_total",
			Help:      "Store actions by store, action and outcome.",
		},
		[]string{"store", "action", "outcome"},
	)
)

func init() {
	Registry.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		ClientRequestsTotal,
		ClientRequestDuration,
		TokenRefreshTotal,
		StoreActionsTotal,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler exposes Registry in the Prometheus text format
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// ObserveClientRequest records one outbound call. status 0 means the
// request never got a response.
func ObserveClientRequest(method, path string, status int, elapsed time.Duration) {
	p := CanonicalPath(path)
	ClientRequestsTotal.WithLabelValues(method, p, strconv.Itoa(status)).Inc()
	ClientRequestDuration.WithLabelValues(method, p).Observe(elapsed.Seconds())
}

// StoreAction records the outcome of a store action
func StoreAction(store, action, outcome string) {
	StoreActionsTotal.WithLabelValues(store, action, outcome).Inc()
}

var (
	numericSegment = regexp.MustCompile(`/\d+(/|$)`)
	queryPart      = regexp.MustCompile(`\?.*$`)
)

// CanonicalPath folds ids and query strings so label cardinality stays bounded:
// /customer/42/ becomes /customer/:id/
func CanonicalPath(path string) string {
	path = queryPart.ReplaceAllString(path, "")
	for numericSegment.MatchString(path) {
		path = numericSegment.ReplaceAllString(path, "/:id$1")
	}
	return path
}
