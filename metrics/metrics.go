package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "sopdesk", Name: "http_requests_total", Help: "Number of HTTP requests by method, route and status."},
		[]string{"method", "route", "status"},
	)
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Namespace: "sopdesk", Name: "http_request_duration_seconds", Help: "HTTP request latency by method and route.", Buckets: prometheus.DefBuckets},
		[]string{"method", "route"},
	)
	VersionSnapshots = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "sopdesk", Name: "version_snapshots_total", Help: "Number of SOP version snapshots by reason."},
		[]string{"reason"},
	)
	RenumberedRows = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "sopdesk", Name: "renumbered_rows_total", Help: "Number of rows whose sequence value was rewritten, by collection."},
		[]string{"collection"},
	)
)

// Snapshot reasons and renumbered collections.
const (
	ReasonUpdate  = "update"
	ReasonRestore = "restore"

	CollectionSteps     = "steps"
	CollectionPathItems = "path_items"
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(HTTPRequests)
	reg.MustRegister(HTTPDuration)
	reg.MustRegister(VersionSnapshots)
	reg.MustRegister(RenumberedRows)
}
