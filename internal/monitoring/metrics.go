package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for Keepr backup and transfer operations
var (
	BackupRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "keepr_backup_runs_total",
			Help: "Backup runs by outcome and scope",
		},
		[]string{"status", "scope"},
	)

	BackupDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "keepr_backup_duration_seconds",
			Help:    "Wall time of successful backup runs",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		},
	)

	ImportItems = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "keepr_import_items_total",
			Help: "Imported items by result",
		},
		[]string{"result"},
	)

	RestoreRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "keepr_restore_runs_total",
			Help: "Full restore attempts by outcome",
		},
		[]string{"status"},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "keepr_http_requests_total",
			Help: "HTTP requests by method, path and status code",
		},
		[]string{"method", "path", "status"},
	)
)
