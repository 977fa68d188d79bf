package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sweepRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vault_retention_sweep_runs_total",
			Help: "Retention sweep runs by result (success, partial, skipped, error).",
		},
		[]string{"result"},
	)
	sweepFilesPurgedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vault_retention_files_purged_total",
		Help: "Files permanently deleted by the retention sweeper.",
	})
	sweepFilesFailedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vault_retention_files_failed_total",
		Help: "Files the retention sweeper failed to purge.",
	})
	sweepTokensPurgedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vault_retention_tokens_purged_total",
		Help: "Expired public tokens removed by the retention sweeper.",
	})
	sweepDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "vault_retention_sweep_duration_seconds",
		Help:    "Duration of a retention sweep.",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
	})
	publicLinkAccessTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vault_public_link_access_total",
			Help: "Public link resolutions by result (ok, expired, not_found, error).",
		},
		[]string{"result"},
	)
	auditTrimmedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vault_audit_entries_trimmed_total",
		Help: "Audit entries evicted by the per-actor cap.",
	})
)
