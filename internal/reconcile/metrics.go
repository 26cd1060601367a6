package reconcile

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pushTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_sync_push_total",
			Help: "Write dispatches to the remote store by action and outcome",
		},
		[]string{"action", "outcome"},
	)

	pullTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_sync_pull_total",
			Help: "Full reads from the remote store by outcome",
		},
		[]string{"outcome"},
	)

	quarantinedRowsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "portal_sync_quarantined_rows_total",
			Help: "Remote rows dropped during hydration for failing validation",
		},
	)
)
