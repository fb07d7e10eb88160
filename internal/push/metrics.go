package push

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sentTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "carelink_push_sent_total",
		Help: "Push messages accepted by the push service.",
	})
	failedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "carelink_push_failed_total",
		Help: "Push deliveries that failed for any reason.",
	})
	prunedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "carelink_push_pruned_total",
		Help: "Subscriptions deleted after the push service reported them gone.",
	})
	skippedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "carelink_push_skipped_total",
		Help: "Users skipped by the preference gate during fan-out.",
	})
)
