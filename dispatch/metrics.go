package dispatch

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// attemptDuration - время одной попытки доставки
	attemptDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bulkmail_delivery_duration_seconds",
			Help:    "Duration of a single delivery attempt",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"status"},
	)

	// attemptsTotal - счётчик попыток доставки
	attemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bulkmail_delivery_attempts_total",
			Help: "Delivery attempts by outcome",
		},
		[]string{"status"},
	)

	// batchesTotal - счётчик обработанных пачек
	batchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bulkmail_batches_total",
			Help: "Dispatched batches by result",
		},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(attemptDuration)
	prometheus.MustRegister(attemptsTotal)
	prometheus.MustRegister(batchesTotal)
}

func recordAttempt(status Status, seconds float64) {
	attemptDuration.WithLabelValues(string(status)).Observe(seconds)
	attemptsTotal.WithLabelValues(string(status)).Inc()
}

// recordBatch labels a batch as ok, partial, failed or rejected.
func recordBatch(result string) {
	batchesTotal.WithLabelValues(result).Inc()
}
