package cli

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	execDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bulkmail_executor_duration_seconds",
			Help:    "Длительность запуска внешней команды",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"command", "status"},
	)

	execFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bulkmail_executor_failures_total",
			Help: "Запуски, завершившиеся ошибкой, по причине",
		},
		[]string{"command", "reason"},
	)
)

func init() {
	prometheus.MustRegister(execDuration, execFailures)
}

// recordExecution: reason пустой для успешного запуска
func recordExecution(command, reason string, elapsed time.Duration) {
	status := "ok"
	if reason != "" {
		status = "error"
		execFailures.WithLabelValues(command, reason).Inc()
	}
	execDuration.WithLabelValues(command, status).Observe(elapsed.Seconds())
}
