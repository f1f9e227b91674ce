package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	postgresRepositoryRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "blockinsight7000",
		Subsystem: "postgres_repository",
		Name:      "operations_total",
		Help:      "Count of address store operations.",
	}, []string{"operation", "status"})
	postgresRepositoryRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "blockinsight7000",
		Subsystem: "postgres_repository",
		Name:      "operation_duration_seconds",
		Help:      "Duration of address store operations.",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 15, 20, 30, 60},
	}, []string{"operation", "status"})
)

// PostgresRepository tracks metrics for the Postgres address store.
type PostgresRepository struct{}

func NewPostgresRepository() *PostgresRepository {
	return &PostgresRepository{}
}

// Observe records duration and status of a store operation.
func (m PostgresRepository) Observe(operation string, err error, started time.Time) {
	st := status(err)
	postgresRepositoryRequestsTotal.WithLabelValues(operation, st).Inc()
	postgresRepositoryRequestDuration.WithLabelValues(operation, st).Observe(time.Since(started).Seconds())
}
