package metrics

import (
	"time"

	"github.com/goodnatureofminers/blockinsight7000-eventscan/internal/utxo/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	summaryStoreOperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "blockinsight7000",
		Subsystem: "summary_store",
		Name:      "operations_total",
		Help:      "Count of ClickHouse event summary operations.",
	}, []string{"operation", "coin", "network", "status"})
	summaryStoreOperationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "blockinsight7000",
		Subsystem: "summary_store",
		Name:      "operation_duration_seconds",
		Help:      "Duration of ClickHouse event summary operations.",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	}, []string{"operation", "coin", "network"})
	summaryStoreRowsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "blockinsight7000",
		Subsystem: "summary_store",
		Name:      "rows_total",
		Help:      "Event summary rows sent to or read from ClickHouse.",
	}, []string{"operation", "coin", "network"})
)

// ClickhouseRepository tracks the event summary store of one coin and network.
type ClickhouseRepository struct {
	coin    string
	network string
}

func NewClickhouseRepository(coin model.Coin, network model.Network) *ClickhouseRepository {
	return &ClickhouseRepository{coin: labelOrUnknown(string(coin)), network: labelOrUnknown(string(network))}
}

// Observe records duration and status of a store operation.
func (m ClickhouseRepository) Observe(operation string, err error, started time.Time) {
	summaryStoreOperationsTotal.WithLabelValues(operation, m.coin, m.network, status(err)).Inc()
	summaryStoreOperationDuration.WithLabelValues(operation, m.coin, m.network).Observe(time.Since(started).Seconds())
}

// ObserveRows adds n rows handled by a successful operation.
func (m ClickhouseRepository) ObserveRows(operation string, n int) {
	if n <= 0 {
		return
	}
	summaryStoreRowsTotal.WithLabelValues(operation, m.coin, m.network).Add(float64(n))
}
