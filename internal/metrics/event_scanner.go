package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Transaction outcomes reported by the event scanner.
const (
	OutcomeProcessed = "processed"
	OutcomeRejected  = "rejected"
	OutcomeCoinbase  = "coinbase"
)

var (
	eventScannerEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "blockinsight7000",
		Subsystem: "event_scanner",
		Name:      "events_total",
		Help:      "Count of processed events.",
	}, []string{"filter", "status"})

	eventScannerEventDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "blockinsight7000",
		Subsystem: "event_scanner",
		Name:      "event_duration_seconds",
		Help:      "Duration of processing a single event.",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 14), // 1s..~2.3h
	}, []string{"filter", "status"})

	eventScannerTransactionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "blockinsight7000",
		Subsystem: "event_scanner",
		Name:      "transactions_total",
		Help:      "Count of classified transactions by outcome.",
	}, []string{"filter", "outcome"})

	eventScannerSkippedBlocksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "blockinsight7000",
		Subsystem: "event_scanner",
		Name:      "skipped_blocks_total",
		Help:      "Count of window blocks that could not be loaded.",
	})

	eventScannerAddressConflictsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "blockinsight7000",
		Subsystem: "event_scanner",
		Name:      "address_conflicts_total",
		Help:      "Count of address records that already existed.",
	})
)

// EventScanner tracks metrics of the event aggregation pipeline.
type EventScanner struct{}

func NewEventScanner() *EventScanner {
	return &EventScanner{}
}

// ObserveEvent records the outcome and duration of one event under filter.
func (m EventScanner) ObserveEvent(filter string, err error, started time.Time) {
	filter = labelOrUnknown(filter)
	st := status(err)

	eventScannerEventsTotal.WithLabelValues(filter, st).Inc()
	eventScannerEventDuration.WithLabelValues(filter, st).Observe(time.Since(started).Seconds())
}

func (m EventScanner) ObserveTransaction(filter, outcome string) {
	eventScannerTransactionsTotal.WithLabelValues(labelOrUnknown(filter), outcome).Inc()
}

func (m EventScanner) ObserveSkippedBlocks(n int) {
	if n > 0 {
		eventScannerSkippedBlocksTotal.Add(float64(n))
	}
}

func (m EventScanner) ObserveAddressConflicts(n uint64) {
	if n > 0 {
		eventScannerAddressConflictsTotal.Add(float64(n))
	}
}
