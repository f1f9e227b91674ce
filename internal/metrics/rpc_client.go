package metrics

import (
	"time"

	"github.com/goodnatureofminers/blockinsight7000-eventscan/internal/utxo/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	rpcRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "blockinsight7000",
		Subsystem: "node_rpc",
		Name:      "calls_total",
		Help:      "Count of JSON-RPC calls made to the node.",
	}, []string{"operation", "coin", "network", "status"})
	rpcRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "blockinsight7000",
		Subsystem: "node_rpc",
		Name:      "call_duration_seconds",
		Help:      "Duration of JSON-RPC calls made to the node.",
		Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
	}, []string{"operation", "coin", "network"})
	rpcThrottleWait = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "blockinsight7000",
		Subsystem: "node_rpc",
		Name:      "throttle_wait_seconds",
		Help:      "Time calls spent waiting for the request rate limiter.",
		Buckets:   []float64{0, .001, .005, .01, .05, .1, .5, 1},
	}, []string{"coin", "network"})
)

// RPCClient labels node calls with the coin and network being scanned.
type RPCClient struct {
	coin    string
	network string
}

func NewRPCClient(coin model.Coin, network model.Network) *RPCClient {
	return &RPCClient{coin: labelOrUnknown(string(coin)), network: labelOrUnknown(string(network))}
}

// Observe counts one call by status. Durations are kept per operation only.
func (m RPCClient) Observe(operation string, err error, started time.Time) {
	rpcRequestsTotal.WithLabelValues(operation, m.coin, m.network, status(err)).Inc()
	rpcRequestDuration.WithLabelValues(operation, m.coin, m.network).Observe(time.Since(started).Seconds())
}

func (m RPCClient) ObserveThrottle(wait time.Duration) {
	if wait < 0 {
		wait = 0
	}
	rpcThrottleWait.WithLabelValues(m.coin, m.network).Observe(wait.Seconds())
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

func labelOrUnknown(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
