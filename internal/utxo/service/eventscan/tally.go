package eventscan

import (
	"time"

	"github.com/goodnatureofminers/blockinsight7000-eventscan/internal/utxo/classifier"
	"github.com/goodnatureofminers/blockinsight7000-eventscan/internal/utxo/model"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// tally accumulates classifier results of one event.
type tally struct {
	totalValue decimal.Decimal
	minValue   *decimal.Decimal
	maxValue   *decimal.Decimal

	totalFees decimal.Decimal
	minFee    *decimal.Decimal
	maxFee    *decimal.Decimal

	processed    uint64
	rejected     uint64
	coinbase     uint64
	totalOutputs uint64
	conflicts    uint64

	typeCounts map[string]uint64
	addresses  map[string]struct{}
}

func newTally() *tally {
	return &tally{
		totalValue: decimal.Zero,
		totalFees:  decimal.Zero,
		typeCounts: make(map[string]uint64),
		addresses:  make(map[string]struct{}),
	}
}

// add folds res in. Coinbase results feed the type tally and the address set
// only.
func (t *tally) add(res classifier.Result) {
	for name, n := range res.OutputsByType {
		t.typeCounts[name] += n
	}
	t.totalOutputs += res.TotalOutputs
	for _, addr := range res.Addresses {
		t.addresses[addr] = struct{}{}
	}

	if res.Coinbase {
		t.coinbase++
		return
	}

	t.processed++
	t.totalValue = t.totalValue.Add(res.Value)
	t.minValue = minOf(t.minValue, res.Value)
	t.maxValue = maxOf(t.maxValue, res.Value)

	t.totalFees = t.totalFees.Add(res.Fee)
	t.minFee = minOf(t.minFee, res.Fee)
	t.maxFee = maxOf(t.maxFee, res.Fee)
}

func (t *tally) reject() {
	t.rejected++
}

// summary derives the final aggregates. Every ratio with a zero denominator is 0.
func (t *tally) summary(base model.EventSummary) model.EventSummary {
	s := base
	s.TotalTxValue = t.totalValue
	s.MinTxValue = valueOrZero(t.minValue)
	s.MaxTxValue = valueOrZero(t.maxValue)
	s.AvgTxValue = average(t.totalValue, t.processed)

	s.TotalFees = t.totalFees
	s.MinFee = valueOrZero(t.minFee)
	s.MaxFee = valueOrZero(t.maxFee)
	s.AvgFee = average(t.totalFees, t.processed)
	s.FeeTxRatio = decimal.Zero
	if !t.totalValue.IsZero() {
		s.FeeTxRatio = t.totalFees.Div(t.totalValue)
	}

	s.TotalAddresses = uint64(len(t.addresses))
	s.AddressConflicts = t.conflicts
	s.RejectedTransactions = t.rejected
	s.TotalProcessedTransactions = t.processed
	s.TotalOutputs = t.totalOutputs
	s.CoinbaseTransactions = t.coinbase

	s.TypeCounts = make(map[string]uint64, len(t.typeCounts))
	s.TypeProportions = make(map[string]decimal.Decimal, len(t.typeCounts))
	for name, n := range t.typeCounts {
		s.TypeCounts[name] = n
		s.TypeProportions[name] = decimal.Zero
		if t.totalOutputs > 0 {
			s.TypeProportions[name] = hundred.Mul(decimal.NewFromUint64(n)).Div(decimal.NewFromUint64(t.totalOutputs))
		}
	}
	return s
}

func average(total decimal.Decimal, n uint64) decimal.Decimal {
	if n == 0 {
		return decimal.Zero
	}
	return total.Div(decimal.NewFromUint64(n))
}

func minOf(cur *decimal.Decimal, v decimal.Decimal) *decimal.Decimal {
	if cur == nil || v.LessThan(*cur) {
		return &v
	}
	return cur
}

func maxOf(cur *decimal.Decimal, v decimal.Decimal) *decimal.Decimal {
	if cur == nil || v.GreaterThan(*cur) {
		return &v
	}
	return cur
}

func valueOrZero(v *decimal.Decimal) decimal.Decimal {
	if v == nil {
		return decimal.Zero
	}
	return *v
}

// eventSummaryBase fills the identifying columns of a summary.
func eventSummaryBase(coin model.Coin, network model.Network, job model.Job, event model.Event) model.EventSummary {
	return model.EventSummary{
		Coin:        coin,
		Network:     network,
		EventName:   event.Name,
		EventTime:   event.Time,
		EventChange: event.ChangePercent,
		EventLength: job.TimeBeforeEvent.Truncate(time.Second),
		FilterName:  job.Name,
		MinTransfer: job.Filter.Min,
		MaxTransfer: job.Filter.Max,
	}
}
