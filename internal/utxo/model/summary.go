package model

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// EventSummary is the aggregate produced for one event under one job.
type EventSummary struct {
	Coin        Coin
	Network     Network
	EventName   string
	EventTime   time.Time
	EventChange decimal.Decimal
	EventLength time.Duration
	FilterName  string
	MinTransfer *decimal.Decimal
	MaxTransfer *decimal.Decimal

	StartHeight   int64
	EndHeight     int64
	SkippedBlocks uint64

	TotalTxValue decimal.Decimal
	MinTxValue   decimal.Decimal
	MaxTxValue   decimal.Decimal
	AvgTxValue   decimal.Decimal

	TotalFees  decimal.Decimal
	MinFee     decimal.Decimal
	MaxFee     decimal.Decimal
	AvgFee     decimal.Decimal
	FeeTxRatio decimal.Decimal

	TotalAddresses             uint64
	AddressConflicts           uint64
	RejectedTransactions       uint64
	TotalProcessedTransactions uint64
	TotalOutputs               uint64

	// CoinbaseTransactions counts coinbase transactions, not their outputs;
	// the outputs land in TypeCounts[CoinbaseType].
	CoinbaseTransactions uint64
	// StartBlockSubsidy is the block reward in force at StartHeight.
	StartBlockSubsidy decimal.Decimal

	TypeCounts      map[string]uint64
	TypeProportions map[string]decimal.Decimal

	ProcessingDuration time.Duration
	WrittenAt          time.Time
}

// TypeNames returns the union of type keys in sorted order.
func (s EventSummary) TypeNames() []string {
	seen := make(map[string]struct{}, len(s.TypeCounts))
	for name := range s.TypeCounts {
		seen[name] = struct{}{}
	}
	for name := range s.TypeProportions {
		seen[name] = struct{}{}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
