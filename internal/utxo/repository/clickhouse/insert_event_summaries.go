package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/goodnatureofminers/blockinsight7000-eventscan/internal/utxo/model"
	"github.com/shopspring/decimal"
)

const insertEventSummariesQuery = `
INSERT INTO event_summaries (
	coin,
	network,
	event_name,
	event_time,
	event_change,
	event_length,
	filter_name,
	min_transfer,
	max_transfer,
	start_height,
	end_height,
	skipped_blocks,
	total_tx_value,
	min_tx_value,
	max_tx_value,
	avg_tx_value,
	total_fees,
	min_fee,
	max_fee,
	avg_fee,
	fee_tx_ratio,
	total_addresses,
	address_conflicts,
	rejected_transactions,
	total_processed_transactions,
	total_outputs,
	type_counts,
	type_proportions,
	processing_duration_ms,
	written_at,
	coinbase_transactions,
	start_block_subsidy
) VALUES`

// InsertEventSummaries appends summary rows. Rows are never updated.
func (r *Repository) InsertEventSummaries(ctx context.Context, summaries []model.EventSummary) error {
	start := time.Now()
	var err error
	defer func() {
		r.metrics.Observe("insert_event_summaries", err, start)
	}()

	if len(summaries) == 0 {
		return nil
	}

	batch, err := r.conn.PrepareBatch(ctx, insertEventSummariesQuery)
	if err != nil {
		return fmt.Errorf("prepare event summaries batch: %w", err)
	}

	for _, s := range summaries {
		if err = batch.Append(summaryValues(s)...); err != nil {
			return fmt.Errorf("append event summary %s: %w", s.EventName, err)
		}
	}

	if err = batch.Send(); err != nil {
		return fmt.Errorf("insert event summaries: %w", err)
	}
	r.metrics.ObserveRows("insert_event_summaries", len(summaries))
	return nil
}

// WriteSummary appends a single summary.
func (r *Repository) WriteSummary(ctx context.Context, s model.EventSummary) error {
	return r.InsertEventSummaries(ctx, []model.EventSummary{s})
}

func summaryValues(s model.EventSummary) []any {
	typeCounts := s.TypeCounts
	if typeCounts == nil {
		typeCounts = map[string]uint64{}
	}
	typeProportions := s.TypeProportions
	if typeProportions == nil {
		typeProportions = map[string]decimal.Decimal{}
	}
	return []any{
		string(s.Coin),
		string(s.Network),
		s.EventName,
		s.EventTime,
		s.EventChange,
		uint64(s.EventLength / time.Second),
		s.FilterName,
		s.MinTransfer,
		s.MaxTransfer,
		s.StartHeight,
		s.EndHeight,
		s.SkippedBlocks,
		s.TotalTxValue,
		s.MinTxValue,
		s.MaxTxValue,
		s.AvgTxValue,
		s.TotalFees,
		s.MinFee,
		s.MaxFee,
		s.AvgFee,
		s.FeeTxRatio,
		s.TotalAddresses,
		s.AddressConflicts,
		s.RejectedTransactions,
		s.TotalProcessedTransactions,
		s.TotalOutputs,
		typeCounts,
		typeProportions,
		uint64(s.ProcessingDuration / time.Millisecond),
		s.WrittenAt,
		s.CoinbaseTransactions,
		s.StartBlockSubsidy,
	}
}
