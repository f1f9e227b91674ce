package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/goodnatureofminers/blockinsight7000-eventscan/internal/utxo/model"
)

const eventSummariesQuery = `
SELECT
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
FROM event_summaries
WHERE coin = ? AND network = ? AND event_name = ?
ORDER BY event_time ASC, filter_name ASC, written_at ASC`

// EventSummaries returns every summary row written for eventName, oldest first.
func (r *Repository) EventSummaries(ctx context.Context, coin model.Coin, network model.Network, eventName string) ([]model.EventSummary, error) {
	start := time.Now()
	var err error
	defer func() {
		r.metrics.Observe("event_summaries", err, start)
	}()

	rows, err := r.conn.Query(ctx, eventSummariesQuery, string(coin), string(network), eventName)
	if err != nil {
		return nil, fmt.Errorf("query event summaries: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close rows: %w", cerr)
		}
	}()

	var summaries []model.EventSummary
	for rows.Next() {
		var (
			s                  model.EventSummary
			eventLength        uint64
			processingDuration uint64
		)
		s.Coin = coin
		s.Network = network
		if err = rows.Scan(
			&s.EventName,
			&s.EventTime,
			&s.EventChange,
			&eventLength,
			&s.FilterName,
			&s.MinTransfer,
			&s.MaxTransfer,
			&s.StartHeight,
			&s.EndHeight,
			&s.SkippedBlocks,
			&s.TotalTxValue,
			&s.MinTxValue,
			&s.MaxTxValue,
			&s.AvgTxValue,
			&s.TotalFees,
			&s.MinFee,
			&s.MaxFee,
			&s.AvgFee,
			&s.FeeTxRatio,
			&s.TotalAddresses,
			&s.AddressConflicts,
			&s.RejectedTransactions,
			&s.TotalProcessedTransactions,
			&s.TotalOutputs,
			&s.TypeCounts,
			&s.TypeProportions,
			&processingDuration,
			&s.WrittenAt,
			&s.CoinbaseTransactions,
			&s.StartBlockSubsidy,
		); err != nil {
			return nil, fmt.Errorf("scan event summary: %w", err)
		}
		s.EventLength = time.Duration(eventLength) * time.Second
		s.ProcessingDuration = time.Duration(processingDuration) * time.Millisecond
		summaries = append(summaries, s)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate event summaries: %w", err)
	}

	r.metrics.ObserveRows("event_summaries", len(summaries))
	return summaries, nil
}
