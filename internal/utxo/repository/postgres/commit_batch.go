package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/goodnatureofminers/blockinsight7000-eventscan/internal/utxo/model"
	"github.com/goodnatureofminers/blockinsight7000-eventscan/pkg/safe"
	"github.com/jackc/pgx/v5"
)

const insertAddressRecordQuery = `
INSERT INTO address_records (
	address,
	txid,
	vout_index,
	value,
	event_time,
	last_event_time,
	tx_time,
	block_number,
	price_change,
	address_name,
	source,
	event_name,
	address_description,
	spent
) VALUES ($1, $2, $3, $4, $5, $5, $6, $7, $8, $9, $10, $11, $12, $13)
ON CONFLICT (address, txid, vout_index) DO NOTHING`

const upsertScanProgressQuery = `
INSERT INTO scan_progress (
	filter_name,
	event_name,
	event_time,
	last_committed_height,
	completed,
	updated_at
) VALUES ($1, $2, $3, $4, $5, now())
ON CONFLICT (filter_name, event_name, event_time) DO UPDATE
SET last_committed_height = EXCLUDED.last_committed_height,
    completed = EXCLUDED.completed,
    updated_at = now()`

// CommitBatch inserts records that are not yet stored and saves progress in
// the same transaction. It returns how many records already existed.
func (r *Repository) CommitBatch(ctx context.Context, records []model.AddressRecord, progress model.ScanProgress) (conflicts uint64, err error) {
	start := time.Now()
	defer func() {
		r.observe("commit_batch", err, start)
	}()

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin commit batch: %w", err)
	}
	defer rollback(ctx, tx)

	if len(records) > 0 {
		conflicts, err = insertRecords(ctx, tx, records)
		if err != nil {
			return 0, err
		}
	}

	if _, err = tx.Exec(ctx, upsertScanProgressQuery,
		progress.FilterName,
		progress.EventName,
		progress.EventTime,
		progress.LastCommittedHeight,
		progress.Completed,
	); err != nil {
		return 0, fmt.Errorf("save scan progress: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit batch: %w", err)
	}
	return conflicts, nil
}

func insertRecords(ctx context.Context, tx pgx.Tx, records []model.AddressRecord) (uint64, error) {
	batch := &pgx.Batch{}
	for _, rec := range records {
		vout, err := safe.Int32(rec.VoutIndex)
		if err != nil {
			return 0, fmt.Errorf("record %s:%d: %w", rec.TxID, rec.VoutIndex, err)
		}
		batch.Queue(insertAddressRecordQuery,
			rec.Address,
			rec.TxID,
			vout,
			rec.Value,
			nullTime(rec.EventTime),
			nullTime(rec.TxTime),
			rec.BlockNumber,
			rec.PriceChange,
			rec.AddressName,
			rec.Source,
			rec.EventName,
			rec.AddressDescription,
			rec.Spent,
		)
	}

	results := tx.SendBatch(ctx, batch)
	var conflicts uint64
	for i := range records {
		tag, err := results.Exec()
		if err != nil {
			_ = results.Close()
			return 0, fmt.Errorf("insert address record %s:%d: %w", records[i].TxID, records[i].VoutIndex, mapError(err))
		}
		if tag.RowsAffected() == 0 {
			conflicts++
		}
	}
	if err := results.Close(); err != nil {
		return 0, fmt.Errorf("close address batch: %w", mapError(err))
	}
	return conflicts, nil
}
