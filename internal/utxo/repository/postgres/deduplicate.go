package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/goodnatureofminers/blockinsight7000-eventscan/internal/utxo/model"
)

const (
	countAddressRecordsQuery = `SELECT count(*) FROM address_records`

	mergeAddressRecordsQuery = `
CREATE TEMP TABLE address_records_merged ON COMMIT DROP AS
SELECT
	address,
	SUM(value) AS total_value,
	MIN(event_time) AS first_event_time,
	MAX(COALESCE(last_event_time, event_time)) AS last_event_time,
	SUM(occurrences)::INTEGER AS occurrences,
	MIN(source) AS source,
	MIN(address_description) AS address_description,
	BOOL_AND(spent) AS spent
FROM address_records
GROUP BY address`

	deleteAddressRecordsQuery = `DELETE FROM address_records`

	reinsertAddressRecordsQuery = `
INSERT INTO address_records (
	address,
	txid,
	vout_index,
	value,
	event_time,
	last_event_time,
	tx_time,
	source,
	address_description,
	spent,
	occurrences
)
SELECT
	address,
	NULL,
	NULL,
	total_value,
	first_event_time,
	last_event_time,
	NULL,
	source,
	address_description,
	spent,
	occurrences
FROM address_records_merged
ORDER BY address`
)

// Deduplicate collapses the address table to one row per address in a single
// transaction. Value is summed, event_time keeps the earliest observation and
// per-transaction columns are cleared. Any failure leaves the table untouched
// and is reported as ErrAggregationFailure.
func (r *Repository) Deduplicate(ctx context.Context) (res model.DeduplicationResult, err error) {
	start := time.Now()
	defer func() {
		r.observe("deduplicate", err, start)
	}()

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return res, fmt.Errorf("%w: begin: %w", ErrAggregationFailure, err)
	}
	defer rollback(ctx, tx)

	if err = tx.QueryRow(ctx, countAddressRecordsQuery).Scan(&res.RowsBefore); err != nil {
		return model.DeduplicationResult{}, fmt.Errorf("%w: count rows: %w", ErrAggregationFailure, err)
	}
	if _, err = tx.Exec(ctx, mergeAddressRecordsQuery); err != nil {
		return model.DeduplicationResult{}, fmt.Errorf("%w: merge rows: %w", ErrAggregationFailure, err)
	}
	if _, err = tx.Exec(ctx, deleteAddressRecordsQuery); err != nil {
		return model.DeduplicationResult{}, fmt.Errorf("%w: delete rows: %w", ErrAggregationFailure, err)
	}
	if r.afterDelete != nil {
		if err = r.afterDelete(ctx, tx); err != nil {
			return model.DeduplicationResult{}, fmt.Errorf("%w: %w", ErrAggregationFailure, err)
		}
	}
	tag, err := tx.Exec(ctx, reinsertAddressRecordsQuery)
	if err != nil {
		return model.DeduplicationResult{}, fmt.Errorf("%w: reinsert rows: %w", ErrAggregationFailure, err)
	}
	res.Addresses = tag.RowsAffected()

	if err = tx.Commit(ctx); err != nil {
		return model.DeduplicationResult{}, fmt.Errorf("%w: commit: %w", ErrAggregationFailure, err)
	}
	return res, nil
}
