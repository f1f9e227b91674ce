package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/goodnatureofminers/blockinsight7000-eventscan/internal/utxo/model"
	"github.com/jackc/pgx/v5"
)

const selectAddressRowsQuery = `
SELECT
	id,
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
	spent,
	occurrences
FROM address_records`

// ScanAddressRecords streams every row in id order.
func (r *Repository) ScanAddressRecords(ctx context.Context, fn func(model.AddressRow) error) (err error) {
	start := time.Now()
	defer func() {
		r.observe("scan_address_records", err, start)
	}()

	rows, err := r.db.Query(ctx, selectAddressRowsQuery+"\nORDER BY id")
	if err != nil {
		return fmt.Errorf("query address records: %w", err)
	}
	return scanAddressRows(rows, fn)
}

// ScanAddressRecordsBySource streams rows of one script type in id order.
func (r *Repository) ScanAddressRecordsBySource(ctx context.Context, source string, fn func(model.AddressRow) error) (err error) {
	start := time.Now()
	defer func() {
		r.observe("scan_address_records_by_source", err, start)
	}()

	rows, err := r.db.Query(ctx, selectAddressRowsQuery+"\nWHERE source = $1\nORDER BY id", source)
	if err != nil {
		return fmt.Errorf("query address records of %s: %w", source, err)
	}
	return scanAddressRows(rows, fn)
}

func scanAddressRows(rows pgx.Rows, fn func(model.AddressRow) error) error {
	defer rows.Close()

	for rows.Next() {
		var row model.AddressRow
		if err := rows.Scan(
			&row.ID,
			&row.Address,
			&row.TxID,
			&row.VoutIndex,
			&row.Value,
			&row.EventTime,
			&row.LastEventTime,
			&row.TxTime,
			&row.BlockNumber,
			&row.PriceChange,
			&row.AddressName,
			&row.Source,
			&row.EventName,
			&row.AddressDescription,
			&row.Spent,
			&row.Occurrences,
		); err != nil {
			return fmt.Errorf("scan address record: %w", err)
		}
		if err := fn(row); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate address records: %w", err)
	}
	return nil
}

// AddressTotals streams per-address aggregates ordered by total value, largest first.
func (r *Repository) AddressTotals(ctx context.Context, fn func(model.AddressTotal) error) (err error) {
	start := time.Now()
	defer func() {
		r.observe("address_totals", err, start)
	}()

	const query = `
SELECT
	address,
	SUM(value),
	MIN(event_time),
	MAX(COALESCE(last_event_time, event_time)),
	SUM(occurrences)
FROM address_records
GROUP BY address
ORDER BY SUM(value) DESC, address`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return fmt.Errorf("query address totals: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			total       model.AddressTotal
			first, last *time.Time
		)
		if err = rows.Scan(&total.Address, &total.TotalValue, &first, &last, &total.Occurrences); err != nil {
			return fmt.Errorf("scan address total: %w", err)
		}
		if first != nil {
			total.FirstEventTime = *first
		}
		if last != nil {
			total.LastEventTime = *last
		}
		if err = fn(total); err != nil {
			return err
		}
	}
	if err = rows.Err(); err != nil {
		return fmt.Errorf("iterate address totals: %w", err)
	}
	return nil
}
