package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/goodnatureofminers/blockinsight7000-eventscan/internal/utxo/model"
)

var (
	addressColumns = []string{
		"id",
		"address",
		"txid",
		"vout_index",
		"value",
		"event_time",
		"last_event_time",
		"tx_time",
		"block_number",
		"price_change",
		"address_name",
		"source",
		"event_name",
		"address_description",
		"spent",
		"occurrences",
	}
	totalColumns = []string{
		"address",
		"total_value",
		"first_event_time",
		"last_event_time",
		"occurrences",
	}
)

// AddressWriter streams address rows as CSV.
type AddressWriter struct {
	w    *csv.Writer
	rows int
}

// NewAddressWriter writes the header to dst.
func NewAddressWriter(dst io.Writer) (*AddressWriter, error) {
	w := csv.NewWriter(dst)
	if err := w.Write(addressColumns); err != nil {
		return nil, fmt.Errorf("write address header: %w", err)
	}
	return &AddressWriter{w: w}, nil
}

// Write appends one row.
func (a *AddressWriter) Write(row model.AddressRow) error {
	price := ""
	if row.PriceChange.Valid {
		price = formatDecimal(row.PriceChange.Decimal)
	}
	if err := a.w.Write([]string{
		strconv.FormatInt(row.ID, 10),
		row.Address,
		optString(row.TxID),
		optInt32(row.VoutIndex),
		formatDecimal(row.Value),
		optTime(row.EventTime),
		optTime(row.LastEventTime),
		optTime(row.TxTime),
		optInt64(row.BlockNumber),
		price,
		row.AddressName,
		row.Source,
		row.EventName,
		row.AddressDescription,
		strconv.FormatBool(row.Spent),
		strconv.FormatInt(int64(row.Occurrences), 10),
	}); err != nil {
		return fmt.Errorf("write address row %d: %w", row.ID, err)
	}
	a.rows++
	return nil
}

// Rows returns the number of rows written.
func (a *AddressWriter) Rows() int {
	return a.rows
}

// Close flushes buffered rows. It does not close the destination.
func (a *AddressWriter) Close() error {
	a.w.Flush()
	return a.w.Error()
}

// TotalsWriter streams per-address totals as CSV.
type TotalsWriter struct {
	w    *csv.Writer
	rows int
}

// NewTotalsWriter writes the header to dst.
func NewTotalsWriter(dst io.Writer) (*TotalsWriter, error) {
	w := csv.NewWriter(dst)
	if err := w.Write(totalColumns); err != nil {
		return nil, fmt.Errorf("write totals header: %w", err)
	}
	return &TotalsWriter{w: w}, nil
}

func (t *TotalsWriter) Write(total model.AddressTotal) error {
	if err := t.w.Write([]string{
		total.Address,
		formatDecimal(total.TotalValue),
		formatTime(total.FirstEventTime),
		formatTime(total.LastEventTime),
		strconv.FormatInt(total.Occurrences, 10),
	}); err != nil {
		return fmt.Errorf("write totals row %s: %w", total.Address, err)
	}
	t.rows++
	return nil
}

func (t *TotalsWriter) Rows() int {
	return t.rows
}

func (t *TotalsWriter) Close() error {
	t.w.Flush()
	return t.w.Error()
}

func optString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func optInt32(v *int32) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(int64(*v), 10)
}

func optInt64(v *int64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(*v, 10)
}

func optTime(v *time.Time) string {
	if v == nil {
		return ""
	}
	return formatTime(*v)
}
