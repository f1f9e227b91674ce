// Package report renders event summaries and address tables as CSV.
package report

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/goodnatureofminers/blockinsight7000-eventscan/internal/utxo/model"
	"github.com/shopspring/decimal"
)

const (
	countSuffix      = "_count"
	proportionSuffix = "_proportion"
	decimalPlaces    = 8
)

// SummaryColumns is the fixed part of the summary header. Per-type count and
// proportion columns follow in type name order.
var SummaryColumns = []string{
	"written_at",
	"coin",
	"network",
	"event_name",
	"event_time",
	"event_change",
	"event_length",
	"filter_name",
	"min_transfer",
	"max_transfer",
	"start_height",
	"end_height",
	"skipped_blocks",
	"total_tx_value",
	"total_addresses",
	"min_tx_value",
	"max_tx_value",
	"avg_tx_value",
	"total_fees",
	"min_fee",
	"max_fee",
	"avg_fee",
	"fee_tx_ratio",
	"rejected_transactions",
	"total_processed_transactions",
	"total_outputs",
	"coinbase_transactions",
	"start_block_subsidy",
	"address_conflicts",
	"event_processing_duration",
}

// SummaryFile appends summaries to a CSV file. When a summary carries type
// columns the file lacks, the file is rewritten under the superset header.
type SummaryFile struct {
	path string
}

// NewSummaryFile returns a writer for path. The file is created on first write.
func NewSummaryFile(path string) *SummaryFile {
	return &SummaryFile{path: path}
}

// WriteSummary appends s.
func (f *SummaryFile) WriteSummary(ctx context.Context, s model.EventSummary) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	row := SummaryRecord(s)

	header, rows, err := f.read()
	if err != nil {
		return err
	}
	if header == nil {
		return f.rewrite(summaryHeader(nil, s.TypeNames()), []map[string]string{row})
	}

	merged := summaryHeader(header, s.TypeNames())
	if len(merged) == len(header) {
		return f.append(header, row)
	}
	return f.rewrite(merged, append(rows, row))
}

func (f *SummaryFile) read() ([]string, []map[string]string, error) {
	file, err := os.Open(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("open summary file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read summary header: %w", err)
	}

	var rows []map[string]string
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read summary row: %w", err)
		}
		row := make(map[string]string, len(header))
		for i, name := range header {
			if i < len(rec) {
				row[name] = rec[i]
			}
		}
		rows = append(rows, row)
	}
	return header, rows, nil
}

func (f *SummaryFile) append(header []string, row map[string]string) error {
	file, err := os.OpenFile(f.path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open summary file for append: %w", err)
	}
	w := csv.NewWriter(file)
	if err := w.Write(project(header, row)); err != nil {
		_ = file.Close()
		return fmt.Errorf("append summary: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = file.Close()
		return fmt.Errorf("append summary: %w", err)
	}
	return file.Close()
}

func (f *SummaryFile) rewrite(header []string, rows []map[string]string) error {
	tmp := f.path + ".tmp"
	file, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create summary file: %w", err)
	}
	w := csv.NewWriter(file)
	if err := w.Write(header); err != nil {
		_ = file.Close()
		return fmt.Errorf("write summary header: %w", err)
	}
	for _, row := range rows {
		if err := w.Write(project(header, row)); err != nil {
			_ = file.Close()
			return fmt.Errorf("write summary row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = file.Close()
		return fmt.Errorf("write summary file: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("close summary file: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("replace summary file: %w", err)
	}
	return nil
}

func project(header []string, row map[string]string) []string {
	out := make([]string, len(header))
	for i, name := range header {
		out[i] = row[name]
	}
	return out
}

// summaryHeader merges an existing header with the columns of types. Core
// columns come first, then unknown columns of existing in their order, then
// type columns sorted by type name.
func summaryHeader(existing []string, types []string) []string {
	core := make(map[string]struct{}, len(SummaryColumns))
	for _, c := range SummaryColumns {
		core[c] = struct{}{}
	}

	typeSet := make(map[string]struct{}, len(types))
	for _, t := range types {
		typeSet[t] = struct{}{}
	}
	var extra []string
	for _, c := range existing {
		if _, ok := core[c]; ok {
			continue
		}
		switch {
		case strings.HasSuffix(c, countSuffix):
			typeSet[strings.TrimSuffix(c, countSuffix)] = struct{}{}
		case strings.HasSuffix(c, proportionSuffix):
			typeSet[strings.TrimSuffix(c, proportionSuffix)] = struct{}{}
		default:
			extra = append(extra, c)
		}
	}

	names := make([]string, 0, len(typeSet))
	for t := range typeSet {
		names = append(names, t)
	}
	sort.Strings(names)

	header := make([]string, 0, len(SummaryColumns)+len(extra)+2*len(names))
	header = append(header, SummaryColumns...)
	header = append(header, extra...)
	for _, t := range names {
		header = append(header, t+countSuffix, t+proportionSuffix)
	}
	return header
}

// SummaryRecord flattens s into column values. Decimals are written in plain
// notation with eight fractional digits.
func SummaryRecord(s model.EventSummary) map[string]string {
	row := map[string]string{
		"written_at":                   formatTime(s.WrittenAt),
		"coin":                         string(s.Coin),
		"network":                      string(s.Network),
		"event_name":                   s.EventName,
		"event_time":                   formatTime(s.EventTime),
		"event_change":                 formatDecimal(s.EventChange),
		"event_length":                 strconv.FormatInt(int64(s.EventLength/time.Second), 10),
		"filter_name":                  s.FilterName,
		"min_transfer":                 formatBound(s.MinTransfer),
		"max_transfer":                 formatBound(s.MaxTransfer),
		"start_height":                 strconv.FormatInt(s.StartHeight, 10),
		"end_height":                   strconv.FormatInt(s.EndHeight, 10),
		"skipped_blocks":               strconv.FormatUint(s.SkippedBlocks, 10),
		"total_tx_value":               formatDecimal(s.TotalTxValue),
		"total_addresses":              strconv.FormatUint(s.TotalAddresses, 10),
		"min_tx_value":                 formatDecimal(s.MinTxValue),
		"max_tx_value":                 formatDecimal(s.MaxTxValue),
		"avg_tx_value":                 formatDecimal(s.AvgTxValue),
		"total_fees":                   formatDecimal(s.TotalFees),
		"min_fee":                      formatDecimal(s.MinFee),
		"max_fee":                      formatDecimal(s.MaxFee),
		"avg_fee":                      formatDecimal(s.AvgFee),
		"fee_tx_ratio":                 formatDecimal(s.FeeTxRatio),
		"rejected_transactions":        strconv.FormatUint(s.RejectedTransactions, 10),
		"total_processed_transactions": strconv.FormatUint(s.TotalProcessedTransactions, 10),
		"total_outputs":                strconv.FormatUint(s.TotalOutputs, 10),
		"coinbase_transactions":        strconv.FormatUint(s.CoinbaseTransactions, 10),
		"start_block_subsidy":          formatDecimal(s.StartBlockSubsidy),
		"address_conflicts":            strconv.FormatUint(s.AddressConflicts, 10),
		"event_processing_duration":    strconv.FormatFloat(s.ProcessingDuration.Seconds(), 'f', 3, 64),
	}
	for _, t := range s.TypeNames() {
		row[t+countSuffix] = strconv.FormatUint(s.TypeCounts[t], 10)
		row[t+proportionSuffix] = formatDecimal(s.TypeProportions[t])
	}
	return row
}

func formatDecimal(d decimal.Decimal) string {
	return d.StringFixed(decimalPlaces)
}

func formatBound(d *decimal.Decimal) string {
	if d == nil {
		return ""
	}
	return formatDecimal(*d)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
