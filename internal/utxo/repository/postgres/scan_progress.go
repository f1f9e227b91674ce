package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goodnatureofminers/blockinsight7000-eventscan/internal/utxo/model"
	"github.com/jackc/pgx/v5"
)

// ScanProgress returns the saved progress of one pass, or nil when none exists.
func (r *Repository) ScanProgress(ctx context.Context, filterName, eventName string, eventTime time.Time) (_ *model.ScanProgress, err error) {
	start := time.Now()
	defer func() {
		r.observe("scan_progress", err, start)
	}()

	const query = `
SELECT
	last_committed_height,
	completed,
	updated_at
FROM scan_progress
WHERE filter_name = $1 AND event_name = $2 AND event_time = $3`

	progress := model.ScanProgress{
		FilterName: filterName,
		EventName:  eventName,
		EventTime:  eventTime,
	}
	err = r.db.QueryRow(ctx, query, filterName, eventName, eventTime).Scan(
		&progress.LastCommittedHeight,
		&progress.Completed,
		&progress.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		err = nil
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query scan progress: %w", err)
	}
	return &progress, nil
}

// CompleteScan marks a pass as finished.
func (r *Repository) CompleteScan(ctx context.Context, progress model.ScanProgress) (err error) {
	start := time.Now()
	defer func() {
		r.observe("complete_scan", err, start)
	}()

	if _, err = r.db.Exec(ctx, upsertScanProgressQuery,
		progress.FilterName,
		progress.EventName,
		progress.EventTime,
		progress.LastCommittedHeight,
		true,
	); err != nil {
		return fmt.Errorf("complete scan progress: %w", err)
	}
	return nil
}
