package chain

import (
	"context"
	"fmt"
	"time"

	"github.com/goodnatureofminers/blockinsight7000-eventscan/internal/utxo/model"
	"go.uber.org/zap"
)

// ScannedBlock holds the transactions of one block that passed the value filter.
type ScannedBlock struct {
	Height       int64
	Hash         string
	Time         time.Time
	Total        int
	Transactions []model.ScannedTransaction
}

// ScanStats summarises a window walk.
type ScanStats struct {
	StartHeight   int64
	EndHeight     int64
	Blocks        int
	SkippedBlocks int
	Matched       int
}

// WindowScanner walks every block between the heights located for a time window.
type WindowScanner struct {
	locator Locator
	source  Source
	logger  *zap.Logger
}

// NewWindowScanner constructs a WindowScanner.
func NewWindowScanner(locator Locator, source Source, logger *zap.Logger) *WindowScanner {
	return &WindowScanner{
		locator: locator,
		source:  source,
		logger:  logger,
	}
}

// Heights resolves the inclusive block height range of window.
func (s *WindowScanner) Heights(ctx context.Context, window model.Window) (int64, int64, error) {
	start, err := s.locator.Locate(ctx, window.Start)
	if err != nil {
		return 0, 0, fmt.Errorf("locate window start %s: %w", window.Start.UTC().Format(time.RFC3339), err)
	}
	end, err := s.locator.Locate(ctx, window.End)
	if err != nil {
		return 0, 0, fmt.Errorf("locate window end %s: %w", window.End.UTC().Format(time.RFC3339), err)
	}
	return start, end, nil
}

// Walk visits each block of the window in height order. Blocks that fail to
// load are logged and skipped unless the source is unavailable.
func (s *WindowScanner) Walk(
	ctx context.Context,
	window model.Window,
	filter model.ValueFilter,
	visit func(ctx context.Context, block ScannedBlock) error,
) (ScanStats, error) {
	start, end, err := s.Heights(ctx, window)
	if err != nil {
		return ScanStats{}, err
	}

	stats := ScanStats{StartHeight: start, EndHeight: end}
	for height := start; height <= end; height++ {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		block, err := s.fetch(ctx, height)
		if err != nil {
			if IsFatal(err) {
				return stats, err
			}
			stats.SkippedBlocks++
			s.logger.Warn("skip block", zap.Int64("height", height), zap.Error(err))
			continue
		}

		scanned := ScannedBlock{
			Height: block.Height,
			Hash:   block.Hash,
			Time:   block.Time,
			Total:  len(block.Transactions),
		}
		for _, tx := range block.Transactions {
			if !filter.Accepts(tx.TotalOutputValue()) {
				continue
			}
			scanned.Transactions = append(scanned.Transactions, model.ScannedTransaction{
				Transaction: tx,
				BlockHeight: block.Height,
				BlockTime:   block.Time,
			})
		}
		stats.Blocks++
		stats.Matched += len(scanned.Transactions)

		if err := visit(ctx, scanned); err != nil {
			return stats, err
		}
	}

	return stats, nil
}

// Scan collects every transaction of window that passes filter.
func (s *WindowScanner) Scan(ctx context.Context, window model.Window, filter model.ValueFilter) ([]model.ScannedTransaction, ScanStats, error) {
	var txs []model.ScannedTransaction
	stats, err := s.Walk(ctx, window, filter, func(_ context.Context, block ScannedBlock) error {
		txs = append(txs, block.Transactions...)
		return nil
	})
	if err != nil {
		return nil, stats, err
	}
	return txs, stats, nil
}

func (s *WindowScanner) fetch(ctx context.Context, height int64) (*model.Block, error) {
	hash, err := s.source.BlockHash(ctx, height)
	if err != nil {
		return nil, fmt.Errorf("get block hash at height %d: %w", height, asLookupFailure(err))
	}
	block, err := s.source.Block(ctx, hash)
	if err != nil {
		return nil, fmt.Errorf("get block %s: %w", hash, asLookupFailure(err))
	}
	if block == nil {
		return nil, fmt.Errorf("get block %s: %w: empty block", hash, ErrLookupFailure)
	}
	if block.Height == 0 && height != 0 {
		block.Height = height
	}
	return block, nil
}
