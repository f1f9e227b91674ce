package chain

import (
	"context"
	"fmt"
	"time"
)

// BlockLocator maps a timestamp to the highest block at or before it.
type BlockLocator struct {
	source Source
}

// NewBlockLocator constructs a BlockLocator over source.
func NewBlockLocator(source Source) *BlockLocator {
	return &BlockLocator{source: source}
}

// Locate binary searches [0, tip] for target. Block timestamps may regress
// slightly; the search still terminates in O(log tip) lookups.
func (l *BlockLocator) Locate(ctx context.Context, target time.Time) (int64, error) {
	tip, err := l.source.BlockCount(ctx)
	if err != nil {
		return 0, fmt.Errorf("get block count: %w", asLookupFailure(err))
	}
	if tip <= 0 {
		return 0, nil
	}

	want := target.Unix()
	lower, upper := int64(0), tip
	for lower <= upper {
		mid := lower + (upper-lower)/2
		ts, err := l.blockTime(ctx, mid)
		if err != nil {
			return 0, err
		}
		switch {
		case ts < want:
			lower = mid + 1
		case ts > want:
			upper = mid - 1
		default:
			return l.lastWithTime(ctx, mid, tip, want)
		}
	}

	if upper < 0 {
		return 0, nil
	}
	return upper, nil
}

// lastWithTime advances past successors sharing the matched timestamp.
func (l *BlockLocator) lastWithTime(ctx context.Context, height, tip, want int64) (int64, error) {
	for height < tip {
		ts, err := l.blockTime(ctx, height+1)
		if err != nil {
			return 0, err
		}
		if ts > want {
			break
		}
		height++
	}
	return height, nil
}

func (l *BlockLocator) blockTime(ctx context.Context, height int64) (int64, error) {
	hash, err := l.source.BlockHash(ctx, height)
	if err != nil {
		return 0, fmt.Errorf("get block hash at height %d: %w", height, asLookupFailure(err))
	}
	header, err := l.source.BlockHeader(ctx, hash)
	if err != nil {
		return 0, fmt.Errorf("get block header %s: %w", hash, asLookupFailure(err))
	}
	if header == nil {
		return 0, fmt.Errorf("get block header %s: %w: empty header", hash, ErrLookupFailure)
	}
	return header.Time.Unix(), nil
}
