// Package batcher provides a generic buffered batch processor with rate limiting.
package batcher

import (
	"context"

	"go.uber.org/ratelimit"
	"go.uber.org/zap"
)

// Batcher buffers items and hands them to the flush callback once flushSize
// items are buffered or Flush is called. It is not safe for concurrent use.
type Batcher[T any] struct {
	flushCallback func(context.Context, []T) error
	buf           []T
	flushSize     int
	rl            ratelimit.Limiter
	logger        *zap.Logger
}

// New constructs a Batcher. A non-positive rps disables flush pacing.
func New[T any](logger *zap.Logger, flushCallback func(context.Context, []T) error, flushSize int, rps int) *Batcher[T] {
	if flushSize <= 0 {
		flushSize = 1
	}
	rl := ratelimit.NewUnlimited()
	if rps > 0 {
		rl = ratelimit.New(rps)
	}
	return &Batcher[T]{
		logger:        logger,
		flushCallback: flushCallback,
		buf:           make([]T, 0, flushSize),
		flushSize:     flushSize,
		rl:            rl,
	}
}

// Add buffers items and flushes when the buffer is full.
func (b *Batcher[T]) Add(ctx context.Context, items ...T) error {
	b.buf = append(b.buf, items...)
	if len(b.buf) >= b.flushSize {
		return b.Flush(ctx)
	}
	return nil
}

// Flush hands the buffer to the callback even when it is empty, so callers
// can use it as a commit point. On error the buffer is kept for a retry.
func (b *Batcher[T]) Flush(ctx context.Context) error {
	b.rl.Take()
	if err := b.flushCallback(ctx, b.buf); err != nil {
		b.logger.Error("batch not flushed", zap.Int("size", len(b.buf)), zap.Error(err))
		return err
	}
	b.logger.Debug("batch flushed", zap.Int("size", len(b.buf)))
	b.buf = b.buf[:0]
	return nil
}

// Len returns the number of buffered items.
func (b *Batcher[T]) Len() int {
	return len(b.buf)
}

// Reset drops buffered items without flushing.
func (b *Batcher[T]) Reset() {
	b.buf = b.buf[:0]
}
