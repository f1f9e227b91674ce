package bitcoin

import (
	"context"
	"time"

	"github.com/goodnatureofminers/blockinsight7000-eventscan/internal/clock"
	"go.uber.org/zap"
)

// WaitForNode polls the node until it answers a block count request or
// timeout elapses. It returns the chain tip height.
func WaitForNode(ctx context.Context, source *Source, timeout, interval time.Duration, logger *zap.Logger) (int64, error) {
	var tip int64
	err := clock.Poll(ctx, interval, timeout, func(attempt int) error {
		var err error
		tip, err = source.BlockCount(ctx)
		if err != nil {
			logger.Info("waiting for node", zap.Int("attempt", attempt), zap.Error(err))
		}
		return err
	})
	if err != nil {
		return 0, err
	}
	return tip, nil
}
