package chain

import (
	"context"
	"fmt"

	"github.com/goodnatureofminers/blockinsight7000-eventscan/internal/utxo/model"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// InputValueResolver resolves the value spent by an input by loading the
// previous transaction. Resolved transactions are kept in the cache so
// sibling inputs spending the same transaction cost no extra lookups.
type InputValueResolver struct {
	source Source
	cache  OutputCache
	logger *zap.Logger
}

// NewInputValueResolver constructs a resolver. A nil cache disables caching.
func NewInputValueResolver(source Source, cache OutputCache, logger *zap.Logger) *InputValueResolver {
	return &InputValueResolver{
		source: source,
		cache:  cache,
		logger: logger,
	}
}

// Resolve returns the value of the output spent by in. Failures other than an
// unavailable source are reported as ErrInputResolution.
func (r *InputValueResolver) Resolve(ctx context.Context, in model.TransactionInput) (decimal.Decimal, error) {
	if in.Coinbase {
		return decimal.Zero, fmt.Errorf("input is coinbase: %w", ErrInputResolution)
	}

	if r.cache != nil {
		value, ok, err := r.cache.Get(in.PrevTxID, in.PrevVout)
		if err != nil {
			r.logger.Warn("output cache get failed",
				zap.String("txid", in.PrevTxID), zap.Uint32("vout", in.PrevVout), zap.Error(err))
		} else if ok {
			return value, nil
		}
	}

	prev, err := r.source.RawTransaction(ctx, in.PrevTxID)
	if err != nil {
		if IsFatal(err) {
			return decimal.Zero, err
		}
		return decimal.Zero, fmt.Errorf("get previous tx %s: %w: %w", in.PrevTxID, ErrInputResolution, err)
	}
	if prev == nil {
		return decimal.Zero, fmt.Errorf("get previous tx %s: %w: not found", in.PrevTxID, ErrInputResolution)
	}

	if r.cache != nil {
		if err := r.cache.PutOutputs(prev.TxID, prev.Outputs); err != nil {
			r.logger.Warn("output cache put failed", zap.String("txid", prev.TxID), zap.Error(err))
		}
	}

	for _, out := range prev.Outputs {
		if out.Index == in.PrevVout {
			return out.Value, nil
		}
	}
	return decimal.Zero, fmt.Errorf("previous tx %s has no output %d: %w", in.PrevTxID, in.PrevVout, ErrInputResolution)
}
