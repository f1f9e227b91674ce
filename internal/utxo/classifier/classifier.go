package classifier

import (
	"context"
	"errors"
	"fmt"

	"github.com/goodnatureofminers/blockinsight7000-eventscan/internal/utxo/chain"
	"github.com/goodnatureofminers/blockinsight7000-eventscan/internal/utxo/model"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ErrMalformedTransaction marks a transaction that cannot be accounted.
var ErrMalformedTransaction = errors.New("malformed transaction")

const unknownScriptType = "nonstandard"

// Result is the accounting of one transaction.
type Result struct {
	TxID     string
	Coinbase bool
	// Filtered is set when the total output value is outside the job bounds.
	Filtered bool
	Value    decimal.Decimal
	// Fee is zero for coinbase transactions.
	Fee              decimal.Decimal
	UnresolvedInputs int
	OutputsByType    map[string]uint64
	TotalOutputs     uint64
	// Addresses holds unique addresses of outputs that may produce records.
	Addresses []string
	Records   []model.AddressRecord
}

// Classifier accounts transactions against a TypeRegistry.
type Classifier struct {
	resolver InputResolver
	registry *TypeRegistry
	spent    SpentChecker
	logger   *zap.Logger
}

// New constructs a Classifier. A nil spent checker leaves every record unspent.
func New(resolver InputResolver, registry *TypeRegistry, spent SpentChecker, logger *zap.Logger) *Classifier {
	return &Classifier{
		resolver: resolver,
		registry: registry,
		spent:    spent,
		logger:   logger,
	}
}

// Classify computes the fee, the script type tally and the proposed address
// records of tx. Unresolvable inputs count as zero. Only errors that must stop
// the run, or ErrMalformedTransaction, are returned.
func (c *Classifier) Classify(ctx context.Context, event model.Event, filter model.ValueFilter, tx model.ScannedTransaction) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if len(tx.Outputs) == 0 {
		return Result{}, fmt.Errorf("tx %s has no outputs: %w", tx.TxID, ErrMalformedTransaction)
	}
	for _, out := range tx.Outputs {
		if out.Value.IsNegative() {
			return Result{}, fmt.Errorf("tx %s output %d has negative value: %w", tx.TxID, out.Index, ErrMalformedTransaction)
		}
	}

	res := Result{
		TxID:          tx.TxID,
		Coinbase:      tx.IsCoinbase(),
		Value:         tx.TotalOutputValue(),
		Fee:           decimal.Zero,
		OutputsByType: make(map[string]uint64),
	}
	if !filter.Accepts(res.Value) {
		res.Filtered = true
		return res, nil
	}

	if !res.Coinbase {
		inputs := decimal.Zero
		for _, in := range tx.Inputs {
			value, err := c.resolver.Resolve(ctx, in)
			if err != nil {
				if chain.IsFatal(err) {
					return Result{}, fmt.Errorf("resolve input of tx %s: %w", tx.TxID, err)
				}
				res.UnresolvedInputs++
				c.logger.Warn("input unresolved, counted as zero",
					zap.String("txid", tx.TxID),
					zap.String("prev_txid", in.PrevTxID),
					zap.Uint32("prev_vout", in.PrevVout),
					zap.Int64("height", tx.BlockHeight),
					zap.Error(err))
				continue
			}
			inputs = inputs.Add(value)
		}
		res.Fee = inputs.Sub(res.Value)
		if res.Fee.IsNegative() {
			c.logger.Warn("negative fee",
				zap.String("txid", tx.TxID),
				zap.String("fee", res.Fee.String()),
				zap.Int("unresolved_inputs", res.UnresolvedInputs))
		}
	}

	seen := make(map[string]struct{})
	for _, out := range tx.Outputs {
		typeName := out.ScriptType
		if res.Coinbase {
			typeName = model.CoinbaseType
		} else if typeName == "" {
			typeName = unknownScriptType
		}

		policy, added := c.registry.Resolve(typeName)
		if added {
			c.logger.Info("registered script type", zap.String("type", typeName), zap.String("txid", tx.TxID))
		}
		if policy.CountInSummary {
			res.OutputsByType[typeName]++
			res.TotalOutputs++
		}
		if !policy.RequiresAddress || policy.IsRejected {
			continue
		}

		addresses := outputAddresses(out)
		if len(addresses) == 0 {
			continue
		}

		spent, err := c.isSpent(ctx, tx.TxID, out.Index)
		if err != nil {
			return Result{}, err
		}

		for _, addr := range addresses {
			if _, ok := seen[addr]; !ok {
				seen[addr] = struct{}{}
				res.Addresses = append(res.Addresses, addr)
			}
			res.Records = append(res.Records, model.AddressRecord{
				Address:            addr,
				TxID:               tx.TxID,
				VoutIndex:          out.Index,
				Value:              out.Value,
				EventTime:          event.Time,
				TxTime:             tx.BlockTime,
				BlockNumber:        tx.BlockHeight,
				PriceChange:        event.ChangePercent,
				Source:             typeName,
				EventName:          event.Name,
				AddressName:        event.Name + "_" + typeName,
				AddressDescription: policy.Description,
				Spent:              spent,
			})
		}
	}

	return res, nil
}

func (c *Classifier) isSpent(ctx context.Context, txid string, vout uint32) (bool, error) {
	if c.spent == nil {
		return false, nil
	}
	out, err := c.spent.TxOut(ctx, txid, vout)
	if err != nil {
		if chain.IsFatal(err) {
			return false, fmt.Errorf("check spent %s:%d: %w", txid, vout, err)
		}
		c.logger.Warn("spent check failed", zap.String("txid", txid), zap.Uint32("vout", vout), zap.Error(err))
		return false, nil
	}
	return out == nil, nil
}

// outputAddresses prefers the single address field and falls back to the list.
func outputAddresses(out model.TransactionOutput) []string {
	if out.Address != "" {
		return []string{out.Address}
	}
	addresses := make([]string, 0, len(out.Addresses))
	for _, a := range out.Addresses {
		if a != "" {
			addresses = append(addresses, a)
		}
	}
	return addresses
}
