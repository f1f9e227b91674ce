package bitcoin

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcjson"
	"github.com/goodnatureofminers/blockinsight7000-eventscan/internal/utxo/chain"
)

// classifyRPCError separates node-side call failures from transport failures.
func classifyRPCError(op string, err error) error {
	if err == nil {
		return nil
	}
	var rpcErr *btcjson.RPCError
	if errors.As(err, &rpcErr) {
		return fmt.Errorf("%s: %w: %w", op, chain.ErrLookupFailure, err)
	}
	return fmt.Errorf("%s: %w: %w", op, chain.ErrSourceUnavailable, err)
}
