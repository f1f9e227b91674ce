// Package bitcoin adapts a bitcoind JSON-RPC node to the chain data source.
package bitcoin

import (
	"fmt"
	"time"

	"github.com/btcsuite/btcd/btcjson"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/goodnatureofminers/blockinsight7000-eventscan/internal/utxo/model"
	"github.com/goodnatureofminers/blockinsight7000-eventscan/pkg/safe"
	"github.com/shopspring/decimal"
)

const satoshiExp = -8

// ValueFromBTC converts a node-reported BTC amount into an exact decimal by
// rounding to whole satoshis first.
func ValueFromBTC(value float64) (decimal.Decimal, error) {
	amt, err := btcutil.NewAmount(value)
	if err != nil {
		return decimal.Zero, err
	}
	if amt < 0 {
		return decimal.Zero, fmt.Errorf("negative amount: %d", amt)
	}
	return decimal.New(int64(amt), satoshiExp), nil
}

// SatoshisToValue converts satoshis to whole coins.
func SatoshisToValue(sats int64) decimal.Decimal {
	return decimal.New(sats, satoshiExp)
}

// BuildTransaction maps a verbose rpc transaction into a model.Transaction.
func BuildTransaction(src btcjson.TxRawResult, converter OutputConverter, fallbackTime time.Time) (model.Transaction, error) {
	outputs, err := converter.Convert(src)
	if err != nil {
		return model.Transaction{}, err
	}

	inputs := make([]model.TransactionInput, 0, len(src.Vin))
	for _, vin := range src.Vin {
		if vin.IsCoinBase() {
			inputs = append(inputs, model.TransactionInput{Coinbase: true})
			continue
		}
		inputs = append(inputs, model.TransactionInput{
			PrevTxID: vin.Txid,
			PrevVout: vin.Vout,
		})
	}

	ts := fallbackTime
	if ts.IsZero() {
		switch {
		case src.Blocktime > 0:
			ts = time.Unix(src.Blocktime, 0).UTC()
		case src.Time > 0:
			ts = time.Unix(src.Time, 0).UTC()
		}
	}

	return model.Transaction{
		TxID:    src.Txid,
		Inputs:  inputs,
		Outputs: outputs,
		Time:    ts,
	}, nil
}

// BuildBlockFromVerbose maps a verbose block with transactions into a model.Block.
func BuildBlockFromVerbose(src btcjson.GetBlockVerboseTxResult, converter OutputConverter) (model.Block, error) {
	if src.Height < 0 {
		return model.Block{}, fmt.Errorf("block %s negative height %d", src.Hash, src.Height)
	}
	if _, err := safe.Uint32(len(src.Tx)); err != nil {
		return model.Block{}, fmt.Errorf("block %d tx count overflow: %w", src.Height, err)
	}

	blockTime := time.Unix(src.Time, 0).UTC()
	txs := make([]model.Transaction, 0, len(src.Tx))
	for _, raw := range src.Tx {
		tx, err := BuildTransaction(raw, converter, blockTime)
		if err != nil {
			return model.Block{}, fmt.Errorf("block %d: %w", src.Height, err)
		}
		txs = append(txs, tx)
	}

	return model.Block{
		Height:       src.Height,
		Hash:         src.Hash,
		Time:         blockTime,
		Transactions: txs,
	}, nil
}
