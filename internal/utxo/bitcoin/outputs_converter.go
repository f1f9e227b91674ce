package bitcoin

import (
	"fmt"

	"github.com/btcsuite/btcd/btcjson"
	"github.com/goodnatureofminers/blockinsight7000-eventscan/internal/utxo/model"
	"github.com/goodnatureofminers/blockinsight7000-eventscan/pkg/safe"
)

// outputConverter converts rpc tx outputs to domain outputs using a decoder.
type outputConverter struct {
	decoder ScriptDecoder
}

// NewOutputConverter constructs a converter that turns raw RPC outputs into domain outputs.
func NewOutputConverter(decoder ScriptDecoder) OutputConverter {
	return &outputConverter{decoder: decoder}
}

func (c *outputConverter) Convert(tx btcjson.TxRawResult) ([]model.TransactionOutput, error) {
	outputs := make([]model.TransactionOutput, 0, len(tx.Vout))
	for idx, vout := range tx.Vout {
		index, err := safe.Uint32(idx)
		if err != nil {
			return nil, fmt.Errorf("tx %s output index overflow: %w", tx.Txid, err)
		}
		// prefer the index reported by the node
		if vout.N != 0 {
			index = vout.N
		}

		out, err := c.convert(index, vout.Value, vout.ScriptPubKey)
		if err != nil {
			return nil, fmt.Errorf("tx %s output %d: %w", tx.Txid, idx, err)
		}
		outputs = append(outputs, out)
	}
	return outputs, nil
}

func (c *outputConverter) ConvertTxOut(index uint32, out btcjson.GetTxOutResult) (model.TransactionOutput, error) {
	return c.convert(index, out.Value, out.ScriptPubKey)
}

func (c *outputConverter) convert(index uint32, btc float64, script btcjson.ScriptPubKeyResult) (model.TransactionOutput, error) {
	if btc < 0 {
		return model.TransactionOutput{}, fmt.Errorf("negative value: %f", btc)
	}
	value, err := ValueFromBTC(btc)
	if err != nil {
		return model.TransactionOutput{}, fmt.Errorf("convert value: %w", err)
	}
	address, addresses, err := c.decoder.decodeAddresses(script)
	if err != nil {
		return model.TransactionOutput{}, fmt.Errorf("decode addresses: %w", err)
	}

	return model.TransactionOutput{
		Index:      index,
		Value:      value,
		ScriptType: script.Type,
		ScriptHex:  script.Hex,
		ScriptAsm:  script.Asm,
		Address:    address,
		Addresses:  addresses,
	}, nil
}
