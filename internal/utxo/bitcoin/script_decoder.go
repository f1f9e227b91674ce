package bitcoin

import (
	"encoding/hex"

	"github.com/btcsuite/btcd/btcjson"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/goodnatureofminers/blockinsight7000-eventscan/internal/utxo/model"
)

// scriptDecoder extracts human-readable addresses from ScriptPubKey results.
type scriptDecoder struct {
	params *chaincfg.Params
}

// NewScriptDecoder initializes a decoder for extracting addresses using params of the provided network.
func NewScriptDecoder(network model.Network) (ScriptDecoder, error) {
	params, err := ChainParams(network)
	if err != nil {
		return nil, err
	}
	return &scriptDecoder{params: params}, nil
}

// decodeAddresses keeps what the node reported. When the node reported
// nothing it derives the address from asm, then from the raw script.
func (d *scriptDecoder) decodeAddresses(script btcjson.ScriptPubKeyResult) (string, []string, error) {
	if script.Address != "" || len(script.Addresses) > 0 {
		return script.Address, append([]string(nil), script.Addresses...), nil
	}
	if addr, ok := DeriveAddress(script.Type, script.Asm, d.params); ok {
		return addr, nil, nil
	}
	if script.Hex == "" {
		return "", nil, nil
	}

	scriptBytes, err := hex.DecodeString(script.Hex)
	if err != nil {
		return "", nil, err
	}
	_, addrs, _, err := txscript.ExtractPkScriptAddrs(scriptBytes, d.params)
	if err != nil {
		return "", nil, err
	}

	switch len(addrs) {
	case 0:
		return "", nil, nil
	case 1:
		return addrs[0].EncodeAddress(), nil, nil
	}
	result := make([]string, 0, len(addrs))
	for _, addr := range addrs {
		result = append(result, addr.EncodeAddress())
	}
	return "", result, nil
}

// ChainParams returns btcd network parameters for network.
func ChainParams(network model.Network) (*chaincfg.Params, error) {
	canonical, err := network.Normalize()
	if err != nil {
		return nil, err
	}
	switch canonical {
	case model.Testnet:
		return &chaincfg.TestNet3Params, nil
	case model.Regtest:
		return &chaincfg.RegressionNetParams, nil
	case model.Signet:
		return &chaincfg.SigNetParams, nil
	default:
		return &chaincfg.MainNetParams, nil
	}
}
