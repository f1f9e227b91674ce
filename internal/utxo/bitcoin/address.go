package bitcoin

import (
	"encoding/hex"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
)

// DeriveAddress recovers the address of a standard script from its asm form.
// Unsupported or malformed scripts yield ("", false).
func DeriveAddress(scriptType, scriptAsm string, params *chaincfg.Params) (string, bool) {
	if params == nil {
		params = &chaincfg.MainNetParams
	}
	ops := strings.Fields(scriptAsm)

	switch scriptType {
	case "pubkey":
		if len(ops) != 2 || ops[1] != "OP_CHECKSIG" {
			return "", false
		}
		raw, err := hex.DecodeString(ops[0])
		if err != nil {
			return "", false
		}
		pk, err := btcutil.NewAddressPubKey(raw, params)
		if err != nil {
			return "", false
		}
		return pk.AddressPubKeyHash().EncodeAddress(), true

	case "pubkeyhash":
		if len(ops) != 5 || ops[0] != "OP_DUP" || ops[1] != "OP_HASH160" ||
			ops[3] != "OP_EQUALVERIFY" || ops[4] != "OP_CHECKSIG" {
			return "", false
		}
		hash, ok := decodeHash160(ops[2])
		if !ok {
			return "", false
		}
		addr, err := btcutil.NewAddressPubKeyHash(hash, params)
		if err != nil {
			return "", false
		}
		return addr.EncodeAddress(), true

	case "scripthash":
		if len(ops) != 3 || ops[0] != "OP_HASH160" || ops[2] != "OP_EQUAL" {
			return "", false
		}
		hash, ok := decodeHash160(ops[1])
		if !ok {
			return "", false
		}
		addr, err := btcutil.NewAddressScriptHashFromHash(hash, params)
		if err != nil {
			return "", false
		}
		return addr.EncodeAddress(), true
	}

	return "", false
}

func decodeHash160(s string) ([]byte, bool) {
	raw, err := hex.DecodeString(s)
	if err != nil || len(raw) != 20 {
		return nil, false
	}
	return raw, true
}
