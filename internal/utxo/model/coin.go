package model

import (
	"fmt"
	"strings"
)

// Coin is the ticker an analysis run is labelled with.
type Coin string

// Network is the canonical name of a chain network.
type Network string

const BTC Coin = "BTC"

const (
	Mainnet Network = "mainnet"
	Testnet Network = "testnet"
	Regtest Network = "regtest"
	Signet  Network = "signet"
)

// Normalize maps the aliases bitcoind and operators use onto a canonical Network.
func (n Network) Normalize() (Network, error) {
	switch strings.ToLower(strings.TrimSpace(string(n))) {
	case "main", "mainnet", "bitcoin":
		return Mainnet, nil
	case "test", "testnet", "testnet3":
		return Testnet, nil
	case "regtest":
		return Regtest, nil
	case "signet":
		return Signet, nil
	default:
		return "", fmt.Errorf("unsupported network %q", string(n))
	}
}
