// Package model defines domain models for event-window analysis of UTXO chains.
package model

import "time"

// BlockHeader is the subset of block metadata the locator needs.
type BlockHeader struct {
	Hash   string
	Height int64
	Time   time.Time
}

// Block is a block with full transaction bodies as returned by the data source.
type Block struct {
	Height       int64
	Hash         string
	Time         time.Time
	Transactions []Transaction
}
