package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is a transaction body with resolved output values.
type Transaction struct {
	TxID    string
	Inputs  []TransactionInput
	Outputs []TransactionOutput
	Time    time.Time
}

// TransactionInput references an output of a previous transaction.
type TransactionInput struct {
	PrevTxID string
	PrevVout uint32
	Coinbase bool
}

// TransactionOutput is a single output. Value is denominated in whole coins.
type TransactionOutput struct {
	Index      uint32
	Value      decimal.Decimal
	ScriptType string
	ScriptHex  string
	ScriptAsm  string
	// Address is the single address reported by the node, if any.
	Address   string
	Addresses []string
}

// IsCoinbase reports whether the transaction mints the block reward.
func (t Transaction) IsCoinbase() bool {
	return len(t.Inputs) > 0 && t.Inputs[0].Coinbase
}

// TotalOutputValue sums values of all outputs.
func (t Transaction) TotalOutputValue() decimal.Decimal {
	total := decimal.Zero
	for _, out := range t.Outputs {
		total = total.Add(out.Value)
	}
	return total
}

// ScannedTransaction is a transaction annotated with its containing block.
type ScannedTransaction struct {
	Transaction
	BlockHeight int64
	BlockTime   time.Time
}
