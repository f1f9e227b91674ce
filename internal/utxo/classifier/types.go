// Package classifier computes fees, script type tallies and address records
// for transactions found inside an event window.
package classifier

import (
	"context"

	"github.com/goodnatureofminers/blockinsight7000-eventscan/internal/utxo/model"
	"github.com/shopspring/decimal"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE

type (
	InputResolver interface {
		Resolve(ctx context.Context, in model.TransactionInput) (decimal.Decimal, error)
	}

	// SpentChecker reports unspent outputs. A nil output means spent.
	SpentChecker interface {
		TxOut(ctx context.Context, txid string, index uint32) (*model.TransactionOutput, error)
	}
)
