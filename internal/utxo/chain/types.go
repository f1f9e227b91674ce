// Package chain locates and walks block windows over a blockchain data source.
package chain

import (
	"context"
	"time"

	"github.com/goodnatureofminers/blockinsight7000-eventscan/internal/utxo/model"
	"github.com/shopspring/decimal"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE

type (
	// Source is the read-only blockchain data source.
	Source interface {
		BlockCount(ctx context.Context) (int64, error)
		BlockHash(ctx context.Context, height int64) (string, error)
		BlockHeader(ctx context.Context, hash string) (*model.BlockHeader, error)
		Block(ctx context.Context, hash string) (*model.Block, error)
		RawTransaction(ctx context.Context, txid string) (*model.Transaction, error)
		// TxOut returns nil when the output is spent or unknown.
		TxOut(ctx context.Context, txid string, index uint32) (*model.TransactionOutput, error)
	}

	Locator interface {
		Locate(ctx context.Context, target time.Time) (int64, error)
	}

	// OutputCache stores values of previously seen outputs keyed by (txid, vout).
	OutputCache interface {
		Get(txid string, vout uint32) (decimal.Decimal, bool, error)
		PutOutputs(txid string, outputs []model.TransactionOutput) error
	}
)
