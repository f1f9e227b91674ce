package bitcoin

import (
	"github.com/btcsuite/btcd/btcjson"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/goodnatureofminers/blockinsight7000-eventscan/internal/utxo/model"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE

type (
	// RPCClient is the subset of the btcd rpc client used by Source.
	RPCClient interface {
		GetBlockCount() (int64, error)
		GetBlockHash(blockHeight int64) (*chainhash.Hash, error)
		GetBlockHeaderVerbose(blockHash *chainhash.Hash) (*btcjson.GetBlockHeaderVerboseResult, error)
		GetBlockVerboseTx(blockHash *chainhash.Hash) (*btcjson.GetBlockVerboseTxResult, error)
		GetRawTransactionVerbose(txHash *chainhash.Hash) (*btcjson.TxRawResult, error)
		GetTxOut(txHash *chainhash.Hash, index uint32, mempool bool) (*btcjson.GetTxOutResult, error)
	}

	ScriptDecoder interface {
		decodeAddresses(script btcjson.ScriptPubKeyResult) (string, []string, error)
	}

	OutputConverter interface {
		Convert(tx btcjson.TxRawResult) ([]model.TransactionOutput, error)
		ConvertTxOut(index uint32, out btcjson.GetTxOutResult) (model.TransactionOutput, error)
	}
)
