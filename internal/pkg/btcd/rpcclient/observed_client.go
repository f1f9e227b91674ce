// Package rpcclient decorates the btcd rpc client with metrics and pacing.
package rpcclient

import (
	"time"

	"github.com/btcsuite/btcd/btcjson"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"go.uber.org/ratelimit"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE

type (
	RPCMetrics interface {
		Observe(operation string, err error, started time.Time)
		ObserveThrottle(wait time.Duration)
	}

	// Client is the subset of *rpcclient.Client calls used by the analyzer.
	Client interface {
		GetBlockCount() (int64, error)
		GetBlockHash(blockHeight int64) (*chainhash.Hash, error)
		GetBlockHeaderVerbose(blockHash *chainhash.Hash) (*btcjson.GetBlockHeaderVerboseResult, error)
		GetBlockVerboseTx(blockHash *chainhash.Hash) (*btcjson.GetBlockVerboseTxResult, error)
		GetRawTransactionVerbose(txHash *chainhash.Hash) (*btcjson.TxRawResult, error)
		GetTxOut(txHash *chainhash.Hash, index uint32, mempool bool) (*btcjson.GetTxOutResult, error)
	}
)

// ObservedClient records every call and paces requests to the node.
type ObservedClient struct {
	client     Client
	rpcMetrics RPCMetrics
	limiter    ratelimit.Limiter
}

// NewObservedClient wraps client. A non-positive rps disables pacing.
func NewObservedClient(client Client, rpcMetrics RPCMetrics, rps int) *ObservedClient {
	limiter := ratelimit.NewUnlimited()
	if rps > 0 {
		limiter = ratelimit.New(rps, ratelimit.WithoutSlack)
	}
	return &ObservedClient{
		client:     client,
		rpcMetrics: rpcMetrics,
		limiter:    limiter,
	}
}

// take blocks until the limiter admits the next call and records the wait.
func (r *ObservedClient) take() {
	requested := time.Now()
	r.rpcMetrics.ObserveThrottle(r.limiter.Take().Sub(requested))
}

func (r *ObservedClient) GetBlockCount() (count int64, err error) {
	r.take()
	started := time.Now()
	defer func() {
		r.rpcMetrics.Observe("get_block_count", err, started)
	}()
	return r.client.GetBlockCount()
}

func (r *ObservedClient) GetBlockHash(blockHeight int64) (hash *chainhash.Hash, err error) {
	r.take()
	started := time.Now()
	defer func() {
		r.rpcMetrics.Observe("get_block_hash", err, started)
	}()
	return r.client.GetBlockHash(blockHeight)
}

func (r *ObservedClient) GetBlockHeaderVerbose(blockHash *chainhash.Hash) (res *btcjson.GetBlockHeaderVerboseResult, err error) {
	r.take()
	started := time.Now()
	defer func() {
		r.rpcMetrics.Observe("get_block_header_verbose", err, started)
	}()
	return r.client.GetBlockHeaderVerbose(blockHash)
}

func (r *ObservedClient) GetBlockVerboseTx(blockHash *chainhash.Hash) (res *btcjson.GetBlockVerboseTxResult, err error) {
	r.take()
	started := time.Now()
	defer func() {
		r.rpcMetrics.Observe("get_block_verbose_tx", err, started)
	}()
	return r.client.GetBlockVerboseTx(blockHash)
}

func (r *ObservedClient) GetRawTransactionVerbose(txHash *chainhash.Hash) (res *btcjson.TxRawResult, err error) {
	r.take()
	started := time.Now()
	defer func() {
		r.rpcMetrics.Observe("get_raw_transaction_verbose", err, started)
	}()
	return r.client.GetRawTransactionVerbose(txHash)
}

func (r *ObservedClient) GetTxOut(txHash *chainhash.Hash, index uint32, mempool bool) (res *btcjson.GetTxOutResult, err error) {
	r.take()
	started := time.Now()
	defer func() {
		r.rpcMetrics.Observe("get_tx_out", err, started)
	}()
	return r.client.GetTxOut(txHash, index, mempool)
}
