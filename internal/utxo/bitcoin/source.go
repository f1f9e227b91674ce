package bitcoin

import (
	"context"
	"fmt"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/goodnatureofminers/blockinsight7000-eventscan/internal/utxo/chain"
	"github.com/goodnatureofminers/blockinsight7000-eventscan/internal/utxo/model"
)

// Source implements chain.Source on top of a bitcoind JSON-RPC client.
type Source struct {
	rpc             RPCClient
	outputConverter OutputConverter
	network         model.Network
}

var _ chain.Source = (*Source)(nil)

// NewSource creates a Source for Bitcoin.
func NewSource(outputConverter OutputConverter, rpc RPCClient, network model.Network) *Source {
	return &Source{
		rpc:             rpc,
		outputConverter: outputConverter,
		network:         network,
	}
}

// BlockCount returns the height of the chain tip.
func (s *Source) BlockCount(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	count, err := s.rpc.GetBlockCount()
	if err != nil {
		return 0, classifyRPCError("getblockcount", err)
	}
	return count, nil
}

// BlockHash returns the hash of the block at height.
func (s *Source) BlockHash(ctx context.Context, height int64) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if height < 0 {
		return "", fmt.Errorf("negative block height %d: %w", height, chain.ErrLookupFailure)
	}
	hash, err := s.rpc.GetBlockHash(height)
	if err != nil {
		return "", classifyRPCError(fmt.Sprintf("getblockhash %d", height), err)
	}
	return hash.String(), nil
}

// BlockHeader returns header metadata for hash.
func (s *Source) BlockHeader(ctx context.Context, hash string) (*model.BlockHeader, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	h, err := parseHash(hash)
	if err != nil {
		return nil, err
	}
	header, err := s.rpc.GetBlockHeaderVerbose(h)
	if err != nil {
		return nil, classifyRPCError("getblockheader "+hash, err)
	}
	return &model.BlockHeader{
		Hash:   header.Hash,
		Height: int64(header.Height),
		Time:   time.Unix(header.Time, 0).UTC(),
	}, nil
}

// Block returns the block with full transaction bodies.
func (s *Source) Block(ctx context.Context, hash string) (*model.Block, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	h, err := parseHash(hash)
	if err != nil {
		return nil, err
	}
	src, err := s.rpc.GetBlockVerboseTx(h)
	if err != nil {
		return nil, classifyRPCError("getblock "+hash, err)
	}

	block, err := BuildBlockFromVerbose(*src, s.outputConverter)
	if err != nil {
		return nil, fmt.Errorf("convert block %s: %w: %w", hash, chain.ErrLookupFailure, err)
	}
	return &block, nil
}

// RawTransaction returns a decoded transaction by id.
func (s *Source) RawTransaction(ctx context.Context, txid string) (*model.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	h, err := parseHash(txid)
	if err != nil {
		return nil, err
	}
	src, err := s.rpc.GetRawTransactionVerbose(h)
	if err != nil {
		return nil, classifyRPCError("getrawtransaction "+txid, err)
	}

	tx, err := BuildTransaction(*src, s.outputConverter, time.Time{})
	if err != nil {
		return nil, fmt.Errorf("convert tx %s: %w: %w", txid, chain.ErrLookupFailure, err)
	}
	return &tx, nil
}

// TxOut returns the unspent output at index, or nil when it is spent.
func (s *Source) TxOut(ctx context.Context, txid string, index uint32) (*model.TransactionOutput, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	h, err := parseHash(txid)
	if err != nil {
		return nil, err
	}
	src, err := s.rpc.GetTxOut(h, index, false)
	if err != nil {
		return nil, classifyRPCError(fmt.Sprintf("gettxout %s:%d", txid, index), err)
	}
	if src == nil {
		return nil, nil
	}

	out, err := s.outputConverter.ConvertTxOut(index, *src)
	if err != nil {
		return nil, fmt.Errorf("convert txout %s:%d: %w: %w", txid, index, chain.ErrLookupFailure, err)
	}
	return &out, nil
}

func parseHash(s string) (*chainhash.Hash, error) {
	h, err := chainhash.NewHashFromStr(s)
	if err != nil {
		return nil, fmt.Errorf("parse hash %q: %w: %w", s, chain.ErrLookupFailure, err)
	}
	return h, nil
}
