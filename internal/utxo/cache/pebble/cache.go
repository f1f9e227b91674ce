// Package pebble persists previous output values on disk so input resolution
// survives restarts.
package pebble

import (
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"
	"github.com/goodnatureofminers/blockinsight7000-eventscan/internal/utxo/chain"
	"github.com/goodnatureofminers/blockinsight7000-eventscan/internal/utxo/model"
	"github.com/shopspring/decimal"
)

// OutputCache is a chain.OutputCache backed by a pebble database.
type OutputCache struct {
	db *pebble.DB
}

// Open opens or creates the cache in dir.
func Open(dir string) (*OutputCache, error) {
	if dir == "" {
		return nil, errors.New("output cache dir is required")
	}
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("open output cache %s: %w", dir, err)
	}
	return &OutputCache{db: db}, nil
}

// Get returns the cached value of (txid, vout).
func (c *OutputCache) Get(txid string, vout uint32) (decimal.Decimal, bool, error) {
	raw, closer, err := c.db.Get([]byte(chain.OutputKey(txid, vout)))
	if errors.Is(err, pebble.ErrNotFound) {
		return decimal.Zero, false, nil
	}
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("get output %s:%d: %w", txid, vout, err)
	}
	defer closer.Close()

	value, err := decimal.NewFromString(string(raw))
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("decode output %s:%d: %w", txid, vout, err)
	}
	return value, true, nil
}

// PutOutputs stores every output value of txid in one batch.
func (c *OutputCache) PutOutputs(txid string, outputs []model.TransactionOutput) error {
	if len(outputs) == 0 {
		return nil
	}
	batch := c.db.NewBatch()
	defer batch.Close()

	for _, out := range outputs {
		if err := batch.Set([]byte(chain.OutputKey(txid, out.Index)), []byte(out.Value.String()), nil); err != nil {
			return fmt.Errorf("stage output %s:%d: %w", txid, out.Index, err)
		}
	}
	if err := batch.Commit(pebble.NoSync); err != nil {
		return fmt.Errorf("commit outputs of %s: %w", txid, err)
	}
	return nil
}

// Close flushes and closes the database.
func (c *OutputCache) Close() error {
	return c.db.Close()
}
