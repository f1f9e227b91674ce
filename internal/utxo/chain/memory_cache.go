package chain

import (
	"strconv"

	"github.com/goodnatureofminers/blockinsight7000-eventscan/internal/utxo/model"
	"github.com/shopspring/decimal"
)

const defaultMemoryCacheCapacity = 100_000

// MemoryCache is a bounded in-memory OutputCache evicting the oldest entries first.
type MemoryCache struct {
	capacity int
	values   map[string]decimal.Decimal
	order    []string
	head     int
}

// NewMemoryCache constructs a MemoryCache holding up to capacity outputs.
func NewMemoryCache(capacity int) *MemoryCache {
	if capacity <= 0 {
		capacity = defaultMemoryCacheCapacity
	}
	return &MemoryCache{
		capacity: capacity,
		values:   make(map[string]decimal.Decimal),
	}
}

func (c *MemoryCache) Get(txid string, vout uint32) (decimal.Decimal, bool, error) {
	value, ok := c.values[OutputKey(txid, vout)]
	return value, ok, nil
}

func (c *MemoryCache) PutOutputs(txid string, outputs []model.TransactionOutput) error {
	for _, out := range outputs {
		key := OutputKey(txid, out.Index)
		if _, ok := c.values[key]; !ok {
			c.order = append(c.order, key)
		}
		c.values[key] = out.Value
	}
	c.evict()
	return nil
}

// Len returns the number of cached outputs.
func (c *MemoryCache) Len() int {
	return len(c.values)
}

func (c *MemoryCache) evict() {
	for len(c.values) > c.capacity && c.head < len(c.order) {
		delete(c.values, c.order[c.head])
		c.order[c.head] = ""
		c.head++
	}
	// compact once the consumed prefix dominates
	if c.head > 0 && c.head*2 >= len(c.order) {
		c.order = append([]string(nil), c.order[c.head:]...)
		c.head = 0
	}
}

// OutputKey is the cache key of an output.
func OutputKey(txid string, vout uint32) string {
	return txid + ":" + strconv.FormatUint(uint64(vout), 10)
}
