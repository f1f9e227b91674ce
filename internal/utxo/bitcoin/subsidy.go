package bitcoin

import "github.com/shopspring/decimal"

const (
	initialSubsidySats = 50 * 100_000_000
	halvingInterval    = 210_000
)

// BlockSubsidy returns the block reward at height in whole coins.
func BlockSubsidy(height int64) decimal.Decimal {
	if height < 0 {
		return decimal.Zero
	}
	halvings := height / halvingInterval
	if halvings >= 64 {
		return decimal.Zero
	}
	return SatoshisToValue(int64(initialSubsidySats) >> uint(halvings))
}
