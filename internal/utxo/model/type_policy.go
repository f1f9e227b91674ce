package model

// CoinbaseType is the bucket for outputs of block reward transactions.
const CoinbaseType = "Coinbase"

// TypePolicy controls how outputs of a script type are accounted.
type TypePolicy struct {
	Name        string
	Description string
	// RequiresAddress enables address extraction for the type.
	RequiresAddress bool
	// IsRejected keeps the type out of address records while still tallying it.
	IsRejected bool
	// CountInSummary includes the type in type counts and total outputs.
	CountInSummary bool
	ReportFilename string
	DatabaseReport bool
	CSVReport      bool
}

// DefaultTypePolicy is assigned to script types seen for the first time.
func DefaultTypePolicy(name string) TypePolicy {
	return TypePolicy{
		Name:            name,
		Description:     "Unknown",
		RequiresAddress: true,
		IsRejected:      false,
		CountInSummary:  true,
	}
}
