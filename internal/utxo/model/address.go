package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// AddressRecord is an observation of an address receiving an output inside an
// event window. (Address, TxID, VoutIndex) is unique in the store.
type AddressRecord struct {
	Address            string
	TxID               string
	VoutIndex          uint32
	Value              decimal.Decimal
	EventTime          time.Time
	TxTime             time.Time
	BlockNumber        int64
	PriceChange        decimal.Decimal
	Source             string
	EventName          string
	AddressName        string
	AddressDescription string
	Spent              bool
}

// AddressRow is a stored address row. Columns cleared by deduplication are
// nullable.
type AddressRow struct {
	ID                 int64
	Address            string
	TxID               *string
	VoutIndex          *int32
	Value              decimal.Decimal
	EventTime          *time.Time
	LastEventTime      *time.Time
	TxTime             *time.Time
	BlockNumber        *int64
	PriceChange        decimal.NullDecimal
	Source             string
	EventName          string
	AddressName        string
	AddressDescription string
	Spent              bool
	Occurrences        int32
}

// AddressTotal is the per-address aggregate over the address table.
type AddressTotal struct {
	Address        string
	TotalValue     decimal.Decimal
	FirstEventTime time.Time
	LastEventTime  time.Time
	Occurrences    int64
}

// DeduplicationResult reports the effect of collapsing the address table.
type DeduplicationResult struct {
	RowsBefore int64
	Addresses  int64
}

// ScanProgress is the resumption state of one (filter, event) pass.
type ScanProgress struct {
	FilterName          string
	EventName           string
	EventTime           time.Time
	LastCommittedHeight int64
	Completed           bool
	UpdatedAt           time.Time
}
