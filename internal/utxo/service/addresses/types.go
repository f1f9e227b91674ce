package addresses

import (
	"context"

	"github.com/goodnatureofminers/blockinsight7000-eventscan/internal/utxo/model"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE

type (
	// Store is the address record store read and rewritten by the report pass.
	Store interface {
		Deduplicate(ctx context.Context) (model.DeduplicationResult, error)
		ScanAddressRecords(ctx context.Context, fn func(model.AddressRow) error) error
		ScanAddressRecordsBySource(ctx context.Context, source string, fn func(model.AddressRow) error) error
		AddressTotals(ctx context.Context, fn func(model.AddressTotal) error) error
	}
)
