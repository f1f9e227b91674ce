package eventscan

import (
	"context"
	"time"

	"github.com/goodnatureofminers/blockinsight7000-eventscan/internal/utxo/chain"
	"github.com/goodnatureofminers/blockinsight7000-eventscan/internal/utxo/classifier"
	"github.com/goodnatureofminers/blockinsight7000-eventscan/internal/utxo/model"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE

type (
	WindowScanner interface {
		Scan(ctx context.Context, window model.Window, filter model.ValueFilter) ([]model.ScannedTransaction, chain.ScanStats, error)
	}

	Classifier interface {
		Classify(ctx context.Context, event model.Event, filter model.ValueFilter, tx model.ScannedTransaction) (classifier.Result, error)
	}

	// AddressStore persists address records together with the scan progress.
	AddressStore interface {
		CommitBatch(ctx context.Context, records []model.AddressRecord, progress model.ScanProgress) (uint64, error)
		ScanProgress(ctx context.Context, filterName, eventName string, eventTime time.Time) (*model.ScanProgress, error)
		CompleteScan(ctx context.Context, progress model.ScanProgress) error
	}

	SummaryWriter interface {
		WriteSummary(ctx context.Context, summary model.EventSummary) error
	}

	Metrics interface {
		ObserveEvent(filter string, err error, started time.Time)
		ObserveTransaction(filter, outcome string)
		ObserveSkippedBlocks(n int)
		ObserveAddressConflicts(n uint64)
	}
)
