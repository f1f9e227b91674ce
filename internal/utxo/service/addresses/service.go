// Package addresses collapses the address record store and exports it as CSV.
package addresses

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/goodnatureofminers/blockinsight7000-eventscan/internal/utxo/model"
	"github.com/goodnatureofminers/blockinsight7000-eventscan/internal/utxo/report"
	"go.uber.org/zap"
)

const (
	AddressesFilename = "addresses.csv"
	TotalsFilename    = "address_totals.csv"
)

type Config struct {
	Deduplicate bool
	// ExportDir disables exports when empty.
	ExportDir string
}

// Report describes what a run did.
type Report struct {
	Deduplication *model.DeduplicationResult
	// Files maps exported file names to their row counts.
	Files map[string]int
}

type Service struct {
	store  Store
	types  []model.TypePolicy
	cfg    Config
	logger *zap.Logger
}

// NewService constructs a Service. Per-type reports are written for policies
// with CSVReport set and a report filename.
func NewService(store Store, types []model.TypePolicy, cfg Config, logger *zap.Logger) (*Service, error) {
	if store == nil {
		return nil, errors.New("store is required")
	}
	return &Service{store: store, types: types, cfg: cfg, logger: logger}, nil
}

// Run deduplicates the store when configured and writes the exports. A failed
// deduplication leaves the store untouched and stops the run.
func (s *Service) Run(ctx context.Context) (Report, error) {
	rep := Report{Files: make(map[string]int)}

	if s.cfg.Deduplicate {
		res, err := s.store.Deduplicate(ctx)
		if err != nil {
			return rep, fmt.Errorf("deduplicate address records: %w", err)
		}
		rep.Deduplication = &res
		s.logger.Info("address records deduplicated",
			zap.Int64("rows_before", res.RowsBefore),
			zap.Int64("addresses", res.Addresses))
	}

	if s.cfg.ExportDir == "" {
		return rep, nil
	}
	if err := os.MkdirAll(s.cfg.ExportDir, 0o755); err != nil {
		return rep, fmt.Errorf("create export dir: %w", err)
	}

	n, err := s.exportRows(ctx, AddressesFilename, func(fn func(model.AddressRow) error) error {
		return s.store.ScanAddressRecords(ctx, fn)
	})
	if err != nil {
		return rep, err
	}
	rep.Files[AddressesFilename] = n

	n, err = s.exportTotals(ctx)
	if err != nil {
		return rep, err
	}
	rep.Files[TotalsFilename] = n

	for _, policy := range s.types {
		if !policy.CSVReport || policy.ReportFilename == "" {
			continue
		}
		source := policy.Name
		n, err := s.exportRows(ctx, policy.ReportFilename, func(fn func(model.AddressRow) error) error {
			return s.store.ScanAddressRecordsBySource(ctx, source, fn)
		})
		if err != nil {
			return rep, err
		}
		rep.Files[policy.ReportFilename] = n
	}

	return rep, nil
}

func (s *Service) exportRows(ctx context.Context, name string, scan func(func(model.AddressRow) error) error) (int, error) {
	var rows int
	err := s.writeFile(name, func(f *os.File) error {
		w, err := report.NewAddressWriter(f)
		if err != nil {
			return err
		}
		if err := scan(func(row model.AddressRow) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return w.Write(row)
		}); err != nil {
			return err
		}
		rows = w.Rows()
		return w.Close()
	})
	return rows, err
}

func (s *Service) exportTotals(ctx context.Context) (int, error) {
	var rows int
	err := s.writeFile(TotalsFilename, func(f *os.File) error {
		w, err := report.NewTotalsWriter(f)
		if err != nil {
			return err
		}
		if err := s.store.AddressTotals(ctx, w.Write); err != nil {
			return err
		}
		rows = w.Rows()
		return w.Close()
	})
	return rows, err
}

// writeFile writes into a temporary file and renames it over name, so a failed
// export never replaces a previous one.
func (s *Service) writeFile(name string, write func(f *os.File) error) error {
	path := filepath.Join(s.cfg.ExportDir, name)
	f, err := os.CreateTemp(s.cfg.ExportDir, name+".*.tmp")
	if err != nil {
		return fmt.Errorf("create %s: %w", name, err)
	}
	tmp := f.Name()

	if err := write(f); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("export %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("close %s: %w", name, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename %s: %w", name, err)
	}
	s.logger.Info("export written", zap.String("path", path))
	return nil
}
