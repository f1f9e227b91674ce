// Package eventscan runs event lists through window scanning, transaction
// classification and summary aggregation.
package eventscan

import (
	"context"
	"errors"
	"time"

	"github.com/goodnatureofminers/blockinsight7000-eventscan/internal/utxo/chain"
	"github.com/goodnatureofminers/blockinsight7000-eventscan/internal/utxo/model"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	defaultCommitEveryBlocks      = 100
	defaultFlushSize              = 1000
	defaultAverageTransactionTime = 120 * time.Millisecond
)

// Config tunes the aggregation pipeline. Zero values take defaults.
type Config struct {
	Coin    model.Coin
	Network model.Network
	// Location is the zone of event list timestamps.
	Location               *time.Location
	CommitEveryBlocks      int64
	FlushSize              int
	FlushRPS               int
	AverageTransactionTime time.Duration
	EWMAAlpha              float64
}

// RunStats counts event outcomes of a run.
type RunStats struct {
	Written int
	Failed  int
	Skipped int
}

func (s *RunStats) merge(o RunStats) {
	s.Written += o.Written
	s.Failed += o.Failed
	s.Skipped += o.Skipped
}

// Service is the event aggregator. It processes one event at a time.
type Service struct {
	scanner    WindowScanner
	classifier Classifier
	store      AddressStore
	sinks      []SummaryWriter
	metrics    Metrics
	estimator  *Estimator
	cfg        Config
	now        func() time.Time
	logger     *zap.Logger
}

// NewService constructs a Service. Summaries go to every sink in order.
func NewService(
	scanner WindowScanner,
	classifier Classifier,
	store AddressStore,
	sinks []SummaryWriter,
	metrics Metrics,
	cfg Config,
	logger *zap.Logger,
) (*Service, error) {
	if scanner == nil || classifier == nil || store == nil {
		return nil, errors.New("scanner, classifier and store are required")
	}
	if metrics == nil {
		return nil, errors.New("metrics is required")
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.CommitEveryBlocks <= 0 {
		cfg.CommitEveryBlocks = defaultCommitEveryBlocks
	}
	if cfg.FlushSize <= 0 {
		cfg.FlushSize = defaultFlushSize
	}
	if cfg.AverageTransactionTime <= 0 {
		cfg.AverageTransactionTime = defaultAverageTransactionTime
	}

	return &Service{
		scanner:    scanner,
		classifier: classifier,
		store:      store,
		sinks:      sinks,
		metrics:    metrics,
		estimator:  NewEstimator(cfg.AverageTransactionTime, cfg.EWMAAlpha),
		cfg:        cfg,
		now:        time.Now,
		logger:     logger,
	}, nil
}

// Run processes every event under every job. Jobs are independent: a failed
// event is logged and the run moves on. Only fatal errors stop the run; an
// interrupted run returns the context error after draining buffered records.
func (s *Service) Run(ctx context.Context, jobs []model.Job, events []model.EventRecord) (RunStats, error) {
	var total RunStats
	for _, job := range jobs {
		stats, err := s.RunJob(ctx, job, events)
		total.merge(stats)
		if err != nil {
			return total, err
		}
	}
	s.logger.Info("run finished",
		zap.Int("jobs", len(jobs)),
		zap.Int("written", total.Written),
		zap.Int("failed", total.Failed),
		zap.Int("skipped", total.Skipped))
	return total, nil
}

// RunJob processes events under a single job.
func (s *Service) RunJob(ctx context.Context, job model.Job, events []model.EventRecord) (RunStats, error) {
	var stats RunStats
	logger := s.logger.With(zap.String("filter", job.Name))
	logger.Info("job started",
		zap.Int("events", len(events)),
		zap.Stringer("time_before_event", job.TimeBeforeEvent),
		zap.String("min_transfer", boundString(job.Filter.Min)),
		zap.String("max_transfer", boundString(job.Filter.Max)))

	for _, record := range events {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		summary, err := s.ProcessEvent(ctx, job, record)
		switch {
		case err == nil && summary == nil:
			stats.Skipped++
		case err == nil:
			stats.Written++
		case chain.IsFatal(err):
			stats.Failed++
			return stats, err
		default:
			stats.Failed++
			logger.Error("event failed",
				zap.String("event", record.Name),
				zap.Int("line", record.Line),
				zap.Error(err))
		}
	}

	logger.Info("job finished",
		zap.Int("written", stats.Written),
		zap.Int("failed", stats.Failed),
		zap.Int("skipped", stats.Skipped))
	return stats, nil
}

func boundString(v *decimal.Decimal) string {
	if v == nil {
		return "none"
	}
	return v.String()
}
