package eventscan

import (
	"context"
	"fmt"

	"github.com/goodnatureofminers/blockinsight7000-eventscan/internal/utxo/bitcoin"
	"github.com/goodnatureofminers/blockinsight7000-eventscan/internal/utxo/chain"
	"github.com/goodnatureofminers/blockinsight7000-eventscan/internal/utxo/model"
	"github.com/goodnatureofminers/blockinsight7000-eventscan/pkg/batcher"
	"go.uber.org/zap"
)

// State is the lifecycle stage of one event.
type State string

const (
	StatePending        State = "PENDING"
	StateWindowComputed State = "WINDOW_COMPUTED"
	StateScanned        State = "SCANNED"
	StateClassified     State = "CLASSIFIED"
	StateSummarized     State = "SUMMARIZED"
	StateWritten        State = "WRITTEN"
	StateFailed         State = "FAILED"
)

const (
	outcomeProcessed = "processed"
	outcomeRejected  = "rejected"
	outcomeCoinbase  = "coinbase"
)

// eventRun tracks the state of one event under one job.
type eventRun struct {
	job    model.Job
	state  State
	logger *zap.Logger
}

func (r *eventRun) transition(next State) {
	r.logger.Debug("state transition", zap.String("from", string(r.state)), zap.String("state", string(next)))
	r.state = next
}

func (r *eventRun) fail(err error) error {
	r.logger.Debug("state transition",
		zap.String("from", string(r.state)),
		zap.String("state", string(StateFailed)),
		zap.Error(err))
	failedAt := r.state
	r.state = StateFailed
	return fmt.Errorf("%s: %w", failedAt, err)
}

// ProcessEvent drives one event from PENDING to WRITTEN. It returns a nil
// summary without error when the event was already completed by an earlier run.
func (s *Service) ProcessEvent(ctx context.Context, job model.Job, record model.EventRecord) (_ *model.EventSummary, err error) {
	started := s.now()
	run := &eventRun{
		job:    job,
		state:  StatePending,
		logger: s.logger.With(zap.String("filter", job.Name), zap.String("event", record.Name)),
	}

	event, err := record.Parse(s.cfg.Location)
	if err != nil {
		s.metrics.ObserveEvent(job.Name, err, started)
		return nil, run.fail(err)
	}
	window := job.Window(event.Time)
	run.transition(StateWindowComputed)

	progress, err := s.store.ScanProgress(ctx, job.Name, event.Name, event.Time)
	if err != nil {
		s.metrics.ObserveEvent(job.Name, err, started)
		return nil, run.fail(fmt.Errorf("load scan progress: %w", err))
	}
	if progress != nil && progress.Completed {
		run.logger.Info("event already completed, skipping", zap.Int64("height", progress.LastCommittedHeight))
		return nil, nil
	}
	if progress != nil {
		run.logger.Info("resuming event from window start",
			zap.Int64("last_committed_height", progress.LastCommittedHeight))
	}

	defer func() {
		s.metrics.ObserveEvent(job.Name, err, started)
	}()

	txs, stats, err := s.scanner.Scan(ctx, window, job.Filter)
	if err != nil {
		return nil, run.fail(fmt.Errorf("scan window: %w", err))
	}
	s.metrics.ObserveSkippedBlocks(stats.SkippedBlocks)
	run.transition(StateScanned)

	subsidy := bitcoin.BlockSubsidy(stats.StartHeight)
	estimate := s.estimator.Estimate(len(txs))
	run.logger.Info("window scanned",
		zap.Int64("start_height", stats.StartHeight),
		zap.Int64("end_height", stats.EndHeight),
		zap.Int("blocks", stats.Blocks),
		zap.Int("skipped_blocks", stats.SkippedBlocks),
		zap.Int("transactions", len(txs)),
		zap.String("start_block_subsidy", subsidy.String()),
		zap.Duration("estimate", estimate),
		zap.Time("eta", s.now().Add(estimate)))

	classifyStarted := s.now()
	t, err := s.classify(ctx, run, event, txs, stats)
	if err != nil {
		return nil, run.fail(err)
	}
	run.transition(StateClassified)

	summary := t.summary(eventSummaryBase(s.cfg.Coin, s.cfg.Network, job, event))
	summary.StartHeight = stats.StartHeight
	summary.EndHeight = stats.EndHeight
	summary.SkippedBlocks = uint64(stats.SkippedBlocks)
	summary.StartBlockSubsidy = subsidy
	summary.WrittenAt = s.now().UTC()
	summary.ProcessingDuration = summary.WrittenAt.Sub(started)
	run.transition(StateSummarized)

	for _, sink := range s.sinks {
		if err = sink.WriteSummary(ctx, summary); err != nil {
			return nil, run.fail(fmt.Errorf("write summary: %w", err))
		}
	}

	err = s.store.CompleteScan(ctx, model.ScanProgress{
		FilterName:          job.Name,
		EventName:           event.Name,
		EventTime:           event.Time,
		LastCommittedHeight: stats.EndHeight,
		Completed:           true,
	})
	if err != nil {
		return nil, run.fail(fmt.Errorf("complete scan: %w", err))
	}
	run.transition(StateWritten)

	actual := s.now().Sub(classifyStarted)
	run.logger.Info("event written",
		zap.Uint64("processed", summary.TotalProcessedTransactions),
		zap.Uint64("rejected", summary.RejectedTransactions),
		zap.Uint64("addresses", summary.TotalAddresses),
		zap.Uint64("address_conflicts", summary.AddressConflicts),
		zap.String("total_tx_value", summary.TotalTxValue.String()),
		zap.Duration("actual", actual),
		zap.Duration("estimate", estimate),
		zap.Duration("difference", actual-estimate))
	s.estimator.Observe(actual, len(txs))

	return &summary, nil
}

// classify runs every scanned transaction through the classifier, committing
// records together with scan progress every CommitEveryBlocks blocks and at the
// end of the window. On interruption the buffered records are committed before
// the context error is returned.
func (s *Service) classify(
	ctx context.Context,
	run *eventRun,
	event model.Event,
	txs []model.ScannedTransaction,
	stats chain.ScanStats,
) (*tally, error) {
	t := newTally()
	committedHeight := stats.StartHeight - 1

	records := batcher.New[model.AddressRecord](
		run.logger.Named("recordBatcher"),
		func(ctx context.Context, batch []model.AddressRecord) error {
			// A started commit always completes.
			conflicts, err := s.store.CommitBatch(context.WithoutCancel(ctx), batch, model.ScanProgress{
				FilterName:          run.job.Name,
				EventName:           event.Name,
				EventTime:           event.Time,
				LastCommittedHeight: committedHeight,
			})
			if err != nil {
				return fmt.Errorf("commit address records: %w", err)
			}
			if conflicts > 0 {
				run.logger.Debug("address records already stored", zap.Uint64("conflicts", conflicts))
			}
			t.conflicts += conflicts
			s.metrics.ObserveAddressConflicts(conflicts)
			return nil
		},
		s.cfg.FlushSize,
		s.cfg.FlushRPS,
	)

	drain := func(cause error) error {
		if err := records.Flush(ctx); err != nil {
			return fmt.Errorf("drain after %v: %w", cause, err)
		}
		run.logger.Info("drained buffered records", zap.Int64("last_committed_height", committedHeight))
		return cause
	}

	lastFlushHeight := committedHeight
	current := int64(-1)
	for _, tx := range txs {
		if tx.BlockHeight != current {
			if current >= 0 {
				committedHeight = current
			}
			if committedHeight-lastFlushHeight >= s.cfg.CommitEveryBlocks {
				if err := records.Flush(ctx); err != nil {
					return nil, err
				}
				lastFlushHeight = committedHeight
			}
			current = tx.BlockHeight
		}
		if err := ctx.Err(); err != nil {
			return nil, drain(err)
		}

		res, err := s.classifier.Classify(ctx, event, run.job.Filter, tx)
		if err != nil {
			if chain.IsFatal(err) {
				return nil, drain(err)
			}
			t.reject()
			s.metrics.ObserveTransaction(run.job.Name, outcomeRejected)
			run.logger.Warn("transaction rejected",
				zap.String("txid", tx.TxID),
				zap.Int64("height", tx.BlockHeight),
				zap.Error(err))
			continue
		}
		if res.Filtered {
			continue
		}

		t.add(res)
		if res.Coinbase {
			s.metrics.ObserveTransaction(run.job.Name, outcomeCoinbase)
		} else {
			s.metrics.ObserveTransaction(run.job.Name, outcomeProcessed)
		}

		if len(res.Records) > 0 {
			if err := records.Add(ctx, res.Records...); err != nil {
				return nil, err
			}
		}
	}

	committedHeight = stats.EndHeight
	if err := records.Flush(ctx); err != nil {
		return nil, err
	}
	return t, nil
}
