package eventfile

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/goodnatureofminers/blockinsight7000-eventscan/internal/utxo/model"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const noneToken = "none"

// ReadJobsFile reads the batch job list at path.
func ReadJobsFile(path string, defaults model.Job, logger *zap.Logger) ([]model.Job, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open jobs file: %w", err)
	}
	defer f.Close()

	return ReadJobs(f, defaults, logger)
}

// ReadJobs reads rows of name,min_transfer,max_transfer,time_before_event.
// Empty fields and the token "none" take the value from defaults. Malformed
// rows are logged and skipped.
func ReadJobs(src io.Reader, defaults model.Job, logger *zap.Logger) ([]model.Job, error) {
	reader := newReader(src)
	idx, err := readHeader(reader, "name")
	if err != nil {
		return nil, fmt.Errorf("read jobs header: %w", err)
	}

	var jobs []model.Job
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read jobs: %w", err)
		}
		if blank(row) {
			continue
		}
		line, _ := reader.FieldPos(0)
		job, err := parseJob(row, idx, defaults)
		if err != nil {
			logger.Error("skip job", zap.Int("line", line), zap.Error(err))
			continue
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

func parseJob(row []string, idx columns, defaults model.Job) (model.Job, error) {
	job := defaults
	job.Name = idx.get(row, "name")
	if job.Name == "" {
		return model.Job{}, fmt.Errorf("missing name: %w", model.ErrMalformedJob)
	}

	var err error
	if job.Filter.Min, err = parseBound(idx.get(row, "min_transfer"), defaults.Filter.Min); err != nil {
		return model.Job{}, fmt.Errorf("job %q: min_transfer: %w", job.Name, err)
	}
	if job.Filter.Max, err = parseBound(idx.get(row, "max_transfer"), defaults.Filter.Max); err != nil {
		return model.Job{}, fmt.Errorf("job %q: max_transfer: %w", job.Name, err)
	}
	if job.TimeBeforeEvent, err = parseLookback(idx.get(row, "time_before_event"), defaults.TimeBeforeEvent); err != nil {
		return model.Job{}, fmt.Errorf("job %q: time_before_event: %w", job.Name, err)
	}
	if job.Filter.Min != nil && job.Filter.Max != nil && job.Filter.Min.GreaterThan(*job.Filter.Max) {
		return model.Job{}, fmt.Errorf("job %q: min_transfer above max_transfer: %w", job.Name, model.ErrMalformedJob)
	}
	return job, nil
}

func isDefault(raw string) bool {
	return raw == "" || strings.EqualFold(raw, noneToken)
}

func parseBound(raw string, def *decimal.Decimal) (*decimal.Decimal, error) {
	if isDefault(raw) {
		return def, nil
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, fmt.Errorf("parse %q: %w: %w", raw, model.ErrMalformedJob, err)
	}
	if v.IsNegative() {
		return nil, fmt.Errorf("negative value %q: %w", raw, model.ErrMalformedJob)
	}
	return &v, nil
}

// parseLookback accepts whole seconds or a Go duration string.
func parseLookback(raw string, def time.Duration) (time.Duration, error) {
	if isDefault(raw) {
		return def, nil
	}
	if secs, err := strconv.ParseInt(raw, 10, 64); err == nil {
		if secs < 0 {
			return 0, fmt.Errorf("negative value %q: %w", raw, model.ErrMalformedJob)
		}
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("parse %q: %w", raw, model.ErrMalformedJob)
	}
	return d, nil
}
