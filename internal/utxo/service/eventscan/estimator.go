package eventscan

import "time"

const defaultEWMAAlpha = 0.1

// Estimator keeps an exponentially weighted average of per-transaction
// processing time. It only feeds progress logs.
type Estimator struct {
	avg   time.Duration
	alpha float64
}

// NewEstimator constructs an Estimator. An alpha outside (0, 1] falls back to 0.1.
func NewEstimator(initial time.Duration, alpha float64) *Estimator {
	if alpha <= 0 || alpha > 1 {
		alpha = defaultEWMAAlpha
	}
	return &Estimator{avg: initial, alpha: alpha}
}

func (e *Estimator) Average() time.Duration {
	return e.avg
}

// Estimate returns the expected time to classify n transactions.
func (e *Estimator) Estimate(n int) time.Duration {
	return time.Duration(n) * e.avg
}

// Observe folds the per-transaction average of one event into the estimate.
func (e *Estimator) Observe(elapsed time.Duration, n int) {
	if n <= 0 {
		return
	}
	perTx := float64(elapsed) / float64(n)
	e.avg = time.Duration((1-e.alpha)*float64(e.avg) + e.alpha*perTx)
}
