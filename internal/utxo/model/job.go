package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultJobName is used for the filter name when no job list is supplied.
const DefaultJobName = "default"

// ValueFilter bounds the total output value of a transaction. Nil bounds are open.
type ValueFilter struct {
	Min *decimal.Decimal
	Max *decimal.Decimal
}

// Accepts reports whether value lies within the inclusive bounds.
func (f ValueFilter) Accepts(value decimal.Decimal) bool {
	if f.Min != nil && value.LessThan(*f.Min) {
		return false
	}
	if f.Max != nil && value.GreaterThan(*f.Max) {
		return false
	}
	return true
}

// Job is one pass of the pipeline over the event list.
type Job struct {
	Name            string
	Filter          ValueFilter
	TimeBeforeEvent time.Duration
}

// Window returns the lookback window anchored at eventTime.
func (j Job) Window(eventTime time.Time) Window {
	return Window{Start: eventTime.Add(-j.TimeBeforeEvent), End: eventTime}
}

// Window is an inclusive time range.
type Window struct {
	Start time.Time
	End   time.Time
}
