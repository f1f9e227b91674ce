package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// EventTimeLayout is the date_time format used by event lists.
const EventTimeLayout = "2006/01/02 15:04:05"

// EventRecord is a raw event row. Parsing is deferred so a single bad row
// fails only its own event.
type EventRecord struct {
	Line          int
	Name          string
	DateTime      string
	ChangePercent string
}

// Event is a labelled point in time with the associated price change.
type Event struct {
	Name          string
	Time          time.Time
	ChangePercent decimal.Decimal
}

// Parse validates the record and converts it into an Event.
func (r EventRecord) Parse(loc *time.Location) (Event, error) {
	if loc == nil {
		loc = time.UTC
	}
	name := strings.TrimSpace(r.Name)
	if name == "" {
		return Event{}, fmt.Errorf("line %d: missing name: %w", r.Line, ErrMalformedEvent)
	}
	raw := strings.TrimSpace(r.DateTime)
	if raw == "" {
		return Event{}, fmt.Errorf("line %d: event %q: missing date_time: %w", r.Line, name, ErrMalformedEvent)
	}
	ts, err := time.ParseInLocation(EventTimeLayout, raw, loc)
	if err != nil {
		return Event{}, fmt.Errorf("line %d: event %q: parse date_time %q: %w: %w", r.Line, name, raw, ErrMalformedEvent, err)
	}

	s := strings.TrimSpace(r.ChangePercent)
	if s == "" {
		return Event{}, fmt.Errorf("line %d: event %q: missing change_percent: %w", r.Line, name, ErrMalformedEvent)
	}
	change, err := decimal.NewFromString(strings.TrimSpace(strings.TrimSuffix(s, "%")))
	if err != nil {
		return Event{}, fmt.Errorf("line %d: event %q: parse change_percent %q: %w: %w", r.Line, name, s, ErrMalformedEvent, err)
	}

	return Event{Name: name, Time: ts, ChangePercent: change}, nil
}
