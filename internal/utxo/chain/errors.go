package chain

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrSourceUnavailable means the data source cannot be reached at all.
	ErrSourceUnavailable = errors.New("data source unavailable")
	// ErrLookupFailure means a specific data source call failed.
	ErrLookupFailure = errors.New("lookup failure")
	// ErrInputResolution means an input could not be resolved to a prior output.
	ErrInputResolution = errors.New("input resolution failure")
)

// IsFatal reports whether err must stop the whole run rather than one event.
func IsFatal(err error) bool {
	return errors.Is(err, ErrSourceUnavailable) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

func asLookupFailure(err error) error {
	if err == nil || IsFatal(err) || errors.Is(err, ErrLookupFailure) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrLookupFailure, err)
}
