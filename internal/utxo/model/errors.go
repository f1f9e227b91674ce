package model

import "errors"

// ErrMalformedEvent marks an event row that cannot be turned into an Event.
var ErrMalformedEvent = errors.New("malformed event record")

// ErrMalformedJob marks a batch job row that cannot be parsed.
var ErrMalformedJob = errors.New("malformed job record")

// ErrPersistenceConflict marks an insert rejected by a uniqueness constraint.
// Callers treat it as benign.
var ErrPersistenceConflict = errors.New("persistence conflict")
