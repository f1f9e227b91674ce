// Package safe provides helpers for safe numeric conversions with overflow checks.
package safe

import (
	"fmt"
	"math"
)

// Integer is the set of integer kinds accepted by the conversions.
type Integer interface {
	~int | ~int32 | ~int64 | ~uint | ~uint32 | ~uint64
}

// Uint32 converts signed or unsigned integers to uint32 with range validation.
func Uint32[T Integer](v T) (uint32, error) {
	if !inRange(v, 0, math.MaxUint32) {
		return 0, fmt.Errorf("value %d out of uint32 range", v)
	}
	return uint32(v), nil
}

// Uint64 converts signed or unsigned integers to uint64 while guarding against negatives.
func Uint64[T Integer](v T) (uint64, error) {
	if !inRange(v, 0, math.MaxUint64) {
		return 0, fmt.Errorf("value %d out of uint64 range", v)
	}
	return uint64(v), nil
}

// Int32 converts to int32, as used for INTEGER columns.
func Int32[T Integer](v T) (int32, error) {
	if !inRange(v, math.MinInt32, math.MaxInt32) {
		return 0, fmt.Errorf("value %d out of int32 range", v)
	}
	return int32(v), nil
}

// Int64 converts to int64, as used for BIGINT columns.
func Int64[T Integer](v T) (int64, error) {
	if !inRange(v, math.MinInt64, math.MaxInt64) {
		return 0, fmt.Errorf("value %d out of int64 range", v)
	}
	return int64(v), nil
}

func inRange[T Integer](v T, lo int64, hi uint64) bool {
	if v < 0 {
		return int64(v) >= lo
	}
	return uint64(v) <= hi
}
