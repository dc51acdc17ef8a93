package memstore

import (
	"strings"
	"time"
)

// Eq mirrors query.Eq: a nil filter matches everything.
func Eq[T comparable](want *T, got T) bool {
	return want == nil || *want == got
}

// EqPtr compares a filter against a nullable column. NULL never equals a value.
func EqPtr[T comparable](want *T, got *T) bool {
	if want == nil {
		return true
	}
	return got != nil && *got == *want
}

// Contains mirrors query.Builder.Contains.
func Contains(want *string, got string, caseInsensitive bool) bool {
	if want == nil || *want == "" {
		return true
	}
	if caseInsensitive {
		return strings.Contains(strings.ToLower(got), strings.ToLower(*want))
	}
	return strings.Contains(got, *want)
}

// InRange mirrors query.Range over timestamps.
func InRange(from, to *time.Time, got time.Time) bool {
	if from != nil && got.Before(*from) {
		return false
	}
	if to != nil && got.After(*to) {
		return false
	}
	return true
}

// InRangePtr treats a NULL column as outside any bounded range.
func InRangePtr(from, to *time.Time, got *time.Time) bool {
	if got == nil {
		return from == nil && to == nil
	}
	return InRange(from, to, *got)
}

// Between mirrors query.Range over integers.
func Between(lo, hi *int64, got int64) bool {
	return (lo == nil || got >= *lo) && (hi == nil || got <= *hi)
}
