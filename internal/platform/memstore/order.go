package memstore

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ehr/admin/internal/platform/query"
)

// Less builds a comparator equivalent to o.SQL(): the resolved column first,
// then id, both in the requested direction. field returns the value stored
// in column for row.
func Less[T any](o query.Order, field func(row T, column string) any, id func(T) uuid.UUID) func(a, b T) bool {
	desc := o.Dir == query.Desc
	return func(a, b T) bool {
		c := compare(field(a, o.Column), field(b, o.Column))
		if c == 0 {
			c = strings.Compare(id(a).String(), id(b).String())
		}
		if desc {
			return c > 0
		}
		return c < 0
	}
}

func compare(a, b any) int {
	switch av := a.(type) {
	case string:
		return strings.Compare(av, b.(string))
	case int:
		return cmpOrdered(av, b.(int))
	case int64:
		return cmpOrdered(av, b.(int64))
	case bool:
		bv := b.(bool)
		switch {
		case av == bv:
			return 0
		case !av:
			return -1
		}
		return 1
	case time.Time:
		return av.Compare(b.(time.Time))
	case *time.Time:
		bv := b.(*time.Time)
		switch {
		case av == nil && bv == nil:
			return 0
		case av == nil:
			return 1
		case bv == nil:
			return -1
		}
		return av.Compare(*bv)
	case *string:
		bv := b.(*string)
		switch {
		case av == nil && bv == nil:
			return 0
		case av == nil:
			return 1
		case bv == nil:
			return -1
		}
		return strings.Compare(*av, *bv)
	}
	return 0
}

func cmpOrdered[N int | int64](a, b N) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
