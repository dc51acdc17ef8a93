// Package memstore is a map-backed table used by the in-memory repositories
// that stand in for PostgreSQL in service and handler tests. It mirrors the
// store's soft-delete visibility and windowing so the same invariants hold.
package memstore

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ehr/admin/pkg/pagination"
)

// Table holds rows of T by id in insertion order. Rows are stored and
// returned by value so callers never share memory with the table.
type Table[T any] struct {
	mu      sync.Mutex
	rows    map[uuid.UUID]T
	order   []uuid.UUID
	id      func(T) uuid.UUID
	deleted func(T) *time.Time
}

// NewTable builds a table. deleted may be nil for hard-delete entities.
func NewTable[T any](id func(T) uuid.UUID, deleted func(T) *time.Time) *Table[T] {
	return &Table[T]{rows: make(map[uuid.UUID]T), id: id, deleted: deleted}
}

func (t *Table[T]) Insert(row T) {
	t.mu.Lock()
	defer t.mu.Unlock()
	id := t.id(row)
	if _, ok := t.rows[id]; !ok {
		t.order = append(t.order, id)
	}
	t.rows[id] = row
}

// Get returns the row. With active set, a soft-deleted row is not found.
func (t *Table[T]) Get(id uuid.UUID, active bool) (T, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	row, ok := t.rows[id]
	if !ok || (active && t.isDeleted(row)) {
		var zero T
		return zero, false
	}
	return row, true
}

// Replace overwrites an existing active row.
func (t *Table[T]) Replace(row T) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	id := t.id(row)
	cur, ok := t.rows[id]
	if !ok || t.isDeleted(cur) {
		return false
	}
	t.rows[id] = row
	return true
}

// Remove erases a row.
func (t *Table[T]) Remove(id uuid.UUID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.rows[id]; !ok {
		return false
	}
	delete(t.rows, id)
	for i, o := range t.order {
		if o == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
	return true
}

// Select returns the rows matching match in insertion order. When active is
// set soft-deleted rows are skipped.
func (t *Table[T]) Select(active bool, match func(T) bool) []T {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []T
	for _, id := range t.order {
		row := t.rows[id]
		if active && t.isDeleted(row) {
			continue
		}
		if match == nil || match(row) {
			out = append(out, row)
		}
	}
	return out
}

// Any reports whether an active row matches.
func (t *Table[T]) Any(match func(T) bool) bool {
	return len(t.Select(true, match)) > 0
}

func (t *Table[T]) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.rows)
}

func (t *Table[T]) isDeleted(row T) bool {
	return t.deleted != nil && t.deleted(row) != nil
}

// Page sorts rows with less (stable) and cuts the requested window. The
// returned total is the count before windowing.
func Page[T any](rows []T, less func(a, b T) bool, p pagination.Params) ([]*T, int) {
	if less != nil {
		sort.SliceStable(rows, func(i, j int) bool { return less(rows[i], rows[j]) })
	}
	total := len(rows)
	start := p.Offset()
	if start > total {
		start = total
	}
	end := start + p.Limit
	if end > total {
		end = total
	}
	out := make([]*T, 0, end-start)
	for i := start; i < end; i++ {
		row := rows[i]
		out = append(out, &row)
	}
	return out, total
}

// Ptr returns a pointer to a copy of v.
func Ptr[T any](v T) *T {
	return &v
}
