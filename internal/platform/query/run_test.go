package query

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ehr/admin/pkg/pagination"
)

type call struct {
	sql  string
	args []any
}

// fakeQuerier serves a fixed count and a fixed row set.
type fakeQuerier struct {
	mu         sync.Mutex
	calls      []call
	count      int
	rows       []string
	countErr   error
	queryErr   error
	concurrent bool
	execTag    string
}

func (f *fakeQuerier) Concurrent() bool { return f.concurrent }

func (f *fakeQuerier) record(sql string, args []any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{sql, args})
}

func (f *fakeQuerier) Exec(_ context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	f.record(sql, args)
	return pgconn.NewCommandTag(f.execTag), nil
}

func (f *fakeQuerier) Query(_ context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	f.record(sql, args)
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return &fakeRows{values: f.rows, idx: -1}, nil
}

func (f *fakeQuerier) QueryRow(_ context.Context, sql string, args ...interface{}) pgx.Row {
	f.record(sql, args)
	return fakeRow{scan: func(dest ...any) error {
		if f.countErr != nil {
			return f.countErr
		}
		switch d := dest[0].(type) {
		case *int:
			*d = f.count
		case *bool:
			*d = f.count > 0
		case *string:
			if len(f.rows) == 0 {
				return pgx.ErrNoRows
			}
			*d = f.rows[0]
		}
		return nil
	}}
}

func (f *fakeQuerier) find(prefix string) (call, bool) {
	for _, c := range f.calls {
		if strings.HasPrefix(c.sql, prefix) {
			return c, true
		}
	}
	return call{}, false
}

type fakeRow struct{ scan func(dest ...any) error }

func (r fakeRow) Scan(dest ...any) error { return r.scan(dest...) }

type fakeRows struct {
	pgx.Rows
	values []string
	idx    int
}

func (r *fakeRows) Next() bool {
	r.idx++
	return r.idx < len(r.values)
}

func (r *fakeRows) Scan(dest ...any) error {
	*(dest[0].(*string)) = r.values[r.idx]
	return nil
}

func (r *fakeRows) Err() error { return nil }
func (r *fakeRows) Close()     {}

func scanString(row pgx.Row) (string, error) {
	var s string
	err := row.Scan(&s)
	return s, err
}

func TestRun_CountAndSelectSharePredicate(t *testing.T) {
	for _, concurrent := range []bool{false, true} {
		q := &fakeQuerier{count: 25, rows: []string{"k", "l"}, concurrent: concurrent}
		b := New().ActiveOnly()
		Eq(b, "organization_id", strPtr("org-1"))

		items, total, err := Run(context.Background(), q, Select{
			Table:   "department",
			Columns: "name",
			Where:   b,
			Order:   orgSort.Resolve("name", "asc"),
			Page:    pagination.Params{Page: 2, Limit: 10},
		}, scanString)

		require.NoError(t, err)
		assert.Equal(t, 25, total)
		assert.Equal(t, []string{"k", "l"}, items)

		count, ok := q.find("SELECT COUNT(*)")
		require.True(t, ok)
		page, ok := q.find("SELECT name")
		require.True(t, ok)

		assert.Equal(t, "SELECT COUNT(*) FROM department WHERE deleted_at IS NULL AND organization_id = $1", count.sql)
		assert.Equal(t,
			"SELECT name FROM department WHERE deleted_at IS NULL AND organization_id = $1 ORDER BY name ASC, id ASC LIMIT $2 OFFSET $3",
			page.sql)
		assert.Equal(t, []any{"org-1"}, count.args)
		assert.Equal(t, []any{"org-1", 10, 10}, page.args)
	}
}

func TestRun_NoPredicate(t *testing.T) {
	q := &fakeQuerier{}
	items, total, err := Run(context.Background(), q, Select{
		Table: "organization", Columns: "name",
		Order: Order{"created_at", Desc},
		Page:  pagination.Params{Page: 1, Limit: 20},
	}, scanString)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, items)
	page, _ := q.find("SELECT name")
	assert.Equal(t, "SELECT name FROM organization ORDER BY created_at DESC, id DESC LIMIT $1 OFFSET $2", page.sql)
}

func TestRun_PropagatesErrors(t *testing.T) {
	boom := errors.New("boom")
	for _, concurrent := range []bool{false, true} {
		q := &fakeQuerier{countErr: boom, concurrent: concurrent}
		_, _, err := Run(context.Background(), q, Select{Table: "t", Columns: "c", Page: pagination.Params{Page: 1, Limit: 1}}, scanString)
		assert.ErrorIs(t, err, boom)

		q = &fakeQuerier{queryErr: boom, concurrent: concurrent}
		_, _, err = Run(context.Background(), q, Select{Table: "t", Columns: "c", Page: pagination.Params{Page: 1, Limit: 1}}, scanString)
		assert.ErrorIs(t, err, boom)
	}
}

func TestGet_ActiveFilter(t *testing.T) {
	q := &fakeQuerier{rows: []string{"x"}}
	id := uuid.New()

	_, err := Get(context.Background(), q, "role", "name", id, true, scanString)
	require.NoError(t, err)
	_, err = Get(context.Background(), q, "role", "name", id, false, scanString)
	require.NoError(t, err)

	require.Len(t, q.calls, 2)
	assert.Equal(t, "SELECT name FROM role WHERE id = $1 AND deleted_at IS NULL", q.calls[0].sql)
	assert.Equal(t, "SELECT name FROM role WHERE id = $1", q.calls[1].sql)
}

func TestExists(t *testing.T) {
	q := &fakeQuerier{count: 1}
	ok, err := Exists(context.Background(), q, "billing_item", New().Where("billing_code_id = ?", "c1"))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "SELECT EXISTS (SELECT 1 FROM billing_item WHERE billing_code_id = $1)", q.calls[0].sql)
}

func TestSoftDeleteAndHardDelete(t *testing.T) {
	q := &fakeQuerier{execTag: "UPDATE 0"}
	tag, err := SoftDelete(context.Background(), q, "patient", uuid.New())
	require.NoError(t, err)
	assert.Zero(t, tag.RowsAffected())
	assert.Contains(t, q.calls[0].sql, "AND deleted_at IS NULL")

	q = &fakeQuerier{execTag: "DELETE 1"}
	tag, err = HardDelete(context.Background(), q, "billing_code", uuid.New())
	require.NoError(t, err)
	assert.EqualValues(t, 1, tag.RowsAffected())
	assert.Equal(t, "DELETE FROM billing_code WHERE id = $1", q.calls[0].sql)
}
