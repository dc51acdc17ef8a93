package query

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/ehr/admin/internal/platform/db"
	"github.com/ehr/admin/pkg/pagination"
)

// Select describes one paginated list query.
type Select struct {
	Table   string
	Columns string
	Where   *Builder
	Order   Order
	Page    pagination.Params
}

// ScanFunc reads one row. pgx.Rows satisfies pgx.Row, so the same function
// serves QueryRow lookups and list iteration.
type ScanFunc[T any] func(row pgx.Row) (T, error)

// Run returns one page of rows and the total number of rows matching the
// predicate. COUNT and SELECT share the predicate and its arguments. They run
// concurrently when q can serve overlapping queries.
func Run[T any](ctx context.Context, q db.Querier, sel Select, scan ScanFunc[T]) ([]T, int, error) {
	where := sel.Where
	if where == nil {
		where = New()
	}
	args := where.Args()
	countSQL := "SELECT COUNT(*) FROM " + sel.Table + where.SQL()
	pageSQL := fmt.Sprintf("SELECT %s FROM %s%s%s LIMIT $%d OFFSET $%d",
		sel.Columns, sel.Table, where.SQL(), sel.Order.SQL(), len(args)+1, len(args)+2)
	pageArgs := append(where.Args(), sel.Page.Limit, sel.Page.Offset())

	var (
		total int
		items []T
	)
	count := func(ctx context.Context) error {
		if err := q.QueryRow(ctx, countSQL, args...).Scan(&total); err != nil {
			return fmt.Errorf("count %s: %w", sel.Table, err)
		}
		return nil
	}
	find := func(ctx context.Context) error {
		rows, err := q.Query(ctx, pageSQL, pageArgs...)
		if err != nil {
			return fmt.Errorf("select %s: %w", sel.Table, err)
		}
		defer rows.Close()
		for rows.Next() {
			item, err := scan(rows)
			if err != nil {
				return fmt.Errorf("scan %s: %w", sel.Table, err)
			}
			items = append(items, item)
		}
		return rows.Err()
	}

	if concurrent(q) {
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error { return count(gctx) })
		g.Go(func() error { return find(gctx) })
		if err := g.Wait(); err != nil {
			return nil, 0, err
		}
		return items, total, nil
	}

	if err := count(ctx); err != nil {
		return nil, 0, err
	}
	if err := find(ctx); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// concurrent reports whether q can serve overlapping queries. A pool can; a
// transaction or a single connection cannot.
func concurrent(q db.Querier) bool {
	switch v := q.(type) {
	case *pgxpool.Pool:
		return true
	case interface{ Concurrent() bool }:
		return v.Concurrent()
	}
	return false
}

// Get reads one row by id. When active is true soft-deleted rows are hidden.
func Get[T any](ctx context.Context, q db.Querier, table, columns string, id uuid.UUID, active bool, scan ScanFunc[T]) (T, error) {
	sql := "SELECT " + columns + " FROM " + table + " WHERE id = $1"
	if active {
		sql += " AND deleted_at IS NULL"
	}
	return scan(q.QueryRow(ctx, sql, id))
}

// Exists reports whether any row in table matches where.
func Exists(ctx context.Context, q db.Querier, table string, where *Builder) (bool, error) {
	var ok bool
	err := q.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM "+table+where.SQL()+")", where.Args()...).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("exists %s: %w", table, err)
	}
	return ok, nil
}

// SoftDelete stamps deleted_at on an active row. Deleting an already deleted
// row affects nothing.
func SoftDelete(ctx context.Context, q db.Querier, table string, id uuid.UUID) (pgconn.CommandTag, error) {
	return q.Exec(ctx, "UPDATE "+table+" SET deleted_at = NOW(), updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL", id)
}

// HardDelete removes a row permanently.
func HardDelete(ctx context.Context, q db.Querier, table string, id uuid.UUID) (pgconn.CommandTag, error) {
	return q.Exec(ctx, "DELETE FROM "+table+" WHERE id = $1", id)
}
