// Package query builds the filtered, sorted and windowed SELECT statements
// shared by every list endpoint. Predicates use PostgreSQL $n placeholders and
// the same predicate always drives both the COUNT and the page SELECT.
package query

import (
	"fmt"
	"strings"
)

// Builder accumulates AND-ed predicate clauses and their arguments.
type Builder struct {
	clauses []string
	args    []any
}

// New returns an empty Builder.
func New() *Builder {
	return &Builder{}
}

// Where appends a clause. Each '?' in clause is replaced with the next $n
// placeholder and consumes one argument.
func (b *Builder) Where(clause string, args ...any) *Builder {
	var sb strings.Builder
	n := 0
	for _, r := range clause {
		if r == '?' {
			if n >= len(args) {
				panic(fmt.Sprintf("query: clause %q has more placeholders than args", clause))
			}
			b.args = append(b.args, args[n])
			fmt.Fprintf(&sb, "$%d", len(b.args))
			n++
			continue
		}
		sb.WriteRune(r)
	}
	if n != len(args) {
		panic(fmt.Sprintf("query: clause %q has %d placeholders but %d args", clause, n, len(args)))
	}
	b.clauses = append(b.clauses, sb.String())
	return b
}

// Eq adds "col = v" when v is non-nil.
func Eq[T any](b *Builder, col string, v *T) *Builder {
	if v == nil {
		return b
	}
	return b.Where(col+" = ?", *v)
}

// Range adds independent lower and upper bounds. Either side may be nil.
func Range[T any](b *Builder, col string, from, to *T) *Builder {
	if from != nil {
		b.Where(col+" >= ?", *from)
	}
	if to != nil {
		b.Where(col+" <= ?", *to)
	}
	return b
}

// Contains adds a substring match. LIKE metacharacters in v match literally.
func (b *Builder) Contains(col string, v *string, caseInsensitive bool) *Builder {
	if v == nil || *v == "" {
		return b
	}
	op := "LIKE"
	if caseInsensitive {
		op = "ILIKE"
	}
	return b.Where(col+" "+op+" ?", "%"+EscapeLike(*v)+"%")
}

// ActiveOnly restricts results to rows that have not been soft-deleted.
func (b *Builder) ActiveOnly() *Builder {
	b.clauses = append(b.clauses, "deleted_at IS NULL")
	return b
}

// SQL returns " WHERE ..." or "" when no clause was added.
func (b *Builder) SQL() string {
	if len(b.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(b.clauses, " AND ")
}

// Args returns the positional arguments in placeholder order.
func (b *Builder) Args() []any {
	out := make([]any, len(b.args))
	copy(out, b.args)
	return out
}

// Len is the number of clauses.
func (b *Builder) Len() int { return len(b.clauses) }

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// EscapeLike escapes the LIKE wildcards using PostgreSQL's default backslash escape.
func EscapeLike(s string) string {
	return likeEscaper.Replace(s)
}
