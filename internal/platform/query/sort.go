package query

import "strings"

type Direction string

const (
	Asc  Direction = "ASC"
	Desc Direction = "DESC"
)

// SortSpec is the allow-list of sortable fields for one entity. Allowed maps
// the public field name to its column.
type SortSpec struct {
	Allowed map[string]string
	Default string
}

// Order is a resolved ORDER BY. Column is always an allow-listed column.
type Order struct {
	Column string
	Dir    Direction
}

// Resolve picks the requested field when allowed and the default otherwise.
// Direction is ascending only when explicitly requested.
func (s SortSpec) Resolve(field, dir string) Order {
	col, ok := s.Allowed[field]
	if !ok {
		col = s.Allowed[s.Default]
		if col == "" {
			col = s.Default
		}
	}
	d := Desc
	if strings.EqualFold(strings.TrimSpace(dir), "asc") {
		d = Asc
	}
	return Order{Column: col, Dir: d}
}

// SQL renders the clause with id as a stable tiebreak.
func (o Order) SQL() string {
	if o.Column == "id" {
		return " ORDER BY id " + string(o.Dir)
	}
	return " ORDER BY " + o.Column + " " + string(o.Dir) + ", id " + string(o.Dir)
}
