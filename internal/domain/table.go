package domain

import (
	"encoding/json"
	"math"
	"strconv"
)

// Kind identifies the scalar type held by a Value.
type Kind int

const (
	KindNull Kind = iota
	KindInt
	KindFloat
	KindText
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindText:
		return "text"
	default:
		return "unknown"
	}
}

// Value is a single table cell.
type Value struct {
	Kind  Kind
	Int   int64
	Float float64
	Text  string
}

// Null returns an empty cell.
func Null() Value { return Value{Kind: KindNull} }

// Int returns an integer cell.
func Int(v int64) Value { return Value{Kind: KindInt, Int: v} }

// Float returns a float cell.
func Float(v float64) Value { return Value{Kind: KindFloat, Float: v} }

// Text returns a text cell.
func Text(v string) Value { return Value{Kind: KindText, Text: v} }

// IsNull reports whether the cell is empty.
func (v Value) IsNull() bool { return v.Kind == KindNull }

// String renders the cell the way it would appear in a tooltip.
func (v Value) String() string {
	switch v.Kind {
	case KindInt:
		return strconv.FormatInt(v.Int, 10)
	case KindFloat:
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	case KindText:
		return v.Text
	default:
		return ""
	}
}

// Any returns the cell as a plain Go value (nil, int64, float64 or string).
func (v Value) Any() any {
	switch v.Kind {
	case KindInt:
		return v.Int
	case KindFloat:
		return v.Float
	case KindText:
		return v.Text
	default:
		return nil
	}
}

// MarshalJSON encodes the cell as a JSON scalar (null, number or string).
// Non-finite floats have no JSON form and encode as null.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.Kind == KindFloat && (math.IsNaN(v.Float) || math.IsInf(v.Float, 0)) {
		return []byte("null"), nil
	}
	return json.Marshal(v.Any())
}

// Column is a named, ordered sequence of cells.
type Column struct {
	Name   string
	Values []Value
}

// Table is an ordered set of columns sharing the same row count.
// Header names are kept verbatim, duplicates included.
type Table struct {
	Columns []Column
}

// Names returns the column names in order.
func (t Table) Names() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// RowCount returns the number of rows, 0 for a table without columns.
func (t Table) RowCount() int {
	if len(t.Columns) == 0 {
		return 0
	}
	return len(t.Columns[0].Values)
}

// Column returns the first column with exactly the given name.
func (t Table) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// Clone returns a deep copy so callers can rework a table without touching the original.
func (t Table) Clone() Table {
	cols := make([]Column, len(t.Columns))
	for i, c := range t.Columns {
		vals := make([]Value, len(c.Values))
		copy(vals, c.Values)
		cols[i] = Column{Name: c.Name, Values: vals}
	}
	return Table{Columns: cols}
}
