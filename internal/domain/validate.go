package domain

import (
	"fmt"
	"strings"
)

// JoinKey is the canonical name of the column matched against boundary region codes.
const JoinKey = "niscode"

// Dataset is a table that satisfies the join-key contract.
type Dataset struct {
	// Table is a copy of the input with the join-key column renamed to JoinKey.
	Table Table
	// JoinKey holds the region code of every row, in row order.
	JoinKey []int64
	// KeyIndex is the position of the join-key column.
	KeyIndex int
}

// DataColumns returns the names of all columns other than the join key.
func (d Dataset) DataColumns() []string {
	names := make([]string, 0, len(d.Table.Columns))
	for i, c := range d.Table.Columns {
		if i == d.KeyIndex {
			continue
		}
		names = append(names, c.Name)
	}
	return names
}

// hasDataColumn reports whether name is a column other than the join key.
func (d Dataset) hasDataColumn(name string) bool {
	for i, c := range d.Table.Columns {
		if i != d.KeyIndex && c.Name == name {
			return true
		}
	}
	return false
}

// Validate checks that t can be joined against boundary regions and returns
// the normalized dataset. The input table is never modified.
//
// Checks run in order and the first failure wins: column count, join-key
// presence and uniqueness (case-insensitive), then join-key value types.
// A table without rows has an untyped join key and is rejected.
func Validate(t Table) (Dataset, error) {
	if len(t.Columns) < 2 {
		return Dataset{}, fmt.Errorf("%w: found %d column(s)", ErrInsufficientColumns, len(t.Columns))
	}

	keyIndex := -1
	for i, c := range t.Columns {
		if !strings.EqualFold(c.Name, JoinKey) {
			continue
		}
		if keyIndex >= 0 {
			return Dataset{}, fmt.Errorf("%w: %q and %q", ErrAmbiguousJoinKey, t.Columns[keyIndex].Name, c.Name)
		}
		keyIndex = i
	}
	if keyIndex < 0 {
		return Dataset{}, fmt.Errorf("%w: columns are %s", ErrMissingJoinKey, strings.Join(t.Names(), ", "))
	}

	normalized := t.Clone()
	normalized.Columns[keyIndex].Name = JoinKey

	values := normalized.Columns[keyIndex].Values
	if len(values) == 0 {
		return Dataset{}, fmt.Errorf("%w: column holds no values", ErrInvalidJoinKeyType)
	}
	codes := make([]int64, len(values))
	for row, v := range values {
		if v.Kind != KindInt {
			return Dataset{}, fmt.Errorf("%w: row %d holds %s value %q", ErrInvalidJoinKeyType, row+1, v.Kind, v.String())
		}
		codes[row] = v.Int
	}

	return Dataset{
		Table:    normalized,
		JoinKey:  codes,
		KeyIndex: keyIndex,
	}, nil
}
