package domain

import (
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// joinKeySpellings are the case variants a user might type for the join key.
var joinKeySpellings = []string{"niscode", "NisCode", "NISCODE", "Niscode", "nisCode"}

func genSpelling() gopter.Gen {
	return gen.IntRange(0, len(joinKeySpellings)-1).Map(func(i int) string {
		return joinKeySpellings[i]
	})
}

// buildTable places a join-key column named key at position pos among extra data columns.
func buildTable(key string, pos int, codes []int64, extra int) Table {
	cols := make([]Column, 0, extra+1)
	for i := 0; i < extra; i++ {
		c := Column{Name: "col" + strings.Repeat("x", i)}
		for range codes {
			c.Values = append(c.Values, Float(1.5))
		}
		cols = append(cols, c)
	}
	keyCol := intColumn(key, codes...)
	pos = pos % (extra + 1)
	return Table{Columns: slices.Insert(cols, pos, keyCol)}
}

func TestProperty_ValidateCanonicalizesJoinKey(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("join key is renamed in place with values preserved", prop.ForAll(
		func(key string, pos int, codes []int64, extra int) bool {
			in := buildTable(key, pos, codes, extra)
			ds, err := Validate(in)
			if err != nil {
				return false
			}
			idx := pos % (extra + 1)
			return ds.KeyIndex == idx &&
				ds.Table.Columns[idx].Name == JoinKey &&
				slices.Equal(ds.JoinKey, codes) &&
				in.Columns[idx].Name == key
		},
		genSpelling(),
		gen.IntRange(0, 10),
		gen.SliceOf(gen.Int64Range(1000, 99999)).SuchThat(func(codes []int64) bool { return len(codes) > 0 }),
		gen.IntRange(1, 5),
	))

	properties.Property("two join key columns are always ambiguous", prop.ForAll(
		func(a, b string, codes []int64) bool {
			in := Table{Columns: []Column{
				intColumn(a, codes...),
				intColumn(b, codes...),
				intColumn("Value", codes...),
			}}
			_, err := Validate(in)
			return errors.Is(err, ErrAmbiguousJoinKey)
		},
		genSpelling(),
		genSpelling(),
		gen.SliceOf(gen.Int64Range(1000, 99999)),
	))

	properties.Property("any non-integer join value is rejected", prop.ForAll(
		func(codes []int64, at int, kind int) bool {
			values := make([]Value, len(codes))
			for i, c := range codes {
				values[i] = Int(c)
			}
			bad := []Value{Float(float64(codes[0]) + 0.5), Text("x"), Null()}[kind]
			values[at%len(values)] = bad
			in := Table{Columns: []Column{
				{Name: "NisCode", Values: values},
				intColumn("Value", codes...),
			}}
			_, err := Validate(in)
			return errors.Is(err, ErrInvalidJoinKeyType)
		},
		gen.SliceOfN(5, gen.Int64Range(1000, 99999)),
		gen.IntRange(0, 100),
		gen.IntRange(0, 2),
	))

	properties.TestingRun(t)
}
