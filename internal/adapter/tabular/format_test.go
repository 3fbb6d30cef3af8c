package tabular

import (
	"testing"

	"github.com/couchcryptid/mapmaker/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name string
		want Format
	}{
		{"population.csv", CSV},
		{"POPULATION.CSV", CSV},
		{"/tmp/data/population.Csv", CSV},
		{"population.xlsx", XLSX},
		{"Population.XLSX", XLSX},
		{"https://example.com/data/population.xlsx?token=abc", XLSX},
		{"http://example.com/population.csv#top", CSV},
		{"population.xls", Unknown},
		{"population.csv.gz", Unknown},
		{"population", Unknown},
		{"", Unknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Detect(tt.name))
		})
	}
}

func TestFormat_String(t *testing.T) {
	assert.Equal(t, "csv", CSV.String())
	assert.Equal(t, "xlsx", XLSX.String())
	assert.Equal(t, "unknown", Unknown.String())
}

func TestInferColumn(t *testing.T) {
	tests := []struct {
		name  string
		cells []string
		want  []domain.Value
	}{
		{
			name:  "integers",
			cells: []string{"1000", " 2000 ", "-3"},
			want:  []domain.Value{domain.Int(1000), domain.Int(2000), domain.Int(-3)},
		},
		{
			name:  "mixed numbers widen to float",
			cells: []string{"1", "2.5"},
			want:  []domain.Value{domain.Float(1), domain.Float(2.5)},
		},
		{
			name:  "any text makes the column text",
			cells: []string{"1000", "Gent"},
			want:  []domain.Value{domain.Text("1000"), domain.Text("Gent")},
		},
		{
			name:  "missing cells stay null",
			cells: []string{"", "n/a", "7"},
			want:  []domain.Value{domain.Null(), domain.Null(), domain.Int(7)},
		},
		{
			name:  "text keeps surrounding spaces",
			cells: []string{" Gent", "NULL"},
			want:  []domain.Value{domain.Text(" Gent"), domain.Null()},
		},
		{
			name:  "all missing",
			cells: []string{"", "NA"},
			want:  []domain.Value{domain.Null(), domain.Null()},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, inferColumn(tt.cells))
		})
	}
}
