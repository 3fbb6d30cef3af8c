package tabular

import (
	"strconv"
	"strings"

	"github.com/couchcryptid/mapmaker/internal/domain"
)

// naValues are cell texts read as missing values, matching the markers
// spreadsheet exports commonly use.
var naValues = map[string]bool{
	"": true, "#N/A": true, "#N/A N/A": true, "#NA": true, "-1.#IND": true,
	"-1.#QNAN": true, "-NaN": true, "-nan": true, "1.#IND": true, "1.#QNAN": true,
	"<NA>": true, "N/A": true, "NA": true, "NULL": true, "NaN": true, "None": true,
	"n/a": true, "nan": true, "null": true,
}

// buildTable turns a header row and raw cell texts into a typed table.
// Rows shorter than the header are padded with missing values; blank header
// cells are named "Unnamed: <index>".
func buildTable(header []string, rows [][]string) domain.Table {
	cols := make([]domain.Column, len(header))
	for j, name := range header {
		if strings.TrimSpace(name) == "" {
			name = "Unnamed: " + strconv.Itoa(j)
		}
		cells := make([]string, len(rows))
		for i, row := range rows {
			if j < len(row) {
				cells[i] = row[j]
			}
		}
		cols[j] = domain.Column{Name: name, Values: inferColumn(cells)}
	}
	return domain.Table{Columns: cols}
}

// inferColumn types a column as a whole: integer when every present cell is a
// base-10 int64, float when every present cell is a number, text otherwise.
// Missing cells are null in every column type.
func inferColumn(cells []string) []domain.Value {
	kind := domain.KindInt
	for _, c := range cells {
		s := strings.TrimSpace(c)
		if naValues[s] {
			continue
		}
		if kind == domain.KindInt {
			if _, err := strconv.ParseInt(s, 10, 64); err == nil {
				continue
			}
			kind = domain.KindFloat
		}
		if _, err := strconv.ParseFloat(s, 64); err != nil {
			kind = domain.KindText
			break
		}
	}

	values := make([]domain.Value, len(cells))
	for i, c := range cells {
		s := strings.TrimSpace(c)
		if naValues[s] {
			values[i] = domain.Null()
			continue
		}
		switch kind {
		case domain.KindInt:
			v, _ := strconv.ParseInt(s, 10, 64)
			values[i] = domain.Int(v)
		case domain.KindFloat:
			v, _ := strconv.ParseFloat(s, 64)
			values[i] = domain.Float(v)
		default:
			values[i] = domain.Text(c)
		}
	}
	return values
}
