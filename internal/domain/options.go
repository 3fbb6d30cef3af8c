package domain

import (
	"fmt"
	"slices"
)

// ScaleType is the semantic type of the plotted column.
type ScaleType string

const (
	Quantitative ScaleType = "quantitative"
	Ordinal      ScaleType = "ordinal"
	Nominal      ScaleType = "nominal"
)

// ScaleTypes lists the accepted scale types in display order.
var ScaleTypes = []ScaleType{Quantitative, Ordinal, Nominal}

// Code returns the single-letter shorthand used by the rendering grammar.
func (s ScaleType) Code() string {
	switch s {
	case Quantitative:
		return "Q"
	case Ordinal:
		return "O"
	case Nominal:
		return "N"
	default:
		return ""
	}
}

// Valid reports whether s is one of ScaleTypes.
func (s ScaleType) Valid() bool {
	return slices.Contains(ScaleTypes, s)
}

// ParseScaleType accepts a scale type name or its single-letter code.
func ParseScaleType(s string) (ScaleType, error) {
	for _, st := range ScaleTypes {
		if s == string(st) || s == st.Code() {
			return st, nil
		}
	}
	return "", fmt.Errorf("%w: scale type %q", ErrInvalidOption, s)
}

// SchemeFamily groups color schemes the way the Vega scheme reference does.
type SchemeFamily struct {
	Name    string   `json:"name" yaml:"name"`
	Schemes []string `json:"schemes" yaml:"schemes"`
}

// SchemeFamilies is the color scheme catalog, see https://vega.github.io/vega/docs/schemes/#reference.
var SchemeFamilies = []SchemeFamily{
	{Name: "sequential single-hue", Schemes: []string{
		"blues", "tealblues", "teals", "greens", "browns", "oranges", "reds",
		"purples", "warmgreys", "greys",
	}},
	{Name: "sequential multi-hue", Schemes: []string{
		"viridis", "magma", "inferno", "plasma", "cividis", "turbo", "bluegreen",
		"bluepurple", "goldgreen", "goldorange", "goldred", "greenblue", "orangered",
		"purplebluegreen", "purpleblue", "purplered", "redpurple", "yellowgreenblue",
		"yellowgreen", "yelloworangebrown", "yelloworangered",
	}},
	{Name: "dark background", Schemes: []string{
		"darkblue", "darkgold", "darkgreen", "darkmulti", "darkred",
	}},
	{Name: "light background", Schemes: []string{
		"lightgreyred", "lightgreyteal", "lightmulti", "lightorange", "lighttealblue",
	}},
	{Name: "diverging", Schemes: []string{
		"blueorange", "brownbluegreen", "purplegreen", "pinkyellowgreen", "purpleorange",
		"redblue", "redgrey", "redyellowblue", "redyellowgreen", "spectral",
	}},
	{Name: "cyclical", Schemes: []string{
		"rainbow", "sinebow",
	}},
	{Name: "categorical", Schemes: []string{
		"accent", "category10", "category20", "category20b", "category20c", "dark2",
		"paired", "pastel1", "pastel2", "set1", "set2", "set3", "tableau10", "tableau20",
	}},
}

// ColorSchemes returns every scheme name in catalog order.
func ColorSchemes() []string {
	var out []string
	for _, f := range SchemeFamilies {
		out = append(out, f.Schemes...)
	}
	return out
}

// IsColorScheme reports whether name is in the scheme catalog.
func IsColorScheme(name string) bool {
	for _, f := range SchemeFamilies {
		if slices.Contains(f.Schemes, name) {
			return true
		}
	}
	return false
}

// MissingColors are the fill colors offered for regions without data.
var MissingColors = []string{
	"white", "grey", "black", "lightgreen", "green", "lightblue", "blue", "lightred", "red",
}

// IsMissingColor reports whether name is in MissingColors.
func IsMissingColor(name string) bool {
	return slices.Contains(MissingColors, name)
}

// Delimiter is a named CSV field separator.
type Delimiter struct {
	Name string `json:"name" yaml:"name"`
	Rune rune   `json:"-" yaml:"-"`
	// Char is Rune as a string for display.
	Char string `json:"char" yaml:"char"`
}

// Delimiters lists the accepted CSV delimiters in display order.
var Delimiters = []Delimiter{
	{Name: "comma", Rune: ',', Char: ","},
	{Name: "semi-colon", Rune: ';', Char: ";"},
	{Name: "space", Rune: ' ', Char: " "},
	{Name: "tab", Rune: '\t', Char: "\t"},
}

// ParseDelimiter accepts a delimiter name ("semi-colon") or the character itself (";").
// An empty string selects the comma.
func ParseDelimiter(s string) (rune, error) {
	if s == "" {
		return ',', nil
	}
	for _, d := range Delimiters {
		if s == d.Name || s == d.Char {
			return d.Rune, nil
		}
	}
	return 0, fmt.Errorf("%w: delimiter %q", ErrInvalidOption, s)
}

// Encodings are the accepted CSV text encodings.
var Encodings = []string{"utf-8", "iso-8859-1"}

// DefaultEncoding is used when a CSV upload does not name one.
const DefaultEncoding = "utf-8"

// ReadOptions control how a CSV upload is decoded. XLSX files ignore them.
type ReadOptions struct {
	// Encoding is an IANA character set name; empty means DefaultEncoding.
	Encoding string
	// Delimiter separates fields; zero means ','.
	Delimiter rune
}

// Options is the full option catalog a presentation layer offers to users.
type Options struct {
	ScaleTypes     []ScaleType    `json:"scale_types" yaml:"scale_types"`
	SchemeFamilies []SchemeFamily `json:"color_schemes" yaml:"color_schemes"`
	MissingColors  []string       `json:"missing_colors" yaml:"missing_colors"`
	Delimiters     []Delimiter    `json:"delimiters" yaml:"delimiters"`
	Encodings      []string       `json:"encodings" yaml:"encodings"`
}

// Catalog returns the option catalog. Slices are copies.
func Catalog() Options {
	families := make([]SchemeFamily, len(SchemeFamilies))
	for i, f := range SchemeFamilies {
		families[i] = SchemeFamily{Name: f.Name, Schemes: slices.Clone(f.Schemes)}
	}
	return Options{
		ScaleTypes:     slices.Clone(ScaleTypes),
		SchemeFamilies: families,
		MissingColors:  slices.Clone(MissingColors),
		Delimiters:     slices.Clone(Delimiters),
		Encodings:      slices.Clone(Encodings),
	}
}
