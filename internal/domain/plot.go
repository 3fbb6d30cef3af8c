package domain

import "fmt"

// Plot geometry in logical units.
const (
	PlotWidth  = 600
	PlotHeight = 450

	// baseOpacity is the opacity of the missing-data layer.
	baseOpacity = 0.9
)

// Default plot options.
const (
	DefaultStroke       = "darkgrey"
	DefaultStrokeWidth  = 0.9
	DefaultScheme       = "reds"
	DefaultMissingColor = "white"

	// Outline used by the quantitative and nominal presets.
	PresetStroke      = "lightgrey"
	PresetStrokeWidth = 0.5
)

// LayerRole says what a layer draws.
type LayerRole string

const (
	RoleBase LayerRole = "base"
	RoleData LayerRole = "data"
)

// Mark describes the geometry drawn for every region in a layer.
type Mark struct {
	Type        string  `json:"type"`
	Stroke      string  `json:"stroke,omitempty"`
	// StrokeWidth is nil for marks without an outline. Zero draws no outline.
	StrokeWidth *float64 `json:"stroke_width,omitempty"`
}

// ColorEncoding colors regions by a table column.
type ColorEncoding struct {
	Field       string    `json:"field"`
	Scale       ScaleType `json:"scale"`
	Scheme      string    `json:"scheme"`
	LegendTitle string    `json:"legend_title"`
}

// FieldRef names a table column and how to interpret it.
type FieldRef struct {
	Field string    `json:"field"`
	Scale ScaleType `json:"scale"`
}

// Layer is one stacked layer of the map. A base layer sets Fill; a data
// layer sets Color and reads its fields through the plot's Lookup.
type Layer struct {
	Role    LayerRole      `json:"role"`
	Mark    Mark           `json:"mark"`
	Fill    string         `json:"fill,omitempty"`
	Opacity float64        `json:"opacity,omitempty"`
	Color   *ColorEncoding `json:"color,omitempty"`
	Tooltip []FieldRef     `json:"tooltip"`
}

// LookupRow is one table row as seen by the join.
type LookupRow struct {
	Key    int64   `json:"key"`
	Values []Value `json:"values"`
}

// Lookup joins boundary features to table rows.
type Lookup struct {
	// BoundaryKey is the feature path holding the region code.
	BoundaryKey string `json:"boundary_key"`
	// TableKey is the table column matched against BoundaryKey.
	TableKey string `json:"table_key"`
	// Fields are the table columns made available to matched features.
	Fields []string    `json:"fields"`
	Rows   []LookupRow `json:"rows"`
}

// PlotSpec is a renderer-agnostic choropleth description.
// Layers always holds the base layer followed by the data layer.
type PlotSpec struct {
	Width    int         `json:"width"`
	Height   int         `json:"height"`
	Boundary BoundaryRef `json:"boundary"`
	Layers   []Layer     `json:"layers"`
	Lookup   Lookup      `json:"lookup"`
}

// Base returns the missing-data layer.
func (p PlotSpec) Base() Layer { return p.Layers[0] }

// Data returns the data-colored layer.
func (p PlotSpec) Data() Layer { return p.Layers[1] }

// PlotOptions are the user choices for one plot. Zero values take the defaults
// above; LegendTitle defaults to Column. A nil StrokeWidth takes the default,
// a pointer to 0 requests regions without an outline.
type PlotOptions struct {
	Column         string
	Scale          ScaleType
	TooltipColumns []string
	Stroke         string
	StrokeWidth    *float64
	LegendTitle    string
	Scheme         string
	MissingColor   string
}

func (o PlotOptions) withDefaults() PlotOptions {
	if o.Stroke == "" {
		o.Stroke = DefaultStroke
	}
	if o.StrokeWidth == nil {
		w := DefaultStrokeWidth
		o.StrokeWidth = &w
	}
	if o.Scheme == "" {
		o.Scheme = DefaultScheme
	}
	if o.MissingColor == "" {
		o.MissingColor = DefaultMissingColor
	}
	if o.LegendTitle == "" {
		o.LegendTitle = o.Column
	}
	return o
}

// check rejects options that would only fail once rendered.
func (o PlotOptions) check(ds Dataset) error {
	if !o.Scale.Valid() {
		return fmt.Errorf("%w: scale type %q", ErrInvalidOption, o.Scale)
	}
	if !IsColorScheme(o.Scheme) {
		return fmt.Errorf("%w: color scheme %q", ErrInvalidOption, o.Scheme)
	}
	if !IsMissingColor(o.MissingColor) {
		return fmt.Errorf("%w: missing color %q", ErrInvalidOption, o.MissingColor)
	}
	if *o.StrokeWidth < 0 {
		return fmt.Errorf("%w: stroke width %g", ErrInvalidOption, *o.StrokeWidth)
	}
	if !ds.hasDataColumn(o.Column) {
		return fmt.Errorf("%w: data column %q", ErrUnknownColumn, o.Column)
	}
	for _, name := range o.TooltipColumns {
		if !ds.hasDataColumn(name) {
			return fmt.Errorf("%w: tooltip column %q", ErrUnknownColumn, name)
		}
	}
	return nil
}

// Build composes the choropleth for ds over the boundary regions of b.
//
// The data column and every tooltip column must be data columns of ds, and
// the scale type, scheme and missing color must come from the catalogs.
// Building is deterministic: identical inputs give identical specs.
func Build(b BoundaryRef, ds Dataset, opts PlotOptions) (PlotSpec, error) {
	opts = opts.withDefaults()
	if err := opts.check(ds); err != nil {
		return PlotSpec{}, err
	}

	width := *opts.StrokeWidth
	base := Layer{
		Role:    RoleBase,
		Mark:    Mark{Type: "geoshape", Stroke: opts.Stroke, StrokeWidth: &width},
		Fill:    opts.MissingColor,
		Opacity: baseOpacity,
		Tooltip: []FieldRef{},
	}

	tooltip := make([]FieldRef, 0, len(opts.TooltipColumns))
	for _, name := range opts.TooltipColumns {
		tooltip = append(tooltip, FieldRef{Field: name, Scale: Nominal})
	}
	data := Layer{
		Role: RoleData,
		Mark: Mark{Type: "geoshape"},
		Color: &ColorEncoding{
			Field:       opts.Column,
			Scale:       opts.Scale,
			Scheme:      opts.Scheme,
			LegendTitle: opts.LegendTitle,
		},
		Tooltip: tooltip,
	}

	fields := lookupFields(opts.Column, opts.TooltipColumns)
	return PlotSpec{
		Width:    PlotWidth,
		Height:   PlotHeight,
		Boundary: b,
		Layers:   []Layer{base, data},
		Lookup: Lookup{
			BoundaryKey: b.LookupPath(),
			TableKey:    JoinKey,
			Fields:      fields,
			Rows:        lookupRows(ds, fields),
		},
	}, nil
}

// BuildQuantitative builds a plot with a quantitative scale and a light outline.
func BuildQuantitative(b BoundaryRef, ds Dataset, opts PlotOptions) (PlotSpec, error) {
	opts.Scale = Quantitative
	return Build(b, ds, presetOutline(opts))
}

// BuildNominal builds a plot with a nominal scale and a light outline.
func BuildNominal(b BoundaryRef, ds Dataset, opts PlotOptions) (PlotSpec, error) {
	opts.Scale = Nominal
	return Build(b, ds, presetOutline(opts))
}

func presetOutline(opts PlotOptions) PlotOptions {
	if opts.Stroke == "" {
		opts.Stroke = PresetStroke
	}
	if opts.StrokeWidth == nil {
		w := PresetStrokeWidth
		opts.StrokeWidth = &w
	}
	return opts
}

// lookupFields returns column followed by the tooltip columns, without repeats.
func lookupFields(column string, tooltip []string) []string {
	fields := []string{column}
	seen := map[string]bool{column: true}
	for _, name := range tooltip {
		if seen[name] {
			continue
		}
		seen[name] = true
		fields = append(fields, name)
	}
	return fields
}

func lookupRows(ds Dataset, fields []string) []LookupRow {
	cols := make([]Column, len(fields))
	for i, name := range fields {
		cols[i], _ = ds.Table.Column(name)
	}
	rows := make([]LookupRow, len(ds.JoinKey))
	for r, key := range ds.JoinKey {
		values := make([]Value, len(cols))
		for i, c := range cols {
			values[i] = c.Values[r]
		}
		rows[r] = LookupRow{Key: key, Values: values}
	}
	return rows
}
