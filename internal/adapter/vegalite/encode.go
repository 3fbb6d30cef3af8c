// Package vegalite translates a domain.PlotSpec into a Vega-Lite v4 layered
// chart that any Vega-Lite renderer can draw.
package vegalite

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/couchcryptid/mapmaker/internal/domain"
)

// Schema is the Vega-Lite schema URL stamped on every chart.
const Schema = "https://vega.github.io/schema/vega-lite/v4.17.0.json"

// Chart is the top-level Vega-Lite document.
type Chart struct {
	Schema string  `json:"$schema"`
	Config config  `json:"config"`
	Data   data    `json:"data"`
	Layer  []layer `json:"layer"`
}

type config struct {
	View view `json:"view"`
}

type view struct {
	ContinuousWidth  int `json:"continuousWidth"`
	ContinuousHeight int `json:"continuousHeight"`
}

type data struct {
	URL    string  `json:"url"`
	Format *format `json:"format"`
}

type inlineData struct {
	Values []map[string]domain.Value `json:"values"`
}

type format struct {
	Type    string `json:"type"`
	Feature string `json:"feature"`
}

type layer struct {
	Mark      mark        `json:"mark"`
	Encoding  encoding    `json:"encoding"`
	Transform []transform `json:"transform,omitempty"`
	Width     int         `json:"width,omitempty"`
	Height    int         `json:"height,omitempty"`
}

type mark struct {
	Type        string  `json:"type"`
	Stroke      string  `json:"stroke,omitempty"`
	StrokeWidth *float64 `json:"strokeWidth,omitempty"`
}

type encoding struct {
	Color   *channel  `json:"color,omitempty"`
	Opacity *channel  `json:"opacity,omitempty"`
	Tooltip []channel `json:"tooltip,omitempty"`
}

// channel is either a constant (Value set) or a field encoding.
type channel struct {
	Value  any     `json:"value,omitempty"`
	Field  string  `json:"field,omitempty"`
	Type   string  `json:"type,omitempty"`
	Legend *legend `json:"legend,omitempty"`
	Scale  *scale  `json:"scale,omitempty"`
}

type legend struct {
	Title string `json:"title"`
}

type scale struct {
	Scheme string `json:"scheme"`
}

type transform struct {
	Lookup string `json:"lookup"`
	From   from   `json:"from"`
}

type from struct {
	Data   inlineData `json:"data"`
	Key    string     `json:"key"`
	Fields []string   `json:"fields"`
}

// Translate maps a plot spec onto the Vega-Lite document model. Both layers
// read the boundary dataset declared at the top level.
func Translate(spec domain.PlotSpec) (Chart, error) {
	if len(spec.Layers) != 2 {
		return Chart{}, fmt.Errorf("plot has %d layers, want base and data", len(spec.Layers))
	}
	base, dl := spec.Base(), spec.Data()
	if base.Role != domain.RoleBase || dl.Role != domain.RoleData || dl.Color == nil {
		return Chart{}, errors.New("plot layers are out of order")
	}

	tooltip := make([]channel, len(dl.Tooltip))
	for i, f := range dl.Tooltip {
		tooltip[i] = channel{Field: f.Field, Type: string(f.Scale)}
	}

	return Chart{
		Schema: Schema,
		Config: config{View: view{ContinuousWidth: 400, ContinuousHeight: 300}},
		Data: data{
			URL:    spec.Boundary.URL,
			Format: &format{Type: "topojson", Feature: spec.Boundary.Feature},
		},
		Layer: []layer{
			{
				Mark: mark{Type: base.Mark.Type, Stroke: base.Mark.Stroke, StrokeWidth: base.Mark.StrokeWidth},
				Encoding: encoding{
					Color:   &channel{Value: base.Fill},
					Opacity: &channel{Value: base.Opacity},
				},
			},
			{
				Mark: mark{Type: dl.Mark.Type, Stroke: dl.Mark.Stroke, StrokeWidth: dl.Mark.StrokeWidth},
				Encoding: encoding{
					Color: &channel{
						Field:  dl.Color.Field,
						Type:   string(dl.Color.Scale),
						Legend: &legend{Title: dl.Color.LegendTitle},
						Scale:  &scale{Scheme: dl.Color.Scheme},
					},
					Tooltip: tooltip,
				},
				Transform: []transform{{
					Lookup: spec.Lookup.BoundaryKey,
					From: from{
						Data:   inlineData{Values: lookupValues(spec.Lookup)},
						Key:    spec.Lookup.TableKey,
						Fields: spec.Lookup.Fields,
					},
				}},
				Width:  spec.Width,
				Height: spec.Height,
			},
		},
	}, nil
}

// Encode renders spec as indented Vega-Lite JSON. The output is byte-identical
// for identical specs.
func Encode(spec domain.PlotSpec) ([]byte, error) {
	chart, err := Translate(spec)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(chart); err != nil {
		return nil, fmt.Errorf("encode chart: %w", err)
	}
	return buf.Bytes(), nil
}

func lookupValues(l domain.Lookup) []map[string]domain.Value {
	rows := make([]map[string]domain.Value, len(l.Rows))
	for i, r := range l.Rows {
		row := make(map[string]domain.Value, len(l.Fields)+1)
		row[l.TableKey] = domain.Int(r.Key)
		for j, f := range l.Fields {
			row[f] = r.Values[j]
		}
		rows[i] = row
	}
	return rows
}
