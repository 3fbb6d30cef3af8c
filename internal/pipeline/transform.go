package pipeline

import (
	"fmt"
	"log/slog"

	"github.com/couchcryptid/mapmaker/internal/domain"
)

// Preset selects one of the canned plot builders.
type Preset string

const (
	// PresetNone builds with the scale type and outline given in the options.
	PresetNone Preset = ""
	// PresetQuantitative forces a quantitative scale with a light outline.
	PresetQuantitative Preset = "quantitative"
	// PresetNominal forces a nominal scale with a light outline.
	PresetNominal Preset = "nominal"
)

// ParsePreset accepts "", "quantitative" or "nominal".
func ParsePreset(s string) (Preset, error) {
	switch p := Preset(s); p {
	case PresetNone, PresetQuantitative, PresetNominal:
		return p, nil
	default:
		return "", fmt.Errorf("%w: preset %q", domain.ErrInvalidOption, s)
	}
}

// PlotBuilder implements Builder using the domain plot functions.
type PlotBuilder struct {
	boundary domain.BoundaryRef
	logger   *slog.Logger
}

// NewBuilder creates a PlotBuilder drawing on the given boundary dataset.
func NewBuilder(boundary domain.BoundaryRef, logger *slog.Logger) *PlotBuilder {
	return &PlotBuilder{
		boundary: boundary,
		logger:   logger,
	}
}

func (b *PlotBuilder) Build(ds domain.Dataset, preset Preset, opts domain.PlotOptions) (domain.PlotSpec, error) {
	var (
		spec domain.PlotSpec
		err  error
	)
	switch preset {
	case PresetQuantitative:
		spec, err = domain.BuildQuantitative(b.boundary, ds, opts)
	case PresetNominal:
		spec, err = domain.BuildNominal(b.boundary, ds, opts)
	case PresetNone:
		spec, err = domain.Build(b.boundary, ds, opts)
	default:
		return domain.PlotSpec{}, fmt.Errorf("%w: preset %q", domain.ErrInvalidOption, preset)
	}
	if err != nil {
		return domain.PlotSpec{}, err
	}

	b.logger.Debug("plot built",
		"column", spec.Data().Color.Field,
		"scale", spec.Data().Color.Scale,
		"scheme", spec.Data().Color.Scheme,
		"lookup_fields", len(spec.Lookup.Fields),
	)
	return spec, nil
}
