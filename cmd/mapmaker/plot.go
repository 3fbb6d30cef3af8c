package main

import (
	"fmt"
	"io"

	"github.com/couchcryptid/mapmaker/internal/adapter/vegalite"
	"github.com/couchcryptid/mapmaker/internal/domain"
	"github.com/couchcryptid/mapmaker/internal/pipeline"
	"github.com/spf13/cobra"
)

const (
	formatVegaLite = "vega-lite"
	formatSpec     = "spec"
)

type plotFlags struct {
	column       string
	scale        string
	preset       string
	scheme       string
	missingColor string
	tooltip      []string
	legendTitle  string
	stroke       string
	strokeWidth  float64
	format       string
	output       string
	out          string
	coverage     bool
}

func newPlotCmd(g *globalFlags) *cobra.Command {
	var f plotFlags

	cmd := &cobra.Command{
		Use:   "plot FILE",
		Short: "Write the choropleth for one column of a table",
		Long: `plot reads FILE (a local path or an http(s) URL ending in .csv or .xlsx),
checks it and writes the map specification to stdout or --out.

With --format vega-lite (the default) the output is a Vega-Lite document
ready for any Vega-Lite renderer. With --format spec it is the
renderer-agnostic plot description.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlot(cmd, g, &f, args[0])
		},
	}

	fl := cmd.Flags()
	fl.StringVarP(&f.column, "column", "c", "", "column that colors the regions (required)")
	fl.StringVar(&f.scale, "scale", string(domain.Quantitative), "scale type: quantitative, ordinal or nominal")
	fl.StringVar(&f.preset, "preset", "", "canned outline and scale: quantitative or nominal")
	fl.StringVar(&f.scheme, "scheme", "", "color scheme (default "+domain.DefaultScheme+")")
	fl.StringVar(&f.missingColor, "missing-color", "", "fill of regions without data (default "+domain.DefaultMissingColor+")")
	fl.StringSliceVar(&f.tooltip, "tooltip", nil, "columns shown on hover, repeatable")
	fl.StringVar(&f.legendTitle, "legend-title", "", "legend title (default: the column name)")
	fl.StringVar(&f.stroke, "stroke", "", "region outline color (default "+domain.DefaultStroke+")")
	fl.Float64Var(&f.strokeWidth, "stroke-width", 0, "region outline width, 0 for none")
	fl.StringVar(&f.format, "format", formatVegaLite, "document format: vega-lite or spec")
	fl.StringVarP(&f.output, "output", "o", outputJSON, "output encoding: json or yaml")
	fl.StringVar(&f.out, "out", "", "write to this file instead of stdout")
	fl.BoolVar(&f.coverage, "coverage", false, "fetch the boundary dataset and report regions without data on stderr")
	_ = cmd.MarkFlagRequired("column")

	return cmd
}

func runPlot(cmd *cobra.Command, g *globalFlags, f *plotFlags, file string) error {
	if f.format != formatVegaLite && f.format != formatSpec {
		return fmt.Errorf("unknown --format %q (want %s or %s)", f.format, formatVegaLite, formatSpec)
	}
	scale, err := domain.ParseScaleType(f.scale)
	if err != nil {
		return err
	}
	preset, err := pipeline.ParsePreset(f.preset)
	if err != nil {
		return err
	}

	a, err := newApp(cmd, g, f.coverage)
	if err != nil {
		return err
	}

	var strokeWidth *float64
	if cmd.Flags().Changed("stroke-width") {
		strokeWidth = &f.strokeWidth
	}

	res, err := a.pipeline.Run(cmd.Context(), pipeline.Request{
		URI:    file,
		Read:   a.read,
		Preset: preset,
		Plot: domain.PlotOptions{
			Column:         f.column,
			Scale:          scale,
			TooltipColumns: f.tooltip,
			Stroke:         f.stroke,
			StrokeWidth:    strokeWidth,
			LegendTitle:    f.legendTitle,
			Scheme:         f.scheme,
			MissingColor:   f.missingColor,
		},
	})
	if err != nil {
		return err
	}

	var doc any = res.Spec
	if f.format == formatVegaLite {
		chart, err := vegalite.Translate(res.Spec)
		if err != nil {
			return err
		}
		doc = chart
	}

	if f.out != "" {
		err = writeOutputFile(f.out, f.output, doc)
	} else {
		err = writeOutput(cmd.OutOrStdout(), f.output, doc)
	}
	if err != nil {
		return err
	}

	if f.coverage {
		reportCoverage(cmd.ErrOrStderr(), res.Coverage)
	}
	return nil
}

func reportCoverage(w io.Writer, cov *domain.Coverage) {
	if cov == nil {
		fmt.Fprintln(w, "coverage: boundary dataset unavailable")
		return
	}
	fmt.Fprintf(w, "coverage: %d of %d regions have data, %d unknown codes, %d duplicate codes\n",
		cov.Matched, cov.Regions, len(cov.UnknownCodes), len(cov.DuplicateCodes))
}
