package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/couchcryptid/mapmaker/internal/adapter/tabular"
	"github.com/couchcryptid/mapmaker/internal/adapter/topojson"
	"github.com/couchcryptid/mapmaker/internal/config"
	"github.com/couchcryptid/mapmaker/internal/domain"
	"github.com/couchcryptid/mapmaker/internal/observability"
	"github.com/couchcryptid/mapmaker/internal/pipeline"
	"github.com/spf13/cobra"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	logLevel    string
	boundaryURL string
	encoding    string
	delimiter   string
}

func newRootCmd() *cobra.Command {
	var g globalFlags

	root := &cobra.Command{
		Use:   "mapmaker",
		Short: "Build choropleth maps of Belgian municipalities from tabular data",
		Long: `mapmaker reads a CSV or XLSX table with a NIS code column, checks it,
and writes a Vega-Lite specification coloring each municipality by one of
the table's columns. Municipalities without a row are drawn in a neutral
missing-data color.`,
		SilenceUsage: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&g.logLevel, "log-level", "warn", "log level written to stderr (debug, info, warn, error)")
	pf.StringVar(&g.boundaryURL, "boundary-url", "", "TopoJSON boundary dataset (default: BOUNDARY_URL or the Belgian municipalities)")
	pf.StringVar(&g.encoding, "encoding", "", "CSV text encoding (default: DEFAULT_ENCODING)")
	pf.StringVar(&g.delimiter, "delimiter", "", "CSV delimiter name or character: comma, semi-colon, space or tab (default: DEFAULT_DELIMITER)")

	root.AddCommand(
		newPlotCmd(&g),
		newValidateCmd(&g),
		newOptionsCmd(),
	)
	return root
}

// app bundles the pipeline with the settings it was built from.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	read     domain.ReadOptions
	pipeline *pipeline.Pipeline
}

// newApp wires a pipeline for one command invocation. withBoundary enables
// the coverage check against the boundary dataset.
func newApp(cmd *cobra.Command, g *globalFlags, withBoundary bool) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(g.logLevel)); err != nil {
		return nil, fmt.Errorf("invalid --log-level %q", g.logLevel)
	}
	// Logs go to stderr so that stdout carries only the command output.
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	metrics := observability.NewUnregisteredMetrics()

	read := cfg.ReadDefaults()
	if g.encoding != "" {
		read.Encoding = strings.ToLower(g.encoding)
	}
	if g.delimiter != "" {
		if read.Delimiter, err = domain.ParseDelimiter(g.delimiter); err != nil {
			return nil, err
		}
	}

	ref := cfg.Boundary
	if g.boundaryURL != "" {
		ref.URL = g.boundaryURL
	}

	var boundary domain.BoundarySource
	if withBoundary {
		client := topojson.NewClient(cfg.BoundaryTimeout, metrics, logger)
		boundary = topojson.NewCachedSource(client, cfg.BoundaryCacheSize, metrics)
	}

	reader := tabular.NewReader(cfg.FetchTimeout, cfg.MaxUploadBytes, logger)
	builder := pipeline.NewBuilder(ref, logger)

	return &app{
		cfg:      cfg,
		logger:   logger,
		read:     read,
		pipeline: pipeline.New(reader, builder, boundary, ref, logger, metrics),
	}, nil
}
