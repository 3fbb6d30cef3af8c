// Package pipeline runs the read, validate and build stages that turn an
// uploaded table into a plot.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/mapmaker/internal/domain"
	"github.com/couchcryptid/mapmaker/internal/observability"
	sharedretry "github.com/couchcryptid/storm-data-shared/retry"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"
)

// TableReader decodes tabular files into tables.
type TableReader interface {
	ReadBytes(name string, data []byte, opts domain.ReadOptions) (domain.Table, error)
	ReadFile(ctx context.Context, uri string, opts domain.ReadOptions) (domain.Table, error)
}

// Builder composes a plot spec from a validated dataset.
type Builder interface {
	Build(ds domain.Dataset, preset Preset, opts domain.PlotOptions) (domain.PlotSpec, error)
}

// Request is one table to plot. Data holds an uploaded file named Name; when
// Data is nil the table is loaded from URI instead.
type Request struct {
	Name   string
	Data   []byte
	URI    string
	Read   domain.ReadOptions
	Preset Preset
	Plot   domain.PlotOptions
}

// Result is the output of a successful run.
type Result struct {
	Spec    domain.PlotSpec
	Dataset domain.Dataset
	// Coverage is nil when no boundary source is configured or it could not be reached.
	Coverage *domain.Coverage
}

// Pipeline orchestrates the read-validate-build sequence.
type Pipeline struct {
	reader   TableReader
	builder  Builder
	boundary domain.BoundarySource
	ref      domain.BoundaryRef
	logger   *slog.Logger
	metrics  *observability.Metrics
	clock    clockwork.Clock
	ready    atomic.Bool
}

// New creates a Pipeline. boundary may be nil to skip coverage checks.
func New(reader TableReader, builder Builder, boundary domain.BoundarySource, ref domain.BoundaryRef, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	p := &Pipeline{
		reader:   reader,
		builder:  builder,
		boundary: boundary,
		ref:      ref,
		logger:   logger,
		metrics:  metrics,
		clock:    clockwork.NewRealClock(),
	}
	if boundary != nil {
		metrics.BoundaryEnabled.Set(1)
	} else {
		metrics.BoundaryEnabled.Set(0)
	}
	return p
}

// SetClock swaps the time source used for run durations. Pass nil to reset to real time.
func (p *Pipeline) SetClock(c clockwork.Clock) {
	if c == nil {
		c = clockwork.NewRealClock()
	}
	p.clock = c
}

// Boundary returns the boundary dataset plots are drawn on.
func (p *Pipeline) Boundary() domain.BoundaryRef { return p.ref }

// CheckReadiness returns nil once the boundary dataset has been loaded, or
// immediately when no boundary source is configured.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if p.boundary == nil || p.ready.Load() {
		return nil
	}
	return errors.New("boundary dataset has not been loaded yet")
}

// Warm loads the boundary dataset once so that the first plot does not pay for the download.
func (p *Pipeline) Warm(ctx context.Context) error {
	if p.boundary == nil {
		return nil
	}
	codes, err := p.boundary.RegionCodes(ctx, p.ref)
	if err != nil {
		return err
	}
	p.ready.Store(true)
	p.logger.Info("boundary dataset warmed", "feature", p.ref.Feature, "regions", len(codes))
	return nil
}

// WarmUntilReady retries Warm with exponential backoff until it succeeds or ctx ends.
func (p *Pipeline) WarmUntilReady(ctx context.Context) {
	// Start at 200ms, double each retry, cap at 30s.
	backoff := 200 * time.Millisecond
	maxBackoff := 30 * time.Second

	for {
		err := p.Warm(ctx)
		if err == nil {
			return
		}
		if ctx.Err() != nil {
			return
		}
		p.logger.Warn("boundary warm-up failed, retrying", "error", err, "backoff", backoff)
		if !sharedretry.SleepWithContext(ctx, backoff) {
			return
		}
		backoff = sharedretry.NextBackoff(backoff, maxBackoff)
	}
}

// Inspect reads and validates the table without building a plot.
func (p *Pipeline) Inspect(ctx context.Context, req Request) (domain.Dataset, error) {
	start := p.clock.Now()
	ds, err := p.load(ctx, req)
	p.observe("inspect", start, err)
	return ds, err
}

// Run reads, validates and plots the table. Any stage error aborts the run.
// The boundary dataset is fetched alongside the read; when that fetch fails
// the plot is still returned, without coverage.
func (p *Pipeline) Run(ctx context.Context, req Request) (Result, error) {
	start := p.clock.Now()
	res, err := p.run(ctx, req)
	p.observe("plot", start, err)
	return res, err
}

func (p *Pipeline) run(ctx context.Context, req Request) (Result, error) {
	var (
		ds          domain.Dataset
		codes       []int64
		boundaryErr error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		ds, err = p.load(gctx, req)
		return err
	})
	if p.boundary != nil {
		g.Go(func() error {
			codes, boundaryErr = p.boundary.RegionCodes(gctx, p.ref)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	spec, err := p.builder.Build(ds, req.Preset, req.Plot)
	if err != nil {
		return Result{}, err
	}

	res := Result{Spec: spec, Dataset: ds}
	switch {
	case p.boundary == nil:
	case boundaryErr != nil:
		p.logger.Warn("boundary dataset unavailable, skipping coverage", "error", boundaryErr)
	default:
		p.ready.Store(true)
		cov := p.coverage(ds, codes)
		res.Coverage = &cov
	}
	return res, nil
}

// Coverage fetches the boundary codes and compares them with the dataset.
func (p *Pipeline) Coverage(ctx context.Context, ds domain.Dataset) (domain.Coverage, error) {
	if p.boundary == nil {
		return domain.Coverage{}, errors.New("no boundary source configured")
	}
	codes, err := p.boundary.RegionCodes(ctx, p.ref)
	if err != nil {
		return domain.Coverage{}, err
	}
	p.ready.Store(true)
	return p.coverage(ds, codes), nil
}

func (p *Pipeline) coverage(ds domain.Dataset, codes []int64) domain.Coverage {
	cov := domain.CheckCoverage(ds, codes)
	p.metrics.Unmatched.Observe(float64(len(cov.MissingRegions)))

	if len(cov.UnknownCodes) > 0 || len(cov.DuplicateCodes) > 0 {
		p.logger.Warn("table codes do not line up with boundary regions",
			"unknown_codes", len(cov.UnknownCodes),
			"duplicate_codes", len(cov.DuplicateCodes),
		)
	}
	return cov
}

func (p *Pipeline) load(ctx context.Context, req Request) (domain.Dataset, error) {
	var (
		t   domain.Table
		err error
	)
	if req.Data != nil || req.URI == "" {
		t, err = p.reader.ReadBytes(req.Name, req.Data, req.Read)
	} else {
		t, err = p.reader.ReadFile(ctx, req.URI, req.Read)
	}
	if err != nil {
		return domain.Dataset{}, err
	}
	p.metrics.TableRows.Observe(float64(t.RowCount()))

	return domain.Validate(t)
}

func (p *Pipeline) observe(operation string, start time.Time, err error) {
	p.metrics.RunDuration.WithLabelValues(operation).Observe(p.clock.Since(start).Seconds())
	if err != nil {
		p.metrics.Runs.WithLabelValues(operation, "error").Inc()
		p.metrics.RunErrors.WithLabelValues(domain.ErrorKind(err)).Inc()
		p.logger.Info("run rejected", "operation", operation, "kind", domain.ErrorKind(err), "error", err)
		return
	}
	p.metrics.Runs.WithLabelValues(operation, "success").Inc()
}
