package app

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"

	"hpvload/internal/config"
	"hpvload/internal/dataprocessing"
	apperrors "hpvload/internal/errors"
	"hpvload/internal/exporter"
	"hpvload/internal/files"
	"hpvload/internal/infrastructure"
	"hpvload/internal/validation"
	"hpvload/internal/warehouse"
	"hpvload/pkg/contracts/domain"
)

// Run outcomes recorded on the hpvload_runs counter
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeDryRun  = "dry_run"
)

// RunRequest describes one pass over the source directory
type RunRequest struct {
	SourceDir   string
	Pattern     string
	Mode        domain.LoadMode
	Destination warehouse.Destination
	DryRun      bool
	ExportPath  string
}

// RunReport summarises a completed run
type RunReport struct {
	RunID         string
	Sources       []string
	RowsExtracted int
	ExportPath    string
	Load          *warehouse.LoadResult
	Duration      time.Duration
}

// OpenFunc connects to the warehouse described by cfg
type OpenFunc func(ctx context.Context, cfg config.WarehouseConfig, logger *slog.Logger) (*warehouse.Loader, error)

// Runner wires discovery, transformation, export and loading into a single forward pass
type Runner struct {
	Config  *config.Config
	Logger  *slog.Logger
	Tracer  trace.Tracer
	Metrics *infrastructure.RunMetrics

	open OpenFunc
	now  func() time.Time
}

// NewRunner creates a runner. providers may be nil, in which case spans and
// metrics go to no-op implementations.
func NewRunner(cfg *config.Config, logger *slog.Logger, providers *infrastructure.OTelProviders) (*Runner, error) {
	if logger == nil {
		logger = slog.Default()
	}

	tracer := otel.Tracer(infrastructure.TracerName)
	meter := noop.NewMeterProvider().Meter(infrastructure.MeterName)
	if providers != nil {
		tracer = providers.Tracer
		meter = providers.Meter
	}

	metrics, err := infrastructure.CreateRunMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create run metrics: %w", err)
	}

	return &Runner{
		Config:  cfg,
		Logger:  logger,
		Tracer:  tracer,
		Metrics: metrics,
		open:    warehouse.Open,
		now:     time.Now,
	}, nil
}

// WithOpener replaces the warehouse connector
func (r *Runner) WithOpener(open OpenFunc) *Runner {
	r.open = open
	return r
}

// WithClock sets the clock used for the extract date
func (r *Runner) WithClock(now func() time.Time) *Runner {
	r.now = now
	return r
}

// RequestFromConfig builds the default request from configuration
func RequestFromConfig(cfg *config.Config) (RunRequest, error) {
	mode, err := domain.ParseLoadMode(cfg.Load.Mode)
	if err != nil {
		return RunRequest{}, apperrors.NewConfigError("invalid load mode", err)
	}
	return RunRequest{
		SourceDir:   cfg.Source.Dir,
		Pattern:     cfg.Source.Pattern,
		Mode:        mode,
		Destination: warehouse.DestinationFromConfig(cfg.Warehouse),
		DryRun:      cfg.Load.DryRun,
		ExportPath:  cfg.Load.ExportPath,
	}, nil
}

// Run discovers the sources, transforms them into one fact table, optionally
// writes a CSV snapshot and loads the table unless the request is a dry run.
// Any failure aborts the run and is returned.
func (r *Runner) Run(ctx context.Context, req RunRequest) (RunReport, error) {
	ctx = infrastructure.EnsureRunID(ctx)
	start := time.Now()
	report := RunReport{RunID: infrastructure.GetRunID(ctx)}

	ctx, span := r.Tracer.Start(ctx, "hpvload.run", trace.WithAttributes(
		attribute.String("run_id", report.RunID),
		attribute.String("mode", string(req.Mode)),
		attribute.Bool("dry_run", req.DryRun),
	))
	defer span.End()

	r.Logger.InfoContext(ctx, "Run started",
		slog.String("source_dir", req.SourceDir),
		slog.String("pattern", req.Pattern),
		slog.String("destination", req.Destination.String()),
		slog.String("mode", string(req.Mode)),
		slog.Bool("dry_run", req.DryRun))

	err := r.run(ctx, req, &report)
	report.Duration = time.Since(start)

	outcome := OutcomeSuccess
	switch {
	case err != nil:
		outcome = OutcomeFailure
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.Logger.ErrorContext(ctx, "Run failed",
			slog.String("error", err.Error()),
			slog.Duration("duration", report.Duration))
	case req.DryRun:
		outcome = OutcomeDryRun
	}
	r.Metrics.RecordRun(ctx, outcome, report.Duration)

	if err != nil {
		return report, err
	}

	attrs := []any{
		slog.Int("sources", len(report.Sources)),
		slog.Int("rows_extracted", report.RowsExtracted),
		slog.Duration("duration", report.Duration),
	}
	if report.Load != nil {
		attrs = append(attrs, slog.Int("rows_loaded", report.Load.RowsWritten))
	}
	r.Logger.InfoContext(ctx, "Run complete", attrs...)
	return report, nil
}

func (r *Runner) run(ctx context.Context, req RunRequest, report *RunReport) error {
	sources, err := r.discover(req)
	if err != nil {
		return err
	}
	report.Sources = sources
	r.Metrics.SourcesRead.Add(ctx, int64(len(sources)))

	table, err := r.transform(ctx, sources)
	if err != nil {
		return err
	}
	report.RowsExtracted = table.Len()
	r.Metrics.RowsExtracted.Add(ctx, int64(table.Len()))

	if req.ExportPath != "" {
		if err := validation.NewFileValidator(r.Logger).ValidateOutputDirectory(filepath.Dir(req.ExportPath)); err != nil {
			return apperrors.NewConfigError("export path is not writable", err)
		}
		path, err := exporter.NewCSVWriter("", r.Logger).WriteFactTable(req.ExportPath, table)
		if err != nil {
			return fmt.Errorf("export snapshot: %w", err)
		}
		report.ExportPath = path
	}

	if req.DryRun {
		r.Logger.InfoContext(ctx, "Dry run, skipping load", slog.Int("rows", table.Len()))
		return nil
	}

	result, err := r.load(ctx, req, table)
	if err != nil {
		return err
	}
	report.Load = &result
	r.Metrics.RowsLoaded.Add(ctx, int64(result.RowsWritten))
	return nil
}

func (r *Runner) discover(req RunRequest) ([]string, error) {
	found, err := files.NewDiscovery("").FindFilesByPattern(req.SourceDir, req.Pattern)
	if err != nil {
		return nil, apperrors.NewSchemaError("source discovery failed", err).
			WithContext("dir", req.SourceDir)
	}
	if len(found) == 0 {
		return nil, apperrors.NewSchemaError(
			fmt.Sprintf("no source files match %q in %s", req.Pattern, req.SourceDir), nil)
	}
	paths := files.Paths(found)
	if err := validation.NewFileValidator(r.Logger).ValidateWorkbooks(paths); err != nil {
		return nil, apperrors.NewSchemaError("invalid source workbook", err)
	}
	return paths, nil
}

func (r *Runner) transform(ctx context.Context, sources []string) (*domain.FactTable, error) {
	ctx, span := r.Tracer.Start(ctx, "hpvload.transform",
		trace.WithAttributes(attribute.Int("sources", len(sources))))
	defer span.End()

	transformer, err := dataprocessing.NewTransformer(dataprocessing.OptionsFromConfig(r.Config.Source), r.Logger)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	table, err := transformer.WithClock(r.now).Transform(ctx, sources)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transform failed")
		return nil, err
	}
	span.SetAttributes(attribute.Int("rows", table.Len()))
	return table, nil
}

func (r *Runner) load(ctx context.Context, req RunRequest, table *domain.FactTable) (warehouse.LoadResult, error) {
	ctx, span := r.Tracer.Start(ctx, "hpvload.load", trace.WithAttributes(
		attribute.String("destination", req.Destination.String()),
		attribute.String("mode", string(req.Mode)),
		attribute.Int("rows", table.Len()),
	))
	defer span.End()

	loader, err := r.open(ctx, r.Config.Warehouse, r.Logger)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "connect failed")
		return warehouse.LoadResult{}, err
	}
	defer loader.Close()

	result, err := loader.Load(ctx, table, req.Destination, req.Mode)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load failed")
		return result, err
	}
	span.SetAttributes(attribute.Int("chunks", result.Chunks))
	return result, nil
}
