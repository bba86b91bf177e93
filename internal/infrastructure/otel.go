package infrastructure

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.28.0"
	"go.opentelemetry.io/otel/trace"

	"hpvload/internal/config"
)

const (
	ServiceName = "hpvload"
	MeterName   = "hpvload"
	TracerName  = "hpvload.run"
)

// OTelProviders holds the OpenTelemetry providers
type OTelProviders struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	Tracer         trace.Tracer
	Meter          metric.Meter
	Registry       *promclient.Registry
	Logger         *slog.Logger

	textfile string
}

// InitializeOTel initializes tracing and metrics for a batch run
func InitializeOTel(cfg config.TelemetryConfig, logger *slog.Logger) (*OTelProviders, error) {
	ctx := context.Background()

	logger.InfoContext(ctx, "Initializing OpenTelemetry",
		slog.String("service", ServiceName),
		slog.String("environment", cfg.Environment),
		slog.String("trace_exporter", cfg.TraceExporter),
		slog.Bool("metrics_enabled", cfg.EnableMetrics))

	res, err := createResource(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	providers := &OTelProviders{
		Logger:   logger,
		Tracer:   otel.Tracer(TracerName),
		Meter:    noop.NewMeterProvider().Meter(MeterName),
		textfile: cfg.MetricsTextfile,
	}

	if err := initializeTracing(ctx, cfg, res, providers); err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}

	if cfg.EnableMetrics {
		if err := initializeMetrics(ctx, res, providers); err != nil {
			return nil, fmt.Errorf("failed to initialize metrics: %w", err)
		}
	}

	return providers, nil
}

// createResource creates the OpenTelemetry resource
func createResource(cfg config.TelemetryConfig) (*resource.Resource, error) {
	return resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(ServiceName),
		semconv.ServiceVersion(config.AppVersion),
		semconv.DeploymentEnvironmentName(cfg.Environment),
		attribute.String("service.instance.id", generateInstanceID()),
	), nil
}

// initializeTracing sets up OpenTelemetry tracing
func initializeTracing(ctx context.Context, cfg config.TelemetryConfig, res *resource.Resource, providers *OTelProviders) error {
	var exporter sdktrace.SpanExporter
	var err error

	switch cfg.TraceExporter {
	case "stdout":
		exporter, err = stdouttrace.New(stdouttrace.WithPrettyPrint())
	case "none", "":
		return nil
	default:
		return fmt.Errorf("unsupported trace exporter: %s", cfg.TraceExporter)
	}
	if err != nil {
		return fmt.Errorf("failed to create trace exporter: %w", err)
	}

	// Batch runs are short; a synchronous processor guarantees spans are flushed.
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.TraceIDRatioBased(cfg.SampleRatio)),
	)

	providers.TracerProvider = tp
	providers.Tracer = tp.Tracer(TracerName, trace.WithInstrumentationVersion(config.AppVersion))
	otel.SetTracerProvider(tp)

	providers.Logger.InfoContext(ctx, "Tracing initialized",
		slog.String("exporter", cfg.TraceExporter),
		slog.Float64("sample_ratio", cfg.SampleRatio))

	return nil
}

// initializeMetrics sets up a meter provider backed by a private Prometheus registry
func initializeMetrics(ctx context.Context, res *resource.Resource, providers *OTelProviders) error {
	registry := promclient.NewRegistry()

	exporter, err := prometheus.New(prometheus.WithRegisterer(registry))
	if err != nil {
		return fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)

	providers.Registry = registry
	providers.MeterProvider = mp
	providers.Meter = mp.Meter(MeterName, metric.WithInstrumentationVersion(config.AppVersion))
	otel.SetMeterProvider(mp)

	providers.Logger.InfoContext(ctx, "Metrics initialized", slog.String("exporter", "prometheus"))
	return nil
}

// RunMetrics holds the counters recorded by a pipeline run
type RunMetrics struct {
	SourcesRead   metric.Int64Counter
	RowsExtracted metric.Int64Counter
	RowsLoaded    metric.Int64Counter
	Runs          metric.Int64Counter
	RunDuration   metric.Float64Histogram
}

// CreateRunMetrics creates the pipeline instruments on meter
func CreateRunMetrics(meter metric.Meter) (*RunMetrics, error) {
	sourcesRead, err := meter.Int64Counter(
		"hpvload_sources_read",
		metric.WithDescription("Spreadsheet sources read"),
	)
	if err != nil {
		return nil, err
	}

	rowsExtracted, err := meter.Int64Counter(
		"hpvload_rows_extracted",
		metric.WithDescription("Fact rows produced by the transform stage"),
	)
	if err != nil {
		return nil, err
	}

	rowsLoaded, err := meter.Int64Counter(
		"hpvload_rows_loaded",
		metric.WithDescription("Fact rows written to the warehouse"),
	)
	if err != nil {
		return nil, err
	}

	runs, err := meter.Int64Counter(
		"hpvload_runs",
		metric.WithDescription("Pipeline runs by outcome"),
	)
	if err != nil {
		return nil, err
	}

	runDuration, err := meter.Float64Histogram(
		"hpvload_run_duration_seconds",
		metric.WithDescription("Pipeline run duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &RunMetrics{
		SourcesRead:   sourcesRead,
		RowsExtracted: rowsExtracted,
		RowsLoaded:    rowsLoaded,
		Runs:          runs,
		RunDuration:   runDuration,
	}, nil
}

// RecordRun records the outcome and duration of a run
func (m *RunMetrics) RecordRun(ctx context.Context, outcome string, d time.Duration) {
	attrs := metric.WithAttributes(attribute.String("outcome", outcome))
	m.Runs.Add(ctx, 1, attrs)
	m.RunDuration.Record(ctx, d.Seconds(), attrs)
}

// WriteTextfile persists the Prometheus registry for a node-exporter textfile collector.
// It is a no-op when metrics are disabled or no path is configured.
func (p *OTelProviders) WriteTextfile() error {
	if p.Registry == nil || p.textfile == "" {
		return nil
	}
	if err := promclient.WriteToTextfile(p.textfile, p.Registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down OpenTelemetry providers
func (p *OTelProviders) Shutdown(ctx context.Context) error {
	var errs []error

	if p.TracerProvider != nil {
		if err := p.TracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider shutdown: %w", err))
		}
	}

	if p.MeterProvider != nil {
		if err := p.MeterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter provider shutdown: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("opentelemetry shutdown errors: %v", errs)
	}

	return nil
}

// generateInstanceID generates a unique instance identifier
func generateInstanceID() string {
	hostname, _ := os.Hostname()
	return fmt.Sprintf("%s-%d", hostname, time.Now().Unix())
}
