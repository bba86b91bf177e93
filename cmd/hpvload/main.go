package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hpvload/internal/app"
	"hpvload/internal/config"
	apperrors "hpvload/internal/errors"
	"hpvload/internal/infrastructure"
	"hpvload/internal/warehouse"
	"hpvload/pkg/contracts"
)

// options holds the command line overrides
type options struct {
	configFile string
	inDir      string
	pattern    string
	mode       string
	dest       string
	export     string
	dryRun     bool
	version    bool
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet(config.AppName, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.configFile, "config", "", "YAML config file (defaults to hpvload.yaml or configs/hpvload.yaml if present)")
	fs.StringVar(&opts.inDir, "in", "", "directory holding the source workbooks")
	fs.StringVar(&opts.pattern, "pattern", "", "glob selecting source workbooks, e.g. *.xlsx")
	fs.StringVar(&opts.mode, "mode", "", "load mode: replace or append")
	fs.StringVar(&opts.dest, "dest", "", "destination table as DATABASE.SCHEMA.TABLE")
	fs.StringVar(&opts.export, "export", "", "write a CSV snapshot of the fact table to this path")
	fs.BoolVar(&opts.dryRun, "dry-run", false, "transform (and export) without loading")
	fs.BoolVar(&opts.version, "version", false, "print version information and exit")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	return opts, nil
}

// loadConfig reads the configuration and applies the flag overrides
func loadConfig(opts options) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if opts.configFile != "" {
		cfg, err = config.LoadFrom(opts.configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, apperrors.NewConfigError("failed to load configuration", err)
	}

	if opts.inDir != "" {
		cfg.Source.Dir = opts.inDir
	}
	if opts.pattern != "" {
		cfg.Source.Pattern = opts.pattern
	}
	if opts.mode != "" {
		cfg.Load.Mode = opts.mode
	}
	if opts.export != "" {
		cfg.Load.ExportPath = opts.export
	}
	if opts.dryRun {
		cfg.Load.DryRun = true
	}
	if opts.dest != "" {
		dest, err := warehouse.ParseDestination(opts.dest)
		if err != nil {
			return nil, err
		}
		cfg.Warehouse.Database, cfg.Warehouse.Schema, cfg.Warehouse.Table = dest.Catalog, dest.Schema, dest.Table
	}

	if err := cfg.Validate(); err != nil {
		return nil, apperrors.NewConfigError("invalid configuration", err)
	}
	return cfg, nil
}

// run executes one pipeline pass and returns the process exit status
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if opts.version {
		fmt.Fprintln(stdout, contracts.GetFullVersionString())
		return 0
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", config.AppName, err)
		return 1
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(stderr, "%s: failed to initialize logger: %v\n", config.AppName, err)
		return 1
	}
	defer infrastructure.CloseLogFile()

	ctx = infrastructure.EnsureRunID(ctx)
	logger.InfoContext(ctx, "Starting HPV vaccination load",
		slog.String("version", contracts.Version),
		slog.String("commit", contracts.GitCommit),
		slog.String("source_dir", cfg.Source.Dir),
		slog.String("destination", cfg.Destination()),
		slog.String("mode", cfg.Load.Mode))

	providers, err := infrastructure.InitializeOTel(cfg.Telemetry, logger)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to initialize OpenTelemetry", slog.String("error", err.Error()))
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			logger.Warn("OpenTelemetry shutdown failed", slog.String("error", err.Error()))
		}
	}()

	runner, err := app.NewRunner(cfg, logger, providers)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to create runner", slog.String("error", err.Error()))
		return 1
	}

	req, err := app.RequestFromConfig(cfg)
	if err != nil {
		logger.ErrorContext(ctx, "Invalid run request", slog.String("error", err.Error()))
		return 1
	}

	report, runErr := runner.Run(ctx, req)

	if err := providers.WriteTextfile(); err != nil {
		logger.WarnContext(ctx, "Failed to write metrics textfile", slog.String("error", err.Error()))
	}

	if runErr != nil {
		if loadErr, ok := apperrors.AsLoadError(runErr); ok {
			logger.ErrorContext(ctx, "Load failed",
				slog.String("class", string(loadErr.Class)),
				slog.String("outcome", string(loadErr.Outcome)),
				slog.String("destination", loadErr.Destination))
		}
		return 1
	}

	rowsLoaded := 0
	if report.Load != nil {
		rowsLoaded = report.Load.RowsWritten
	}
	logger.InfoContext(ctx, "HPV vaccination load finished",
		slog.Int("sources", len(report.Sources)),
		slog.Int("rows_extracted", report.RowsExtracted),
		slog.Int("rows_loaded", rowsLoaded),
		slog.Bool("dry_run", req.DryRun),
		slog.String("mode", string(req.Mode)))
	return 0
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
