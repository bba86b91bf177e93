package dataprocessing

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	apperrors "hpvload/internal/errors"
	"hpvload/pkg/contracts/domain"
)

// Transformer turns a batch of releases into one fact table
type Transformer struct {
	opts    Options
	layout  *Layout
	columns domain.Columns
	logger  *slog.Logger
	now     func() time.Time
}

// NewTransformer validates opts and builds a transformer
func NewTransformer(opts Options, logger *slog.Logger) (*Transformer, error) {
	if logger == nil {
		logger = slog.Default()
	}

	layout, err := NewLayout(opts.Classifier, opts.RegionColumn)
	if err != nil {
		return nil, err
	}

	columns, err := domain.ColumnsFor(opts.Naming)
	if err != nil {
		return nil, apperrors.NewConfigError("invalid naming convention", err)
	}

	return &Transformer{
		opts:    opts,
		layout:  layout,
		columns: columns,
		logger:  logger.With(slog.String("component", "transformer")),
		now:     time.Now,
	}, nil
}

// WithClock replaces the clock used for the extract date
func (t *Transformer) WithClock(now func() time.Time) *Transformer {
	t.now = now
	return t
}

// Transform reads every source in order and builds the combined table:
// base rows, then Both gender rollups, then All year rollups. The first
// failing source aborts the batch.
func (t *Transformer) Transform(ctx context.Context, paths []string) (*domain.FactTable, error) {
	if len(paths) == 0 {
		return nil, apperrors.NewSchemaError("no source files to transform", nil)
	}

	now := t.now()
	extractDate := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	var base []domain.FactRow
	dropped := 0
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rows, skipped, err := t.transformSource(ctx, path, extractDate)
		if err != nil {
			return nil, fmt.Errorf("transform %s: %w", filepath.Base(path), err)
		}
		base = append(base, rows...)
		dropped += skipped
	}

	final := base
	var both, all []domain.FactRow
	if t.opts.IncludeBothGender {
		both = RollupGenders(base)
		final = append(final, both...)
	}
	if t.opts.IncludeAllYears {
		all = RollupYears(final)
		final = append(final, all...)
	}

	t.checkCohorts(ctx, final)

	t.logger.InfoContext(ctx, "Transform complete",
		slog.Int("sources", len(paths)),
		slog.Int("base_rows", len(base)),
		slog.Int("both_rows", len(both)),
		slog.Int("all_rows", len(all)),
		slog.Int("dropped_rows", dropped),
		slog.Int("total_rows", len(final)))

	return &domain.FactTable{Columns: t.columns, Rows: final}, nil
}

// transformSource returns the base rows of one release and the number of
// incomplete rows dropped
func (t *Transformer) transformSource(ctx context.Context, path string, extractDate time.Time) ([]domain.FactRow, int, error) {
	sheet, err := ReadWorkbook(path, t.opts)
	if err != nil {
		return nil, 0, err
	}

	layout, err := t.layout.Classify(sheet.Headers)
	if err != nil {
		return nil, 0, err
	}

	period, err := ParsePeriod(sheet.Metadata)
	if err != nil {
		return nil, 0, err
	}
	if period.Text == nil {
		t.logger.WarnContext(ctx, "Reporting period phrase not found in metadata cell",
			slog.String("path", path),
			slog.String("metadata", sheet.Metadata))
	}

	pivoted, err := Reshape(sheet, layout)
	if err != nil {
		return nil, 0, err
	}

	rows := make([]domain.FactRow, 0, len(pivoted))
	for _, p := range pivoted {
		if !p.Keep(t.opts.KeepSuppressed) {
			continue
		}
		rows = append(rows, domain.FactRow{
			Region:      p.Region,
			YearGroup:   p.YearGroup,
			Gender:      p.Gender,
			Total:       p.Total.Count,
			Vaccinated:  p.Vaccinated.Count,
			PeriodEnd:   period.End,
			PeriodText:  period.Text,
			ExtractDate: extractDate,
		})
	}

	t.logger.InfoContext(ctx, "Source transformed",
		slog.String("path", path),
		slog.String("period_end", period.End),
		slog.Int("measure_columns", len(layout.Columns)),
		slog.Int("excluded_columns", len(layout.Excluded)),
		slog.Int("rows", len(rows)),
		slog.Int("dropped", len(pivoted)-len(rows)))

	return rows, len(pivoted) - len(rows), nil
}

// checkCohorts warns about rows reporting more vaccinated than the cohort
func (t *Transformer) checkCohorts(ctx context.Context, rows []domain.FactRow) {
	for _, r := range rows {
		if r.Complete() && r.Vaccinated.Value > r.Total.Value {
			t.logger.WarnContext(ctx, "Vaccinated count exceeds cohort",
				slog.String("region", r.Region),
				slog.String("year_group", r.YearGroup),
				slog.String("gender", string(r.Gender)),
				slog.Int64("total", r.Total.Value),
				slog.Int64("vaccinated", r.Vaccinated.Value))
		}
	}
}
