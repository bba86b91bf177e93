package warehouse

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"hpvload/internal/config"
	apperrors "hpvload/internal/errors"
	"hpvload/pkg/contracts/domain"
)

// LoadResult reports what a successful load wrote
type LoadResult struct {
	Destination string
	Mode        domain.LoadMode
	RowsWritten int
	Chunks      int
	Duration    time.Duration
}

// Loader writes fact tables to a warehouse table
type Loader struct {
	db        *sqlx.DB
	dialect   Dialect
	batchSize int
	logger    *slog.Logger
}

// NewLoader wraps an open connection
func NewLoader(db *sqlx.DB, dialect Dialect, batchSize int, logger *slog.Logger) *Loader {
	if batchSize <= 0 {
		batchSize = config.DefaultBatchSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		db:        db,
		dialect:   dialect,
		batchSize: batchSize,
		logger:    logger.With(slog.String("component", "loader")),
	}
}

// DB exposes the underlying connection
func (l *Loader) DB() *sqlx.DB {
	return l.db
}

// Close closes the connection
func (l *Loader) Close() error {
	return l.db.Close()
}

// Load writes table to dest. In replace mode the clear and every insert run
// in one transaction, so a failure leaves the prior contents in place. Errors
// are *errors.LoadError values carrying the failure class and the state the
// destination was left in.
func (l *Loader) Load(ctx context.Context, table *domain.FactTable, dest Destination, mode domain.LoadMode) (LoadResult, error) {
	start := time.Now()
	result := LoadResult{Destination: dest.String(), Mode: mode}

	fail := func(class apperrors.LoadClass, outcome apperrors.LoadOutcome, err error) (LoadResult, error) {
		loadErr := apperrors.NewLoadError(class, outcome, dest.String(), string(mode), err)
		l.logger.ErrorContext(ctx, "Data ingestion failed",
			slog.String("destination", dest.String()),
			slog.String("mode", string(mode)),
			slog.String("class", string(class)),
			slog.String("outcome", string(outcome)),
			slog.String("error", err.Error()))
		return result, loadErr
	}

	if mode != domain.LoadModeReplace && mode != domain.LoadModeAppend {
		return fail(apperrors.LoadClassSchema, apperrors.OutcomeNotStarted, fmt.Errorf("unknown load mode %q", mode))
	}
	if err := l.dialect.Validate(dest); err != nil {
		return fail(apperrors.LoadClassSchema, apperrors.OutcomeNotStarted, err)
	}
	if table.Len() == 0 {
		if mode == domain.LoadModeReplace {
			return fail(apperrors.LoadClassSchema, apperrors.OutcomeNotStarted, errors.New("refusing to replace destination with an empty dataset"))
		}
		l.logger.WarnContext(ctx, "Nothing to append", slog.String("destination", dest.String()))
		return result, nil
	}

	header := table.Header()
	if err := l.checkColumns(ctx, dest, header); err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) && appErr.Type == apperrors.ErrTypeSchema {
			return fail(apperrors.LoadClassSchema, apperrors.OutcomeNotStarted, err)
		}
		return fail(apperrors.LoadClassConnectivity, apperrors.OutcomeNotStarted, err)
	}

	tx, err := l.db.BeginTxx(ctx, nil)
	if err != nil {
		return fail(apperrors.LoadClassConnectivity, apperrors.OutcomeNotStarted, fmt.Errorf("begin transaction: %w", err))
	}
	finished := false
	defer func() {
		if !finished {
			_ = tx.Rollback()
		}
	}()

	rollback := func(class apperrors.LoadClass, err error) (LoadResult, error) {
		outcome := apperrors.OutcomeRolledBack
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			outcome = apperrors.OutcomeUnknown
			err = fmt.Errorf("%w (rollback: %v)", err, rbErr)
		}
		finished = true
		result.RowsWritten, result.Chunks = 0, 0
		return fail(class, outcome, err)
	}

	if mode == domain.LoadModeReplace {
		if _, err := tx.ExecContext(ctx, l.dialect.ClearStatement(dest)); err != nil {
			return rollback(apperrors.LoadClassWrite, fmt.Errorf("clear destination: %w", err))
		}
		l.logger.DebugContext(ctx, "Destination cleared", slog.String("destination", dest.String()))
	}

	written, chunks, err := l.insert(ctx, tx, table, dest, header)
	result.RowsWritten, result.Chunks = written, chunks
	if err != nil {
		return rollback(apperrors.LoadClassWrite, err)
	}

	finished = true
	if err := tx.Commit(); err != nil {
		result.RowsWritten, result.Chunks = 0, 0
		return fail(apperrors.LoadClassCommit, apperrors.OutcomeUnknown, fmt.Errorf("commit: %w", err))
	}
	result.Duration = time.Since(start)

	l.logger.InfoContext(ctx, "Upload complete",
		slog.String("destination", dest.String()),
		slog.String("mode", string(mode)),
		slog.Int("rows", result.RowsWritten),
		slog.Int("chunks", result.Chunks),
		slog.Duration("duration", result.Duration))

	return result, nil
}

// insert writes the table in chunks of batchSize rows with one prepared
// multi-row statement per chunk size
func (l *Loader) insert(ctx context.Context, tx *sqlx.Tx, table *domain.FactTable, dest Destination, header []string) (int, int, error) {
	stmts := make(map[int]*sqlx.Stmt)
	defer func() {
		for _, stmt := range stmts {
			stmt.Close()
		}
	}()

	written, chunks := 0, 0
	for start := 0; start < len(table.Rows); start += l.batchSize {
		end := start + l.batchSize
		if end > len(table.Rows) {
			end = len(table.Rows)
		}
		n := end - start

		stmt, ok := stmts[n]
		if !ok {
			var err error
			stmt, err = tx.PreparexContext(ctx, tx.Rebind(l.insertStatement(dest, header, n)))
			if err != nil {
				return written, chunks, fmt.Errorf("prepare insert: %w", err)
			}
			stmts[n] = stmt
		}

		args := make([]any, 0, n*len(header))
		for _, row := range table.Rows[start:end] {
			args = append(args, table.Values(row)...)
		}

		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return written, chunks, fmt.Errorf("insert rows %d-%d: %w", start+1, end, err)
		}

		written += n
		chunks++
		l.logger.DebugContext(ctx, "Chunk written",
			slog.Int("chunk", chunks),
			slog.Int("rows", n),
			slog.Int("written", written))
	}

	return written, chunks, nil
}

func (l *Loader) insertStatement(dest Destination, header []string, rows int) string {
	cols := make([]string, len(header))
	for i, h := range header {
		cols[i] = quoteIdent(h)
	}
	tuple := "(" + strings.TrimSuffix(strings.Repeat("?, ", len(header)), ", ") + ")"

	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(l.dialect.QualifiedName(dest))
	b.WriteString(" (")
	b.WriteString(strings.Join(cols, ", "))
	b.WriteString(") VALUES ")
	for i := 0; i < rows; i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(tuple)
	}
	return b.String()
}

// checkColumns verifies, case-insensitively, that dest has every column in header
func (l *Loader) checkColumns(ctx context.Context, dest Destination, header []string) error {
	query, args := l.dialect.ColumnsQuery(dest)

	var existing []string
	if err := l.db.SelectContext(ctx, &existing, l.db.Rebind(query), args...); err != nil {
		return fmt.Errorf("read destination columns: %w", err)
	}
	if len(existing) == 0 {
		return apperrors.NewSchemaError(fmt.Sprintf("destination table %s not found", dest), nil)
	}

	have := make(map[string]bool, len(existing))
	for _, c := range existing {
		have[strings.ToUpper(c)] = true
	}

	var missing []string
	for _, h := range header {
		if !have[strings.ToUpper(h)] {
			missing = append(missing, h)
		}
	}
	if len(missing) > 0 {
		return apperrors.NewSchemaError(
			fmt.Sprintf("destination %s is missing columns %s", dest, strings.Join(missing, ", ")), nil).
			WithContext("existing", existing)
	}
	return nil
}

// Count returns the number of rows in dest
func (l *Loader) Count(ctx context.Context, dest Destination) (int64, error) {
	var n int64
	if err := l.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM "+l.dialect.QualifiedName(dest)); err != nil {
		return 0, fmt.Errorf("count %s: %w", dest, err)
	}
	return n, nil
}
