package warehouse

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hpvload/internal/config"
	apperrors "hpvload/internal/errors"
	"hpvload/internal/shared/testutil"
	"hpvload/pkg/contracts/domain"
)

const factDDL = `CREATE TABLE %s (
	BOROUGH_NAME TEXT NOT NULL,
	YEAR_GROUP_NUMBER TEXT NOT NULL,
	GENDER_NAME TEXT NOT NULL,
	STUDENTS_TOTAL INTEGER CHECK (STUDENTS_TOTAL >= 0),
	STUDENTS_VACCINATED INTEGER,
	ACADEMIC_YEAR_END_DATE TEXT,
	ACADEMIC_YEAR_TEXT TEXT,
	DATE_EXTRACT TEXT
)`

var testDest = Destination{Catalog: "ANALYTICS", Schema: "PUBLIC", Table: "HPV_VACCINATION"}

func openTestLoader(t *testing.T, batchSize int) *Loader {
	t.Helper()

	logger, _ := testutil.NewTestLogger(t)
	loader, err := Open(context.Background(), config.WarehouseConfig{
		Driver:     DriverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "warehouse.db"),
		Database:   testDest.Catalog,
		Schema:     testDest.Schema,
		Table:      testDest.Table,
		BatchSize:  batchSize,
	}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { loader.Close() })

	_, err = loader.DB().Exec(fmt.Sprintf(factDDL, testDest.Table))
	require.NoError(t, err)
	return loader
}

// makeTable returns n distinct rows; the region prefix keeps batches apart
func makeTable(prefix string, n int) *domain.FactTable {
	text := "September 2022 to August 2023"
	rows := make([]domain.FactRow, n)
	for i := range rows {
		rows[i] = domain.FactRow{
			Region:      fmt.Sprintf("%s %03d", prefix, i),
			YearGroup:   "8",
			Gender:      domain.GenderFemale,
			Total:       domain.NewCount(int64(100 + i)),
			Vaccinated:  domain.NewCount(int64(90 + i)),
			PeriodEnd:   "2023",
			PeriodText:  &text,
			ExtractDate: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		}
	}
	return &domain.FactTable{Columns: domain.AcademicColumns, Rows: rows}
}

func count(t *testing.T, l *Loader) int64 {
	t.Helper()
	n, err := l.Count(context.Background(), testDest)
	require.NoError(t, err)
	return n
}

func seed(t *testing.T, l *Loader, n int) {
	t.Helper()
	_, err := l.Load(context.Background(), makeTable("Seed", n), testDest, domain.LoadModeAppend)
	require.NoError(t, err)
	require.EqualValues(t, n, count(t, l))
}

func TestLoad_ReplaceSucceeds(t *testing.T) {
	loader := openTestLoader(t, 20)
	seed(t, loader, 100)

	result, err := loader.Load(context.Background(), makeTable("New", 50), testDest, domain.LoadModeReplace)
	require.NoError(t, err)

	assert.Equal(t, 50, result.RowsWritten)
	assert.Equal(t, 3, result.Chunks)
	assert.Equal(t, "ANALYTICS.PUBLIC.HPV_VACCINATION", result.Destination)
	assert.Equal(t, domain.LoadModeReplace, result.Mode)
	assert.EqualValues(t, 50, count(t, loader))

	var seeded int
	require.NoError(t, loader.DB().Get(&seeded, `SELECT COUNT(*) FROM "HPV_VACCINATION" WHERE BOROUGH_NAME LIKE 'Seed%'`))
	assert.Zero(t, seeded)
}

func TestLoad_ReplaceFailureKeepsPriorRows(t *testing.T) {
	loader := openTestLoader(t, 10)
	seed(t, loader, 100)

	table := makeTable("New", 50)
	table.Rows[37].Total = domain.NewCount(-1) // violates the CHECK constraint in the fourth chunk

	result, err := loader.Load(context.Background(), table, testDest, domain.LoadModeReplace)
	require.Error(t, err)

	loadErr, ok := apperrors.AsLoadError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.LoadClassWrite, loadErr.Class)
	assert.Equal(t, apperrors.OutcomeRolledBack, loadErr.Outcome)
	assert.Equal(t, "replace", loadErr.Mode)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeLoad))
	assert.Zero(t, result.RowsWritten)

	assert.EqualValues(t, 100, count(t, loader), "the clear is rolled back with the failed insert")
}

func TestLoad_Append(t *testing.T) {
	loader := openTestLoader(t, 1000)
	seed(t, loader, 100)

	result, err := loader.Load(context.Background(), makeTable("New", 50), testDest, domain.LoadModeAppend)
	require.NoError(t, err)
	assert.Equal(t, 50, result.RowsWritten)
	assert.Equal(t, 1, result.Chunks)
	assert.EqualValues(t, 150, count(t, loader))
}

func TestLoad_AppendFailureWritesNothing(t *testing.T) {
	loader := openTestLoader(t, 10)
	seed(t, loader, 100)

	table := makeTable("New", 50)
	table.Rows[45].Total = domain.NewCount(-5)

	_, err := loader.Load(context.Background(), table, testDest, domain.LoadModeAppend)
	require.Error(t, err)
	assert.EqualValues(t, 100, count(t, loader))
}

func TestLoad_NullMeasures(t *testing.T) {
	loader := openTestLoader(t, 10)

	table := makeTable("Null", 3)
	table.Rows[1].Vaccinated = domain.NullCount()
	table.Rows[2].PeriodText = nil

	_, err := loader.Load(context.Background(), table, testDest, domain.LoadModeReplace)
	require.NoError(t, err)

	var nullVaccinated, nullText int
	require.NoError(t, loader.DB().Get(&nullVaccinated, `SELECT COUNT(*) FROM "HPV_VACCINATION" WHERE STUDENTS_VACCINATED IS NULL`))
	require.NoError(t, loader.DB().Get(&nullText, `SELECT COUNT(*) FROM "HPV_VACCINATION" WHERE ACADEMIC_YEAR_TEXT IS NULL`))
	assert.Equal(t, 1, nullVaccinated, "null is stored as NULL, not zero")
	assert.Equal(t, 1, nullText)

	var extract string
	require.NoError(t, loader.DB().Get(&extract, `SELECT DATE_EXTRACT FROM "HPV_VACCINATION" LIMIT 1`))
	assert.Equal(t, "2024-03-01", extract)
}

func TestLoad_SchemaErrors(t *testing.T) {
	tests := []struct {
		name  string
		setup string
		dest  Destination
	}{
		{
			name:  "missing table",
			dest:  Destination{Catalog: "ANALYTICS", Schema: "PUBLIC", Table: "ABSENT"},
			setup: "",
		},
		{
			name:  "missing column",
			dest:  Destination{Catalog: "ANALYTICS", Schema: "PUBLIC", Table: "NARROW"},
			setup: `CREATE TABLE NARROW (BOROUGH_NAME TEXT, YEAR_GROUP_NUMBER TEXT)`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loader := openTestLoader(t, 10)
			if tt.setup != "" {
				_, err := loader.DB().Exec(tt.setup)
				require.NoError(t, err)
			}

			_, err := loader.Load(context.Background(), makeTable("New", 5), tt.dest, domain.LoadModeReplace)
			require.Error(t, err)

			loadErr, ok := apperrors.AsLoadError(err)
			require.True(t, ok)
			assert.Equal(t, apperrors.LoadClassSchema, loadErr.Class)
			assert.Equal(t, apperrors.OutcomeNotStarted, loadErr.Outcome)
		})
	}
}

func TestLoad_ColumnMatchIsCaseInsensitive(t *testing.T) {
	loader := openTestLoader(t, 10)
	_, err := loader.DB().Exec(`CREATE TABLE lower_case (
		borough_name TEXT, year_group_number TEXT, gender_name TEXT,
		students_total INTEGER, students_vaccinated INTEGER,
		academic_year_end_date TEXT, academic_year_text TEXT, date_extract TEXT)`)
	require.NoError(t, err)

	dest := Destination{Catalog: "ANALYTICS", Schema: "PUBLIC", Table: "lower_case"}
	result, err := loader.Load(context.Background(), makeTable("New", 12), dest, domain.LoadModeAppend)
	require.NoError(t, err)
	assert.Equal(t, 12, result.RowsWritten)
	assert.Equal(t, 2, result.Chunks)

	n, err := loader.Count(context.Background(), dest)
	require.NoError(t, err)
	assert.EqualValues(t, 12, n)
}

func TestLoad_EmptyDataset(t *testing.T) {
	loader := openTestLoader(t, 10)
	seed(t, loader, 10)

	empty := &domain.FactTable{Columns: domain.AcademicColumns}

	_, err := loader.Load(context.Background(), empty, testDest, domain.LoadModeReplace)
	require.Error(t, err)
	loadErr, ok := apperrors.AsLoadError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.OutcomeNotStarted, loadErr.Outcome)

	result, err := loader.Load(context.Background(), empty, testDest, domain.LoadModeAppend)
	require.NoError(t, err)
	assert.Zero(t, result.RowsWritten)

	assert.EqualValues(t, 10, count(t, loader))
}

func TestLoad_UnknownMode(t *testing.T) {
	loader := openTestLoader(t, 10)
	_, err := loader.Load(context.Background(), makeTable("New", 1), testDest, domain.LoadMode("merge"))
	require.Error(t, err)
	loadErr, ok := apperrors.AsLoadError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.OutcomeNotStarted, loadErr.Outcome)
}

func TestOpen_Unreachable(t *testing.T) {
	_, err := Open(context.Background(), config.WarehouseConfig{
		Driver:     DriverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "missing", "dir", "warehouse.db"),
		Table:      "HPV",
	}, nil)
	require.Error(t, err)

	loadErr, ok := apperrors.AsLoadError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.LoadClassConnectivity, loadErr.Class)
	assert.Equal(t, apperrors.OutcomeNotStarted, loadErr.Outcome)
}

func TestInsertStatement(t *testing.T) {
	l := &Loader{dialect: Snowflake{}}
	got := l.insertStatement(testDest, []string{"A", "B"}, 2)
	assert.Equal(t, `INSERT INTO "ANALYTICS"."PUBLIC"."HPV_VACCINATION" ("A", "B") VALUES (?, ?), (?, ?)`, got)
}
