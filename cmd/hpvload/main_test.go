package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hpvload/internal/config"
	apperrors "hpvload/internal/errors"
	"hpvload/internal/infrastructure"
	"hpvload/internal/shared/testutil"
	"hpvload/internal/warehouse"
	"hpvload/pkg/contracts"
)

const configTemplate = `source:
  dir: %s
warehouse:
  driver: sqlite
  sqlite_path: %s
  database: ANALYTICS
  schema: PUBLIC
  table: HPV_VACCINATION
  batch_size: 10
logging:
  level: error
  output: console
telemetry:
  trace_exporter: none
  enable_metrics: true
  metrics_textfile: %s
`

type fixture struct {
	root       string
	configFile string
	dbPath     string
	textfile   string
}

func setupFixture(t *testing.T) fixture {
	t.Helper()
	t.Cleanup(infrastructure.ResetLoggerForTesting)

	root := t.TempDir()
	sourceDir := filepath.Join(root, "data")
	require.NoError(t, os.MkdirAll(sourceDir, 0755))
	testutil.WriteRelease(t, sourceDir, "hpv_2023.xlsx", testutil.StandardRelease())

	f := fixture{
		root:       root,
		configFile: filepath.Join(root, "hpvload.yaml"),
		dbPath:     filepath.Join(root, "warehouse.db"),
		textfile:   filepath.Join(root, "hpvload.prom"),
	}
	content := fmt.Sprintf(configTemplate, sourceDir, f.dbPath, f.textfile)
	require.NoError(t, os.WriteFile(f.configFile, []byte(content), 0644))

	loader, err := warehouse.Open(context.Background(), config.WarehouseConfig{
		Driver: warehouse.DriverSQLite, SQLitePath: f.dbPath, Table: "HPV_VACCINATION",
	}, nil)
	require.NoError(t, err)
	_, err = loader.DB().Exec(`CREATE TABLE HPV_VACCINATION (
		BOROUGH_NAME TEXT, YEAR_GROUP_NUMBER TEXT, GENDER_NAME TEXT,
		STUDENTS_TOTAL INTEGER, STUDENTS_VACCINATED INTEGER,
		ACADEMIC_YEAR_END_DATE TEXT, ACADEMIC_YEAR_TEXT TEXT, DATE_EXTRACT TEXT)`)
	require.NoError(t, err)
	require.NoError(t, loader.Close())

	return f
}

func (f fixture) rows(t *testing.T, table string) int64 {
	t.Helper()
	loader, err := warehouse.Open(context.Background(), config.WarehouseConfig{
		Driver: warehouse.DriverSQLite, SQLitePath: f.dbPath, Table: table,
	}, nil)
	require.NoError(t, err)
	defer loader.Close()

	n, err := loader.Count(context.Background(), warehouse.Destination{Table: table})
	require.NoError(t, err)
	return n
}

func TestRun(t *testing.T) {
	tests := []struct {
		name     string
		args     func(f fixture) []string
		wantCode int
		wantRows int64
	}{
		{
			name:     "replace load",
			args:     func(f fixture) []string { return []string{"-config", f.configFile} },
			wantCode: 0,
			wantRows: 17,
		},
		{
			name: "dry run with export",
			args: func(f fixture) []string {
				return []string{"-config", f.configFile, "-dry-run", "-export", filepath.Join(f.root, "out.csv")}
			},
			wantCode: 0,
			wantRows: 0,
		},
		{
			name:     "no matching sources",
			args:     func(f fixture) []string { return []string{"-config", f.configFile, "-pattern", "*.xls"} },
			wantCode: 1,
		},
		{
			name: "destination table missing",
			args: func(f fixture) []string {
				return []string{"-config", f.configFile, "-dest", "ANALYTICS.PUBLIC.ABSENT"}
			},
			wantCode: 1,
		},
		{
			name:     "invalid destination",
			args:     func(f fixture) []string { return []string{"-config", f.configFile, "-dest", "PUBLIC.HPV"} },
			wantCode: 1,
		},
		{
			name:     "invalid mode",
			args:     func(f fixture) []string { return []string{"-config", f.configFile, "-mode", "merge"} },
			wantCode: 1,
		},
		{
			name:     "unknown flag",
			args:     func(f fixture) []string { return []string{"-bogus"} },
			wantCode: 2,
		},
		{
			name:     "help",
			args:     func(f fixture) []string { return []string{"-h"} },
			wantCode: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setupFixture(t)
			var stderr bytes.Buffer

			code := run(context.Background(), tt.args(f), &bytes.Buffer{}, &stderr)
			assert.Equal(t, tt.wantCode, code, stderr.String())
			assert.Equal(t, tt.wantRows, f.rows(t, "HPV_VACCINATION"))
		})
	}
}

func TestRun_WritesMetricsTextfile(t *testing.T) {
	f := setupFixture(t)

	code := run(context.Background(), []string{"-config", f.configFile}, &bytes.Buffer{}, &bytes.Buffer{})
	require.Equal(t, 0, code)

	content, err := os.ReadFile(f.textfile)
	require.NoError(t, err)
	assert.Contains(t, string(content), "hpvload_rows_loaded_total")
}

func TestRun_AppendAfterReplace(t *testing.T) {
	f := setupFixture(t)

	require.Equal(t, 0, run(context.Background(), []string{"-config", f.configFile}, &bytes.Buffer{}, &bytes.Buffer{}))
	require.Equal(t, 0, run(context.Background(), []string{"-config", f.configFile, "-mode", "append"}, &bytes.Buffer{}, &bytes.Buffer{}))
	assert.EqualValues(t, 34, f.rows(t, "HPV_VACCINATION"))
}

func TestRun_Version(t *testing.T) {
	var stdout bytes.Buffer
	code := run(context.Background(), []string{"-version"}, &stdout, &bytes.Buffer{})
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout.String(), contracts.GetVersionString())
}

func TestLoadConfig_Overrides(t *testing.T) {
	f := setupFixture(t)

	cfg, err := loadConfig(options{
		configFile: f.configFile,
		pattern:    "hpv_*.xlsx",
		mode:       "APPEND",
		dest:       "WAREHOUSE.STAGING.HPV",
		dryRun:     true,
	})
	require.NoError(t, err)
	assert.Equal(t, "hpv_*.xlsx", cfg.Source.Pattern)
	assert.Equal(t, "append", cfg.Load.Mode)
	assert.True(t, cfg.Load.DryRun)
	assert.Equal(t, "WAREHOUSE.STAGING.HPV", cfg.Destination())

	_, err = loadConfig(options{configFile: filepath.Join(f.root, "absent.yaml")})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConfig))
}
