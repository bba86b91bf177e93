package warehouse

import (
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	apperrors "hpvload/internal/errors"
)

// Driver names registered with database/sql
const (
	DriverSnowflake = "snowflake"
	DriverSQLite    = "sqlite"
)

func init() {
	// Both drivers bind with "?" but sqlx only knows them under other names.
	sqlx.BindDriver(DriverSnowflake, sqlx.QUESTION)
	sqlx.BindDriver(DriverSQLite, sqlx.QUESTION)
}

// Dialect renders the statements a load needs for one warehouse
type Dialect interface {
	Name() string
	Validate(dest Destination) error
	QualifiedName(dest Destination) string
	ColumnsQuery(dest Destination) (string, []any)
	ClearStatement(dest Destination) string
}

// DialectFor returns the dialect for a configured driver
func DialectFor(driver string) (Dialect, error) {
	switch strings.ToLower(driver) {
	case DriverSnowflake:
		return Snowflake{}, nil
	case DriverSQLite:
		return SQLite{}, nil
	}
	return nil, apperrors.NewConfigError(fmt.Sprintf("unsupported warehouse driver %q", driver), nil)
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// Snowflake addresses tables by database, schema and table
type Snowflake struct{}

func (Snowflake) Name() string { return DriverSnowflake }

func (Snowflake) Validate(dest Destination) error {
	if dest.Catalog == "" || dest.Schema == "" || dest.Table == "" {
		return apperrors.NewConfigError(fmt.Sprintf("snowflake destination %q needs database, schema and table", dest), nil)
	}
	return nil
}

func (Snowflake) QualifiedName(dest Destination) string {
	return quoteIdent(dest.Catalog) + "." + quoteIdent(dest.Schema) + "." + quoteIdent(dest.Table)
}

func (Snowflake) ColumnsQuery(dest Destination) (string, []any) {
	q := fmt.Sprintf(
		"SELECT COLUMN_NAME FROM %s.INFORMATION_SCHEMA.COLUMNS WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ? ORDER BY ORDINAL_POSITION",
		quoteIdent(dest.Catalog))
	return q, []any{dest.Schema, dest.Table}
}

// ClearStatement deletes rather than truncates so the clear is part of the
// surrounding transaction.
func (s Snowflake) ClearStatement(dest Destination) string {
	return "DELETE FROM " + s.QualifiedName(dest)
}

// SQLite writes to a single table in a local database file. Catalog and
// schema are carried for logging only.
type SQLite struct{}

func (SQLite) Name() string { return DriverSQLite }

func (SQLite) Validate(dest Destination) error {
	if dest.Table == "" {
		return apperrors.NewConfigError("sqlite destination needs a table", nil)
	}
	return nil
}

func (SQLite) QualifiedName(dest Destination) string {
	return quoteIdent(dest.Table)
}

func (SQLite) ColumnsQuery(dest Destination) (string, []any) {
	return "SELECT name FROM pragma_table_info(?) ORDER BY cid", []any{dest.Table}
}

func (s SQLite) ClearStatement(dest Destination) string {
	return "DELETE FROM " + s.QualifiedName(dest)
}
