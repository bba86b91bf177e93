package warehouse

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/snowflakedb/gosnowflake"
	_ "modernc.org/sqlite"

	"hpvload/internal/config"
	apperrors "hpvload/internal/errors"
)

// Open connects to the configured warehouse and returns a loader for it.
// Connection failures are classified as connectivity load errors.
func Open(ctx context.Context, cfg config.WarehouseConfig, logger *slog.Logger) (*Loader, error) {
	if logger == nil {
		logger = slog.Default()
	}

	dialect, err := DialectFor(cfg.Driver)
	if err != nil {
		return nil, err
	}

	var dsn string
	switch dialect.Name() {
	case DriverSnowflake:
		dsn, err = SnowflakeDSN(cfg)
	case DriverSQLite:
		dsn = SQLiteDSN(cfg.SQLitePath)
	}
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Open(dialect.Name(), dsn)
	if err != nil {
		return nil, apperrors.NewLoadError(apperrors.LoadClassConnectivity, apperrors.OutcomeNotStarted,
			DestinationFromConfig(cfg).String(), "", fmt.Errorf("open %s: %w", dialect.Name(), err))
	}

	if dialect.Name() == DriverSQLite {
		// one writer; a second connection would see the database locked
		db.SetMaxOpenConns(1)
	}

	timeout := cfg.LoginTimeout
	if timeout <= 0 {
		timeout = config.DefaultLoginTimeout
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, apperrors.NewLoadError(apperrors.LoadClassConnectivity, apperrors.OutcomeNotStarted,
			DestinationFromConfig(cfg).String(), "", fmt.Errorf("ping %s: %w", dialect.Name(), err))
	}

	logger.InfoContext(ctx, "Connected to warehouse",
		slog.String("driver", dialect.Name()),
		slog.String("destination", DestinationFromConfig(cfg).String()))

	return NewLoader(db, dialect, cfg.BatchSize, logger), nil
}

var authenticators = map[string]gosnowflake.AuthType{
	"":                      gosnowflake.AuthTypeSnowflake,
	"snowflake":             gosnowflake.AuthTypeSnowflake,
	"externalbrowser":       gosnowflake.AuthTypeExternalBrowser,
	"oauth":                 gosnowflake.AuthTypeOAuth,
	"snowflake_jwt":         gosnowflake.AuthTypeJwt,
	"username_password_mfa": gosnowflake.AuthTypeUsernamePasswordMFA,
}

// SnowflakeDSN builds the gosnowflake connection string from the warehouse settings
func SnowflakeDSN(cfg config.WarehouseConfig) (string, error) {
	auth, ok := authenticators[strings.ToLower(cfg.Authenticator)]
	if !ok {
		return "", apperrors.NewConfigError(fmt.Sprintf("unsupported snowflake authenticator %q", cfg.Authenticator), nil)
	}

	sfCfg := &gosnowflake.Config{
		Account:       cfg.Account,
		User:          cfg.User,
		Password:      cfg.Password,
		Database:      cfg.Database,
		Schema:        cfg.Schema,
		Warehouse:     cfg.Warehouse,
		Role:          cfg.Role,
		Authenticator: auth,
		LoginTimeout:  cfg.LoginTimeout,
		Application:   config.AppName,
	}
	if sfCfg.LoginTimeout <= 0 {
		sfCfg.LoginTimeout = config.DefaultLoginTimeout
	}

	dsn, err := gosnowflake.DSN(sfCfg)
	if err != nil {
		return "", apperrors.NewConfigError("invalid snowflake connection settings", err)
	}
	return dsn, nil
}

// SQLiteDSN returns a modernc sqlite DSN with a busy timeout
func SQLiteDSN(path string) string {
	return fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)", path, (5 * time.Second).Milliseconds())
}
