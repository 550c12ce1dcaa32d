package database

import (
	"context"
	"database/sql"
	"fmt"

	// Register the pure Go SQLite driver under the name "sqlite"
	_ "modernc.org/sqlite"

	"github.com/gaborage/sqlbricks/config"
	"github.com/gaborage/sqlbricks/database/oracle"
	"github.com/gaborage/sqlbricks/database/postgresql"
	"github.com/gaborage/sqlbricks/database/types"
	"github.com/gaborage/sqlbricks/logger"
)

const sqliteDriverName = "sqlite"

// Open opens a connection according to cfg. The driver is selected by cfg.Type
// (supported: "postgresql", "oracle", "sqlite"). An unconfigured database yields a
// not-configured *config.ConfigError; an unsupported type yields ErrUnsupportedVendor.
func Open(ctx context.Context, cfg *config.DatabaseConfig, log logger.Logger) (*Connection, error) {
	if cfg == nil || !config.IsDatabaseConfigured(cfg) {
		return nil, config.NewNotConfiguredError("database", "database.type")
	}

	var (
		db  *sql.DB
		err error
	)

	switch cfg.Type {
	case PostgreSQL:
		db, err = postgresql.Open(ctx, cfg, log)
	case Oracle:
		db, err = oracle.Open(ctx, cfg, log)
	case SQLite:
		db, err = openSQLite(ctx, cfg, log)
	default:
		return nil, fmt.Errorf("%w: %s (supported: %v)", ErrUnsupportedVendor, cfg.Type, GetSupportedDatabaseTypes())
	}

	if err != nil {
		return nil, err
	}
	return NewConnection(db, cfg.Type), nil
}

func openSQLite(ctx context.Context, cfg *config.DatabaseConfig, log logger.Logger) (*sql.DB, error) {
	dsn := cfg.ConnectionString
	if dsn == "" {
		dsn = cfg.Database
	}

	db, err := sql.Open(sqliteDriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	if cfg.Pool.Max.Connections > 0 {
		db.SetMaxOpenConns(int(cfg.Pool.Max.Connections))
	}

	if err := db.PingContext(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			log.Error().Err(closeErr).Msg("Failed to close SQLite database after ping failure")
		}
		return nil, config.NewConnectionError("database", fmt.Errorf("failed to open SQLite database: %w", err),
			"check database.database or database.connectionstring")
	}

	log.Info().Str("database", dsn).Msg("Connected to SQLite database")
	return db, nil
}

// ValidateDatabaseType returns nil if dbType is one of the supported database types.
// If dbType is not supported, it returns an error wrapping ErrUnsupportedVendor.
func ValidateDatabaseType(dbType string) error {
	if !types.IsSupportedVendor(dbType) {
		return fmt.Errorf("%w: %s (supported: %v)", ErrUnsupportedVendor, dbType, GetSupportedDatabaseTypes())
	}
	return nil
}

// GetSupportedDatabaseTypes returns a list of supported database types
func GetSupportedDatabaseTypes() []string {
	return append([]string(nil), types.Vendors...)
}
