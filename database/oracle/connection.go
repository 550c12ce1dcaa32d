// Package oracle opens Oracle connections through the go-ora driver and binds
// composed statement values as go-ora values.
package oracle

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	go_ora "github.com/sijms/go-ora/v2"

	"github.com/gaborage/sqlbricks/config"
	"github.com/gaborage/sqlbricks/logger"
)

const (
	driverName  = "oracle"
	pingTimeout = 10 * time.Second
)

var (
	openOracleDB = func(dsn string) (*sql.DB, error) {
		return sql.Open(driverName, dsn)
	}
	pingOracleDB = func(ctx context.Context, db *sql.DB) error {
		return db.PingContext(ctx)
	}
)

// BuildDSN returns the go-ora URL for cfg. ConnectionString wins when set; otherwise
// the service name, then the SID, then the database name identifies the target.
func BuildDSN(cfg *config.DatabaseConfig) string {
	if cfg.ConnectionString != "" {
		return cfg.ConnectionString
	}

	service := cfg.Oracle.Service
	switch {
	case service.Name != "":
		return go_ora.BuildUrl(cfg.Host, cfg.Port, service.Name, cfg.Username, cfg.Password, nil)
	case service.SID != "":
		return go_ora.BuildUrl(cfg.Host, cfg.Port, "", cfg.Username, cfg.Password, map[string]string{"SID": service.SID})
	default:
		return go_ora.BuildUrl(cfg.Host, cfg.Port, cfg.Database, cfg.Username, cfg.Password, nil)
	}
}

// Open opens a pooled Oracle handle through go-ora and verifies it with a ping.
func Open(ctx context.Context, cfg *config.DatabaseConfig, log logger.Logger) (*sql.DB, error) {
	db, err := openOracleDB(BuildDSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open Oracle connection: %w", err)
	}

	db.SetMaxOpenConns(int(cfg.Pool.Max.Connections))
	db.SetMaxIdleConns(int(cfg.Pool.Idle.Connections))
	db.SetConnMaxLifetime(cfg.Pool.Lifetime.Max)
	db.SetConnMaxIdleTime(cfg.Pool.Idle.Time)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := pingOracleDB(pingCtx, db); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			log.Error().Err(closeErr).Msg("Failed to close Oracle database connection after ping failure")
		}
		return nil, config.NewConnectionError("database", fmt.Errorf("failed to ping Oracle database: %w", err),
			"check database.host and database.port", "check database.oracle.service.name or sid")
	}

	ev := log.Info().
		Str("host", cfg.Host).
		Int("port", cfg.Port)
	if cfg.Oracle.Service.Name != "" {
		ev = ev.Str("service_name", cfg.Oracle.Service.Name)
	} else if cfg.Oracle.Service.SID != "" {
		ev = ev.Str("sid", cfg.Oracle.Service.SID)
	} else {
		ev = ev.Str("database", cfg.Database)
	}
	ev.Msg("Connected to Oracle database")

	return db, nil
}
