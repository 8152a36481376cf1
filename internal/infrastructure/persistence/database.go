package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/lib/pq"
	"github.com/salehmohamadkhani/cafe/internal/infrastructure/config"
	"github.com/salehmohamadkhani/cafe/internal/infrastructure/logger"
	"github.com/salehmohamadkhani/cafe/internal/infrastructure/telemetry"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Database holds the connection to one tenant store
type Database struct {
	DB     *gorm.DB
	Tenant string
}

// DatabaseOption configures NewDatabase
type DatabaseOption func(*databaseOptions)

type databaseOptions struct {
	logger        *zap.Logger
	logLevel      gormlogger.LogLevel
	slowThreshold time.Duration
	tracing       *telemetry.DBTracingConfig
}

// WithLogger routes gorm logs through zap at the given level
func WithLogger(l *zap.Logger, level gormlogger.LogLevel) DatabaseOption {
	return func(o *databaseOptions) {
		o.logger = l
		o.logLevel = level
	}
}

// WithSlowThreshold sets the slow query threshold of the gorm logger
func WithSlowThreshold(d time.Duration) DatabaseOption {
	return func(o *databaseOptions) {
		o.slowThreshold = d
	}
}

// WithTracing registers otelgorm spans on the connection
func WithTracing(cfg telemetry.DBTracingConfig) DatabaseOption {
	return func(o *databaseOptions) {
		o.tracing = &cfg
	}
}

// SQLiteDSN returns the mattn/go-sqlite3 DSN of a tenant file
func SQLiteDSN(path string) string {
	return "file:" + path + "?_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL"
}

// NewDatabase opens the store of one tenant
func NewDatabase(cfg *config.DatabaseConfig, tenant string, opts ...DatabaseOption) (*Database, error) {
	o := databaseOptions{logger: zap.NewNop(), logLevel: gormlogger.Silent, slowThreshold: 200 * time.Millisecond}
	for _, opt := range opts {
		opt(&o)
	}

	var dialector gorm.Dialector
	switch cfg.Driver {
	case config.DriverSQLite:
		if err := os.MkdirAll(cfg.SQLiteDir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create sqlite directory: %w", err)
		}
		dialector = sqlite.Open(SQLiteDSN(cfg.SQLitePath(tenant)))
	case config.DriverPostgres:
		dialector = postgres.Open(cfg.DSN(tenant))
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.NewGormLogger(o.logger, o.logLevel,
			logger.WithSlowThreshold(o.slowThreshold),
			logger.WithIgnoreRecordNotFoundError(true),
		),
		SkipDefaultTransaction: true,
		PrepareStmt:            cfg.Driver == config.DriverPostgres,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	if cfg.Driver == config.DriverSQLite {
		// One writer per file; more connections only add SQLITE_BUSY retries
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)
	sqlDB.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTime) * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if o.tracing != nil && o.tracing.Enabled {
		tracing := *o.tracing
		tracing.Tenant = tenant
		if err := telemetry.RegisterDBTracing(db, tracing, o.logger); err != nil {
			_ = sqlDB.Close()
			return nil, err
		}
	}

	return &Database{DB: db, Tenant: tenant}, nil
}

// EnsurePostgresDatabase creates the tenant database when it does not exist yet.
// admin must be connected to a maintenance database such as "postgres".
func EnsurePostgresDatabase(ctx context.Context, admin *sql.DB, name string) (bool, error) {
	var exists bool
	err := admin.QueryRowContext(ctx, "SELECT EXISTS (SELECT 1 FROM pg_database WHERE datname = $1)", name).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to look up database %s: %w", name, err)
	}
	if exists {
		return false, nil
	}
	if _, err := admin.ExecContext(ctx, "CREATE DATABASE "+pq.QuoteIdentifier(name)); err != nil {
		var pqErr *pq.Error
		// Lost a race with another process creating the same database
		if errors.As(err, &pqErr) && pqErr.Code == "42P04" {
			return false, nil
		}
		return false, fmt.Errorf("failed to create database %s: %w", name, err)
	}
	return true, nil
}

// Close closes the database connection
func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Close()
}

// Ping checks if the database connection is alive
func (d *Database) Ping(ctx context.Context) error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// Stats returns database connection pool statistics and an error if unable to retrieve
func (d *Database) Stats() (ConnectionStats, error) {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return ConnectionStats{}, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	stats := sqlDB.Stats()
	return ConnectionStats{
		MaxOpenConnections: stats.MaxOpenConnections,
		OpenConnections:    stats.OpenConnections,
		InUse:              stats.InUse,
		Idle:               stats.Idle,
		WaitCount:          stats.WaitCount,
		WaitDuration:       stats.WaitDuration,
	}, nil
}

// ConnectionStats holds database connection pool statistics
type ConnectionStats struct {
	MaxOpenConnections int           `json:"max_open_connections"`
	OpenConnections    int           `json:"open_connections"`
	InUse              int           `json:"in_use"`
	Idle               int           `json:"idle"`
	WaitCount          int64         `json:"wait_count"`
	WaitDuration       time.Duration `json:"wait_duration"`
}
