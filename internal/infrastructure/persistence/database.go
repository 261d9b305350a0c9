package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/storefront/backend/internal/infrastructure/config"
	applog "github.com/storefront/backend/internal/infrastructure/logger"
	"github.com/storefront/backend/internal/infrastructure/persistence/models"
	"github.com/storefront/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Database holds the database connection and provides methods for database operations
type Database struct {
	DB *gorm.DB
}

// Option configures NewDatabase
type Option func(*options)

type options struct {
	tracing telemetry.DBTracingConfig
}

// WithTracing traces every query through otelgorm when cfg.Enabled is set
func WithTracing(cfg telemetry.DBTracingConfig) Option {
	return func(o *options) {
		o.tracing = cfg
	}
}

// NewDatabase opens a connection for the configured driver (postgres or sqlite)
func NewDatabase(cfg *config.DatabaseConfig, zapLogger *zap.Logger, opts ...Option) (*Database, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	var dialector gorm.Dialector
	switch cfg.Driver {
	case "postgres":
		dialector = postgres.Open(cfg.DSN())
	case "sqlite":
		dialector = sqlite.Open(cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := Open(dialector, zapLogger, cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	if o.tracing.Enabled && o.tracing.DBSystem == "" {
		o.tracing.DBSystem = dbSystem(cfg.Driver)
	}
	if err := telemetry.RegisterGormTracing(db, o.tracing, zapLogger); err != nil {
		return nil, fmt.Errorf("failed to register database tracing: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)
	sqlDB.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTime) * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	database := &Database{DB: db}
	if cfg.AutoMigrate {
		if err := database.AutoMigrate(); err != nil {
			return nil, err
		}
	}
	return database, nil
}

func dbSystem(driver string) string {
	if driver == "postgres" {
		return "postgresql"
	}
	return driver
}

// Open opens a gorm connection with the settings every repository relies on.
// TranslateError is required: repositories detect unique violations through gorm.ErrDuplicatedKey.
func Open(dialector gorm.Dialector, zapLogger *zap.Logger, logLevel string) (*gorm.DB, error) {
	if zapLogger == nil {
		zapLogger = zap.NewNop()
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 applog.NewGormLogger(zapLogger, applog.MapGormLogLevel(logLevel)),
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// AutoMigrate creates or updates the catalog tables from the persistence models.
// Production schemas are managed by cmd/migrate instead.
func (d *Database) AutoMigrate() error {
	if err := d.DB.AutoMigrate(models.AllModels()...); err != nil {
		return fmt.Errorf("failed to auto-migrate: %w", err)
	}
	return nil
}

// Close closes the database connection
func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Close()
}

// Ping checks the connection is alive
func (d *Database) Ping(ctx context.Context) error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.PingContext(ctx)
}
