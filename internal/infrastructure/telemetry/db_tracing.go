package telemetry

import (
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBTracingConfig configures gorm query tracing
type DBTracingConfig struct {
	Enabled bool
	// DBSystem names the database in spans, e.g. "postgresql" or "sqlite"
	DBSystem string
	// LogFullSQL keeps bound query variables in span statements
	LogFullSQL bool
}

// RegisterGormTracing installs the otelgorm plugin on db when cfg is enabled.
// Spans come from the global tracer provider.
func RegisterGormTracing(db *gorm.DB, cfg DBTracingConfig, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	if !cfg.Enabled {
		logger.Debug("Database tracing disabled, skipping otelgorm registration")
		return nil
	}

	opts := []otelgorm.Option{otelgorm.WithDBName(cfg.DBSystem)}
	if !cfg.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}

	logger.Info("Database tracing enabled",
		zap.String("db_system", cfg.DBSystem),
		zap.Bool("log_full_sql", cfg.LogFullSQL),
	)
	return nil
}
