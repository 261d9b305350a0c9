package logger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
)

// maxLoggedSQL caps the statement text in SQL logs; product inserts carry full descriptions
const maxLoggedSQL = 1024

// GormLogger routes gorm's statement and message logs to zap.
// Record-not-found errors are expected lookups and are never logged.
type GormLogger struct {
	logger        *zap.Logger
	logLevel      gormlogger.LogLevel
	slowThreshold time.Duration
}

// GormLoggerOption configures a GormLogger
type GormLoggerOption func(*GormLogger)

// WithSlowThreshold sets the duration above which a statement is logged as slow; 0 disables it
func WithSlowThreshold(threshold time.Duration) GormLoggerOption {
	return func(l *GormLogger) {
		l.slowThreshold = threshold
	}
}

// NewGormLogger creates a gorm logger writing to zapLogger under the "gorm" name
func NewGormLogger(zapLogger *zap.Logger, level gormlogger.LogLevel, opts ...GormLoggerOption) *GormLogger {
	if zapLogger == nil {
		zapLogger = zap.NewNop()
	}
	gl := &GormLogger{
		logger:        zapLogger.Named("gorm"),
		logLevel:      level,
		slowThreshold: 200 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(gl)
	}
	return gl
}

func (l *GormLogger) enabled(level gormlogger.LogLevel) bool {
	return l.logLevel >= level && l.logLevel > gormlogger.Silent
}

// LogMode implements gormlogger.Interface
func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.logLevel = level
	return &clone
}

// Info implements gormlogger.Interface
func (l *GormLogger) Info(ctx context.Context, msg string, data ...any) {
	if l.enabled(gormlogger.Info) {
		l.logger.Info(fmt.Sprintf(msg, data...), requestFields(ctx)...)
	}
}

// Warn implements gormlogger.Interface
func (l *GormLogger) Warn(ctx context.Context, msg string, data ...any) {
	if l.enabled(gormlogger.Warn) {
		l.logger.Warn(fmt.Sprintf(msg, data...), requestFields(ctx)...)
	}
}

// Error implements gormlogger.Interface
func (l *GormLogger) Error(ctx context.Context, msg string, data ...any) {
	if l.enabled(gormlogger.Error) {
		l.logger.Error(fmt.Sprintf(msg, data...), requestFields(ctx)...)
	}
}

// Trace implements gormlogger.Interface
func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	if !l.enabled(gormlogger.Error) {
		return
	}
	elapsed := time.Since(begin)

	switch {
	case err != nil:
		if errors.Is(err, gormlogger.ErrRecordNotFound) {
			return
		}
		l.logger.Error("SQL Error", append(statementFields(ctx, elapsed, fc), zap.Error(err))...)
	case l.slowThreshold > 0 && elapsed > l.slowThreshold && l.enabled(gormlogger.Warn):
		l.logger.Warn("Slow SQL", append(statementFields(ctx, elapsed, fc), zap.Duration("threshold", l.slowThreshold))...)
	case l.enabled(gormlogger.Info):
		l.logger.Debug("SQL Query", statementFields(ctx, elapsed, fc)...)
	}
}

func statementFields(ctx context.Context, elapsed time.Duration, fc func() (string, int64)) []zap.Field {
	sql, rows := fc()
	if len(sql) > maxLoggedSQL {
		sql = sql[:maxLoggedSQL] + "...(truncated)"
	}
	return append([]zap.Field{
		zap.Duration("elapsed", elapsed),
		zap.Int64("rows", rows),
		zap.String("sql", sql),
	}, requestFields(ctx)...)
}

func requestFields(ctx context.Context) []zap.Field {
	if requestID := GetRequestID(ctx); requestID != "" {
		return []zap.Field{zap.String("request_id", requestID)}
	}
	return nil
}

// MapGormLogLevel maps a configured log level to a gorm log level
func MapGormLogLevel(level string) gormlogger.LogLevel {
	switch level {
	case "silent":
		return gormlogger.Silent
	case "error":
		return gormlogger.Error
	case "info", "debug":
		return gormlogger.Info
	default:
		return gormlogger.Warn
	}
}
