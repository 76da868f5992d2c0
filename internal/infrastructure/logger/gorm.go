package logger

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
	"gorm.io/gorm/utils"
)

// GormLogger writes gorm statements to zap with the request id and operator
// of the statement's context. Statements are logged at debug level, slow
// ones at warn, failures at error. Conflicts the transaction scope retries
// are kept at debug.
type GormLogger struct {
	log        *zap.Logger
	level      gormlogger.LogLevel
	slow       time.Duration
	isConflict func(error) bool
}

type GormLoggerOption func(*GormLogger)

// WithSlowThreshold sets the duration above which a statement is slow. Zero
// disables slow statement warnings.
func WithSlowThreshold(d time.Duration) GormLoggerOption {
	return func(l *GormLogger) { l.slow = d }
}

// WithConflictClassifier marks the errors logged at debug level instead of error
func WithConflictClassifier(fn func(error) bool) GormLoggerOption {
	return func(l *GormLogger) { l.isConflict = fn }
}

func NewGormLogger(log *zap.Logger, level gormlogger.LogLevel, opts ...GormLoggerOption) *GormLogger {
	l := &GormLogger{
		log:   log.Named("gorm").WithOptions(zap.WithCaller(false)),
		level: level,
		slow:  200 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.level = level
	return &clone
}

func (l *GormLogger) Info(ctx context.Context, msg string, data ...any) {
	if l.level >= gormlogger.Info {
		l.log.Sugar().Infof(msg, data...)
	}
}

func (l *GormLogger) Warn(ctx context.Context, msg string, data ...any) {
	if l.level >= gormlogger.Warn {
		l.log.Sugar().Warnf(msg, data...)
	}
}

func (l *GormLogger) Error(ctx context.Context, msg string, data ...any) {
	if l.level >= gormlogger.Error {
		l.log.Sugar().Errorf(msg, data...)
	}
}

// Trace logs one executed statement. Missing records are not errors.
func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	failed := err != nil && !errors.Is(err, gormlogger.ErrRecordNotFound)
	slow := l.slow > 0 && elapsed > l.slow
	switch {
	case failed && l.level >= gormlogger.Error:
	case slow && l.level >= gormlogger.Warn:
	case l.level >= gormlogger.Info:
	default:
		return
	}

	sql, rows := fc()
	fields := []zap.Field{
		zap.Duration("elapsed", elapsed),
		zap.Int64("rows", rows),
		zap.String("sql", sql),
		zap.String("source", utils.FileWithLineNum()),
	}
	if id := RequestID(ctx); id != "" {
		fields = append(fields, zap.String("request_id", id))
	}
	if op, ok := OperatorFrom(ctx); ok {
		fields = append(fields, zap.String("username", op.Username))
	}

	switch {
	case failed && l.isConflict != nil && l.isConflict(err):
		l.log.Debug("SQL conflict", append(fields, zap.Error(err))...)
	case failed:
		l.log.Error("SQL error", append(fields, zap.Error(err))...)
	case slow:
		l.log.Warn("Slow SQL", append(fields, zap.Duration("threshold", l.slow))...)
	default:
		l.log.Debug("SQL", fields...)
	}
}

// MapGormLogLevel maps the application log level to the gorm one. Unknown
// levels log warnings and errors only.
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
