// Package obslog is a thin structured-logging wrapper around zap, carried
// as the coordinator's ambient logging stack. Components take a *Logger
// through their constructor rather than reaching for a package-level
// global, so tests can inject a no-op or observed logger.
package obslog

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps a zap.Logger with the handful of fields the coordinator
// always wants attached: log stream id, tablet id, tx id.
type Logger struct {
	z *zap.Logger
}

// New wraps an existing zap.Logger.
func New(z *zap.Logger) *Logger {
	if z == nil {
		z = zap.NewNop()
	}
	return &Logger{z: z}
}

// NewNop returns a Logger that discards everything, for tests that don't
// care about log output.
func NewNop() *Logger { return New(zap.NewNop()) }

// With returns a derived Logger carrying the given fields in addition to
// any already attached.
func (l *Logger) With(fields ...zapcore.Field) *Logger {
	return &Logger{z: l.z.With(fields...)}
}

// WithTablet returns a derived Logger scoped to (lsID, tabletID).
func (l *Logger) WithTablet(lsID, tabletID int64) *Logger {
	return l.With(zap.Int64("ls_id", lsID), zap.Int64("tablet_id", tabletID))
}

// WithTx returns a derived Logger scoped to a transaction id.
func (l *Logger) WithTx(txID int64) *Logger {
	return l.With(zap.Int64("tx_id", txID))
}

func (l *Logger) Debug(msg string, fields ...zapcore.Field) { l.z.Debug(msg, fields...) }
func (l *Logger) Info(msg string, fields ...zapcore.Field)  { l.z.Info(msg, fields...) }
func (l *Logger) Warn(msg string, fields ...zapcore.Field)  { l.z.Warn(msg, fields...) }
func (l *Logger) Error(msg string, fields ...zapcore.Field) { l.z.Error(msg, fields...) }
