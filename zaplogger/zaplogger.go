// Package zaplogger adapts a *zap.SugaredLogger to corestore.Logger, whose
// doc comment describes its structured key-value style as compatible with
// slog, zap, logrus and similar libraries.
package zaplogger

import "go.uber.org/zap"

// Logger wraps a *zap.SugaredLogger to satisfy corestore.Logger.
type Logger struct {
	sugar *zap.SugaredLogger
}

// New wraps sugar as a corestore.Logger.
func New(sugar *zap.SugaredLogger) Logger {
	return Logger{sugar: sugar}
}

func (l Logger) Info(msg string, args ...any)  { l.sugar.Infow(msg, args...) }
func (l Logger) Error(msg string, args ...any) { l.sugar.Errorw(msg, args...) }
func (l Logger) Warn(msg string, args ...any)  { l.sugar.Warnw(msg, args...) }
func (l Logger) Debug(msg string, args ...any) { l.sugar.Debugw(msg, args...) }
