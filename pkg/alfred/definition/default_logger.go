// Package definition holds the default, concrete Logger implementation a
// host may use out of the box.
package definition

import (
	"os"

	"github.com/sirupsen/logrus"

	"github.com/openmesh/alfred/pkg/alfred/types"
)

// NewDefaultLogger returns the engine's default Logger, backed by logrus
// writing to stderr with the standard text formatter.
func NewDefaultLogger() *DefaultLogger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(logrus.InfoLevel)
	return &DefaultLogger{entry: logrus.NewEntry(l)}
}

// DefaultLogger adapts logrus to the engine's Logger interface.
type DefaultLogger struct {
	entry *logrus.Entry
}

func (l *DefaultLogger) Info(v ...interface{})                 { l.entry.Logger.Infoln(v...) }
func (l *DefaultLogger) Infof(format string, v ...interface{}) { l.entry.Logger.Infof(format, v...) }
func (l *DefaultLogger) Warn(v ...interface{})                 { l.entry.Logger.Warnln(v...) }
func (l *DefaultLogger) Warnf(format string, v ...interface{}) { l.entry.Logger.Warnf(format, v...) }
func (l *DefaultLogger) Error(v ...interface{})                { l.entry.Logger.Errorln(v...) }
func (l *DefaultLogger) Errorf(format string, v ...interface{}) {
	l.entry.Logger.Errorf(format, v...)
}
func (l *DefaultLogger) Debug(v ...interface{}) { l.entry.Logger.Debugln(v...) }
func (l *DefaultLogger) Debugf(format string, v ...interface{}) {
	l.entry.Logger.Debugf(format, v...)
}
func (l *DefaultLogger) Fatal(v ...interface{})                 { l.entry.Logger.Fatalln(v...) }
func (l *DefaultLogger) Fatalf(format string, v ...interface{}) { l.entry.Logger.Fatalf(format, v...) }
func (l *DefaultLogger) Panic(v ...interface{})                 { l.entry.Logger.Panicln(v...) }
func (l *DefaultLogger) Panicf(format string, v ...interface{}) { l.entry.Logger.Panicf(format, v...) }

// ToggleDebug enables or disables debug-level output, returning the
// resulting state.
func (l *DefaultLogger) ToggleDebug(value bool) bool {
	if value {
		l.entry.Logger.SetLevel(logrus.DebugLevel)
	} else {
		l.entry.Logger.SetLevel(logrus.InfoLevel)
	}
	return value
}

var _ types.Logger = (*DefaultLogger)(nil)
