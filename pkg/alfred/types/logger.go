package types

// Logger is the logging facade used throughout the engine. All core
// components are handed a Logger at construction time instead of reaching
// for a package-level logger, so a host process can route engine output
// wherever it already sends its own logs.
type Logger interface {
	Info(v ...interface{})
	Infof(format string, v ...interface{})
	Warn(v ...interface{})
	Warnf(format string, v ...interface{})
	Error(v ...interface{})
	Errorf(format string, v ...interface{})
	Debug(v ...interface{})
	Debugf(format string, v ...interface{})
	Fatal(v ...interface{})
	Fatalf(format string, v ...interface{})
	Panic(v ...interface{})
	Panicf(format string, v ...interface{})

	// ToggleDebug enables or disables Debug/Debugf output, returning the
	// resulting state.
	ToggleDebug(value bool) bool
}
