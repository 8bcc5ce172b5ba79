package log

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Info takes a pointer subLogger struct and string sends to StageLogEvent
func Info(sl *SubLogger, data string) {
	sl.emit(logrus.InfoLevel, data)
}

// Infof takes a pointer subLogger struct, string and interface slice and
// formats the message
func Infof(sl *SubLogger, data string, v ...any) {
	sl.emitf(logrus.InfoLevel, data, v...)
}

// Debug takes a pointer subLogger struct and string
func Debug(sl *SubLogger, data string) {
	sl.emit(logrus.DebugLevel, data)
}

// Debugf takes a pointer subLogger struct, string and interface slice
func Debugf(sl *SubLogger, data string, v ...any) {
	sl.emitf(logrus.DebugLevel, data, v...)
}

// Warn takes a pointer subLogger struct and string
func Warn(sl *SubLogger, data string) {
	sl.emit(logrus.WarnLevel, data)
}

// Warnf takes a pointer subLogger struct, string and interface slice
func Warnf(sl *SubLogger, data string, v ...any) {
	sl.emitf(logrus.WarnLevel, data, v...)
}

// Error takes a pointer subLogger struct and string
func Error(sl *SubLogger, data string) {
	sl.emit(logrus.ErrorLevel, data)
}

// Errorf takes a pointer subLogger struct, string and interface slice
func Errorf(sl *SubLogger, data string, v ...any) {
	sl.emitf(logrus.ErrorLevel, data, v...)
}

// WithFields logs a message with structured fields attached
func WithFields(sl *SubLogger, level logrus.Level, fields logrus.Fields, data string) {
	if sl == nil {
		return
	}
	mu.RLock()
	defer mu.RUnlock()
	if !sl.enabled(level) {
		return
	}
	if customLogHook != nil && customLogHook(level.String(), sl.name, fmt.Sprintf("%s %v", data, fields)) {
		return
	}
	sl.entry.WithFields(fields).Log(level, data)
}

// Name returns the sub logger name
func (sl *SubLogger) Name() string {
	if sl == nil {
		return ""
	}
	return sl.name
}

// Levels returns the currently enabled levels
func (sl *SubLogger) Levels() Levels {
	mu.RLock()
	defer mu.RUnlock()
	return sl.levels
}

func (sl *SubLogger) emitf(level logrus.Level, format string, v ...any) {
	if sl == nil {
		return
	}
	mu.RLock()
	defer mu.RUnlock()
	if !sl.enabled(level) {
		return
	}
	sl.write(level, fmt.Sprintf(format, v...))
}

func (sl *SubLogger) emit(level logrus.Level, data string) {
	if sl == nil {
		return
	}
	mu.RLock()
	defer mu.RUnlock()
	if !sl.enabled(level) {
		return
	}
	sl.write(level, data)
}

// write must be called with mu held for reading
func (sl *SubLogger) write(level logrus.Level, msg string) {
	if customLogHook != nil && customLogHook(level.String(), sl.name, msg) {
		return
	}
	sl.entry.Log(level, msg)
}

func (sl *SubLogger) enabled(level logrus.Level) bool {
	switch level {
	case logrus.DebugLevel:
		return sl.levels.Debug
	case logrus.InfoLevel:
		return sl.levels.Info
	case logrus.WarnLevel:
		return sl.levels.Warn
	case logrus.ErrorLevel:
		return sl.levels.Error
	}
	return false
}
