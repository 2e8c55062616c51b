package log

import (
	"context"
	"fmt"
	"log/slog"
	"os"
)

// clone returns a copy of the logger with additional base attributes bound
// through the slog bridge, preserving level, formatter, and outputs.
func (l *BaseLogger) clone(attrs []slog.Attr) *BaseLogger {
	fields := make(Fields, len(l.fields)+len(attrs))
	for k, v := range l.fields {
		fields[k] = v
	}
	for _, a := range attrs {
		fields[a.Key] = a.Value.Any()
	}
	nl := &BaseLogger{
		level:     l.level,
		fields:    fields,
		formatter: l.formatter,
		outputs:   l.outputs,
	}
	nl.slogLogger = slog.New(newBridgeHandler(nl).WithAttrs(attrsFromMap(fields)))
	return nl
}

func (l *BaseLogger) logAttrs(level Level, msg string, attrs []slog.Attr) {
	if level < l.level {
		return
	}
	l.slogLogger.LogAttrs(context.Background(), toSlogLevel(level), msg, attrs...)
	if level == FatalLevel {
		os.Exit(1)
	}
}

// Debug logs a message at DebugLevel.
func (l *BaseLogger) Debug(msg string, fields ...Field) {
	l.logAttrs(DebugLevel, msg, attrsFromFieldSlice(fields))
}

// Info logs a message at InfoLevel.
func (l *BaseLogger) Info(msg string, fields ...Field) {
	l.logAttrs(InfoLevel, msg, attrsFromFieldSlice(fields))
}

// Warn logs a message at WarnLevel.
func (l *BaseLogger) Warn(msg string, fields ...Field) {
	l.logAttrs(WarnLevel, msg, attrsFromFieldSlice(fields))
}

// Error logs a message at ErrorLevel.
func (l *BaseLogger) Error(msg string, fields ...Field) {
	l.logAttrs(ErrorLevel, msg, attrsFromFieldSlice(fields))
}

// Fatal logs a message at FatalLevel and exits the process.
func (l *BaseLogger) Fatal(msg string, fields ...Field) {
	l.logAttrs(FatalLevel, msg, attrsFromFieldSlice(fields))
}

// Debugf logs a printf-style message at DebugLevel.
func (l *BaseLogger) Debugf(msg string, args ...interface{}) {
	l.logAttrs(DebugLevel, fmt.Sprintf(msg, args...), nil)
}

// Infof logs a printf-style message at InfoLevel.
func (l *BaseLogger) Infof(msg string, args ...interface{}) {
	l.logAttrs(InfoLevel, fmt.Sprintf(msg, args...), nil)
}

// Warnf logs a printf-style message at WarnLevel.
func (l *BaseLogger) Warnf(msg string, args ...interface{}) {
	l.logAttrs(WarnLevel, fmt.Sprintf(msg, args...), nil)
}

// Errorf logs a printf-style message at ErrorLevel.
func (l *BaseLogger) Errorf(msg string, args ...interface{}) {
	l.logAttrs(ErrorLevel, fmt.Sprintf(msg, args...), nil)
}

// Fatalf logs a printf-style message at FatalLevel and exits the process.
func (l *BaseLogger) Fatalf(msg string, args ...interface{}) {
	l.logAttrs(FatalLevel, fmt.Sprintf(msg, args...), nil)
}

// WithField returns a logger with one additional field.
func (l *BaseLogger) WithField(key string, value interface{}) Logger {
	return l.clone([]slog.Attr{slog.Any(key, value)})
}

// WithFields returns a logger with additional fields.
func (l *BaseLogger) WithFields(fields Fields) Logger {
	return l.clone(attrsFromMap(fields))
}

// WithError returns a logger with the error recorded under "error".
func (l *BaseLogger) WithError(err error) Logger {
	if err == nil {
		return l
	}
	return l.clone([]slog.Attr{slog.String("error", err.Error())})
}

// With returns a logger with additional Field-based attributes.
func (l *BaseLogger) With(fields ...Field) Logger {
	return l.clone(attrsFromFieldSlice(fields))
}

// WithContext returns a logger carrying fields extracted from ctx.
func (l *BaseLogger) WithContext(ctx context.Context) Logger {
	extracted := ContextExtractor(ctx)
	if len(extracted) == 0 {
		return l
	}
	return l.clone(attrsFromMap(extracted))
}

// WithComponent tags entries with a component name.
func (l *BaseLogger) WithComponent(component string) Logger {
	return l.clone([]slog.Attr{slog.String(ComponentKey, component)})
}

// SetLevel sets the minimum level.
func (l *BaseLogger) SetLevel(level Level) { l.level = level }

// GetLevel returns the minimum level.
func (l *BaseLogger) GetLevel() Level { return l.level }
