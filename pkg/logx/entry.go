package logx

import (
	"context"
	"fmt"
)

// Entry is a log statement under construction, carrying accumulated fields.
type Entry struct {
	logger *Logger
	fields Fields
}

func newEntry(logger *Logger) *Entry {
	return &Entry{
		logger: logger,
		fields: make(Fields),
	}
}

// WithFields adds fields to the entry.
func (e *Entry) WithFields(fields Fields) *Entry {
	for k, v := range fields {
		e.fields[k] = v
	}
	return e
}

// WithField adds a single field to the entry.
func (e *Entry) WithField(key string, value interface{}) *Entry {
	e.fields[key] = value
	return e
}

// WithError adds an error field to the entry.
func (e *Entry) WithError(err error) *Entry {
	e.fields["error"] = err
	return e
}

// WithContext pulls well-known values (request ID) out of a context.
func (e *Entry) WithContext(ctx context.Context) *Entry {
	if ctx == nil {
		return e
	}
	if requestID, ok := ctx.Value("request_id").(string); ok && requestID != "" {
		e.fields["request_id"] = requestID
	}
	return e
}

// Trace logs the entry at trace level.
func (e *Entry) Trace(msg string) { e.logger.log(LevelTrace, msg, e.fields) }

// Debug logs the entry at debug level.
func (e *Entry) Debug(msg string) { e.logger.log(LevelDebug, msg, e.fields) }

// Info logs the entry at info level.
func (e *Entry) Info(msg string) { e.logger.log(LevelInfo, msg, e.fields) }

// Warn logs the entry at warn level.
func (e *Entry) Warn(msg string) { e.logger.log(LevelWarn, msg, e.fields) }

// Error logs the entry at error level.
func (e *Entry) Error(msg string) { e.logger.log(LevelError, msg, e.fields) }

// Fatal logs the entry at fatal level and exits.
func (e *Entry) Fatal(msg string) {
	e.logger.log(LevelFatal, msg, e.fields)
	e.logger.exit(1)
}

// Tracef logs a formatted message at trace level.
func (e *Entry) Tracef(format string, args ...interface{}) {
	e.logger.log(LevelTrace, fmt.Sprintf(format, args...), e.fields)
}

// Debugf logs a formatted message at debug level.
func (e *Entry) Debugf(format string, args ...interface{}) {
	e.logger.log(LevelDebug, fmt.Sprintf(format, args...), e.fields)
}

// Infof logs a formatted message at info level.
func (e *Entry) Infof(format string, args ...interface{}) {
	e.logger.log(LevelInfo, fmt.Sprintf(format, args...), e.fields)
}

// Warnf logs a formatted message at warn level.
func (e *Entry) Warnf(format string, args ...interface{}) {
	e.logger.log(LevelWarn, fmt.Sprintf(format, args...), e.fields)
}

// Errorf logs a formatted message at error level.
func (e *Entry) Errorf(format string, args ...interface{}) {
	e.logger.log(LevelError, fmt.Sprintf(format, args...), e.fields)
}

// Fatalf logs a formatted message at fatal level and exits.
func (e *Entry) Fatalf(format string, args ...interface{}) {
	e.logger.log(LevelFatal, fmt.Sprintf(format, args...), e.fields)
	e.logger.exit(1)
}
