package logx

import (
	"os"
	"strings"
	"sync"
	"time"
)

// Fields is a map of structured log fields.
type Fields map[string]interface{}

// Format represents the output format
type Format string

const (
	// FormatConsole outputs human-readable console logs (default)
	FormatConsole Format = "console"
	// FormatJSON outputs JSON formatted logs
	FormatJSON Format = "json"
)

// Config holds the logger configuration
type Config struct {
	// Level is the minimum log level to output
	Level Level

	// Format is the output format
	Format Format

	// TimeFormat is the time format to use (defaults to RFC3339)
	TimeFormat string

	// Output is where to write logs (defaults to os.Stdout)
	Output *os.File
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Level:      LevelInfo,
		Format:     FormatConsole,
		TimeFormat: time.RFC3339,
		Output:     os.Stdout,
	}
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() *Config {
	config := DefaultConfig()

	if level := os.Getenv("LOG_LEVEL"); level != "" {
		config.Level = ParseLevel(level)
	}

	if format := os.Getenv("LOG_FORMAT"); format != "" {
		switch strings.ToLower(format) {
		case "json":
			config.Format = FormatJSON
		case "console":
			config.Format = FormatConsole
		}
	}

	return config
}

// Logger is a leveled, structured logger.
type Logger struct {
	mu        sync.Mutex
	level     Level
	formatter Formatter
	output    *os.File
	exitFunc  func(int)
}

// NewLogger creates a logger from a config.
func NewLogger(config *Config) *Logger {
	if config == nil {
		config = DefaultConfig()
	}

	var formatter Formatter
	switch config.Format {
	case FormatJSON:
		formatter = &JSONFormatter{TimeFormat: config.TimeFormat}
	default:
		formatter = &ConsoleFormatter{TimeFormat: config.TimeFormat}
	}

	output := config.Output
	if output == nil {
		output = os.Stdout
	}

	return &Logger{
		level:     config.Level,
		formatter: formatter,
		output:    output,
		exitFunc:  os.Exit,
	}
}

// SetLevel sets the minimum level the logger emits.
func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	l.level = level
	l.mu.Unlock()
}

// SetOutput sets the output destination.
func (l *Logger) SetOutput(w *os.File) {
	l.mu.Lock()
	l.output = w
	l.mu.Unlock()
}

// WithFields creates an entry carrying the given fields.
func (l *Logger) WithFields(fields Fields) *Entry {
	entry := newEntry(l)
	return entry.WithFields(fields)
}

// WithField creates an entry carrying a single field.
func (l *Logger) WithField(key string, value interface{}) *Entry {
	return l.WithFields(Fields{key: value})
}

// WithError creates an entry carrying an error field.
func (l *Logger) WithError(err error) *Entry {
	return l.WithFields(Fields{"error": err})
}

func (l *Logger) log(level Level, msg string, fields Fields) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.level.Enabled(level) {
		return
	}

	line := l.formatter.Format(level, time.Now(), msg, fields)
	l.output.Write(line)
}

func (l *Logger) exit(code int) {
	if l.exitFunc != nil {
		l.exitFunc(code)
	}
}
