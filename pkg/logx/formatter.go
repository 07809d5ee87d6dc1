package logx

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Formatter renders a log record into bytes ready to write.
type Formatter interface {
	Format(level Level, ts time.Time, msg string, fields Fields) []byte
}

// ConsoleFormatter writes human-readable single-line logs.
type ConsoleFormatter struct {
	TimeFormat string
}

// Format implements Formatter.
func (f *ConsoleFormatter) Format(level Level, ts time.Time, msg string, fields Fields) []byte {
	timeFormat := f.TimeFormat
	if timeFormat == "" {
		timeFormat = time.RFC3339
	}

	var b strings.Builder
	b.WriteString(ts.Format(timeFormat))
	b.WriteString(" [")
	b.WriteString(level.String())
	b.WriteString("] ")
	b.WriteString(msg)

	if len(fields) > 0 {
		keys := make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, k := range keys {
			b.WriteString(fmt.Sprintf(" %s=%v", k, fields[k]))
		}
	}

	b.WriteString("\n")
	return []byte(b.String())
}

// JSONFormatter writes one JSON object per log line.
type JSONFormatter struct {
	TimeFormat string
}

// Format implements Formatter.
func (f *JSONFormatter) Format(level Level, ts time.Time, msg string, fields Fields) []byte {
	timeFormat := f.TimeFormat
	if timeFormat == "" {
		timeFormat = time.RFC3339
	}

	record := make(map[string]interface{}, len(fields)+3)
	record["time"] = ts.Format(timeFormat)
	record["level"] = level.String()
	record["message"] = msg

	for k, v := range fields {
		if err, ok := v.(error); ok {
			record[k] = err.Error()
			continue
		}
		record[k] = v
	}

	data, err := json.Marshal(record)
	if err != nil {
		// Fall back to a minimal line rather than dropping the record.
		return []byte(fmt.Sprintf(`{"level":"%s","message":%q}`+"\n", level.String(), msg))
	}

	return append(data, '\n')
}
