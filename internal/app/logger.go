package app

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"time"
)

type Logger struct {
	out io.Writer
}

type LogEvent struct {
	Timestamp string                 `json:"timestamp"`
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

func NewLogger(out io.Writer) *Logger {
	return &Logger{out: out}
}

// DefaultLogWriter opens an append-only log file under the user cache dir.
// Falls back to stderr when the cache dir is unavailable.
func DefaultLogWriter() io.Writer {
	base, err := os.UserCacheDir()
	if err != nil {
		return os.Stderr
	}
	dir := filepath.Join(base, "jarvis")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return os.Stderr
	}
	f, err := os.OpenFile(filepath.Join(dir, "jarvis.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return os.Stderr
	}
	return f
}

func (l *Logger) Info(message string, fields map[string]interface{}) {
	l.write("info", message, fields)
}

func (l *Logger) Warn(message string, fields map[string]interface{}) {
	l.write("warn", message, fields)
}

func (l *Logger) Error(message string, fields map[string]interface{}) {
	l.write("error", message, fields)
}

func (l *Logger) write(level, message string, fields map[string]interface{}) {
	if l == nil || l.out == nil {
		return
	}
	evt := LogEvent{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Level:     level,
		Message:   message,
		Fields:    fields,
	}
	payload, _ := json.Marshal(evt)
	payload = append(payload, '\n')
	_, _ = l.out.Write(payload)
}
