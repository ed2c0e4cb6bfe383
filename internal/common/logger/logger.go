package logger

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"burger-bar/internal/trace"
)

// Logger emits one JSON object per line. Fields merge into the entry; the
// trace ID from ctx, when present, lands in request_id.
type Logger struct{ service string }

func New(service string) *Logger { return &Logger{service: service} }

func (l *Logger) log(ctx context.Context, level, action string, fields map[string]any, err error) {
	entry := map[string]any{
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
		"level":     level,
		"service":   l.service,
		"action":    action,
		"hostname":  hostname(),
	}
	if id, ok := trace.ID(ctx); ok {
		entry["request_id"] = id
	}
	for k, v := range fields {
		entry[k] = v
	}
	if err != nil {
		entry["error"] = err.Error()
	}
	_ = json.NewEncoder(os.Stdout).Encode(entry)
}

func (l *Logger) Info(ctx context.Context, action string, fields map[string]any) {
	l.log(ctx, "INFO", action, fields, nil)
}

func (l *Logger) Debug(ctx context.Context, action string, fields map[string]any) {
	l.log(ctx, "DEBUG", action, fields, nil)
}

func (l *Logger) Error(ctx context.Context, action string, err error, fields map[string]any) {
	l.log(ctx, "ERROR", action, fields, err)
}

func hostname() string { h, _ := os.Hostname(); return h }
