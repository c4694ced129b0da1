package logger

import (
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestInitReturnsLogger(t *testing.T) {
	log := Init("test-service", slog.LevelInfo)
	if log == nil {
		t.Fatal("Init returned nil logger")
	}
}

func TestTraceIDRoundTrip(t *testing.T) {
	ctx := context.Background()

	if got := TraceID(ctx); got != "" {
		t.Errorf("TraceID on empty context = %q, want empty", got)
	}

	ctx = WithTraceID(ctx, "GOLD-12345")
	if got := TraceID(ctx); got != "GOLD-12345" {
		t.Errorf("TraceID = %q, want GOLD-12345", got)
	}
}

func TestGenerateTraceID(t *testing.T) {
	ts := time.Unix(1700000000, 0)
	id := GenerateTraceID("EURUSD", ts)
	if !strings.HasPrefix(id, "EURUSD-") {
		t.Errorf("GenerateTraceID = %q, want EURUSD- prefix", id)
	}
}

func TestLogWithTrace(t *testing.T) {
	ctx := context.Background()
	if attrs := LogWithTrace(ctx); attrs != nil {
		t.Errorf("LogWithTrace on empty context = %v, want nil", attrs)
	}

	ctx = WithTraceID(ctx, "abc")
	attrs := LogWithTrace(ctx)
	if len(attrs) != 1 {
		t.Fatalf("LogWithTrace returned %d attrs, want 1", len(attrs))
	}
}
