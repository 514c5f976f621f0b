package logging

import (
	"context"
	"log/slog"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNew_LevelGating(t *testing.T) {
	ctx := context.Background()

	debug := New("debug", "text")
	if !debug.Enabled(ctx, slog.LevelDebug) {
		t.Error("debug logger should emit debug records")
	}

	quiet := New("error", "json")
	if quiet.Enabled(ctx, slog.LevelInfo) {
		t.Error("error-level logger should drop info records")
	}
}

func TestRequestIDPlumbing(t *testing.T) {
	ctx := context.Background()

	if id := RequestID(ctx); id != "" {
		t.Errorf("empty context should have no request ID, got %q", id)
	}

	ctx = WithRequestID(ctx, "req-abc")
	if id := RequestID(ctx); id != "req-abc" {
		t.Errorf("RequestID = %q, want req-abc", id)
	}

	ctx = WithRequestID(ctx, "req-def")
	if id := RequestID(ctx); id != "req-def" {
		t.Errorf("latest request ID should win, got %q", id)
	}
}

func TestLoggerPlumbing(t *testing.T) {
	ctx := context.Background()

	if FromContext(ctx) == nil {
		t.Fatal("FromContext must fall back to a usable logger")
	}

	custom := New("debug", "json")
	ctx = WithLogger(ctx, custom)
	if FromContext(ctx) != custom {
		t.Error("FromContext should return the stored logger")
	}
}

func TestL(t *testing.T) {
	ctx := WithLogger(context.Background(), New("info", "text"))

	if L(ctx) == nil {
		t.Fatal("L must return a logger without a request ID")
	}

	ctx = WithRequestID(ctx, "req-123")
	if L(ctx) == nil {
		t.Fatal("L must return a logger with a request ID attached")
	}
}
