package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for raw, want := range cases {
		if got := ParseLevel(raw); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", raw, got, want)
		}
	}
}

func TestNewFiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "warn")

	logger.Info("dropped")
	logger.Warn("kept")

	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Fatalf("expected info entry to be filtered, got %s", out)
	}
	if !strings.Contains(out, "kept") {
		t.Fatalf("expected warn entry, got %s", out)
	}
}

func TestStartSpanCarriesTraceAcrossChildren(t *testing.T) {
	var buf bytes.Buffer
	ctx := WithLogger(context.Background(), New(&buf, "debug"))

	ctx, parent := StartSpan(ctx, "films.AddLike")
	traceID := TraceIDFromContext(ctx)
	if traceID == "" {
		t.Fatal("expected trace id on context")
	}

	child, span := StartSpan(ctx, "repositories.AddLike")
	if got := TraceIDFromContext(child); got != traceID {
		t.Fatalf("expected child to inherit trace %q, got %q", traceID, got)
	}
	if SpanIDFromContext(child) == SpanIDFromContext(ctx) {
		t.Fatal("expected child span id to differ from parent")
	}

	span.End()
	parent.End()

	if !strings.Contains(buf.String(), `"parent_span_id"`) {
		t.Fatalf("expected child span to log its parent, got %s", buf.String())
	}
}

func TestStartSpanUsesRequestIDAsTrace(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-42")

	ctx, span := StartSpan(ctx, "social.AddFriend")
	defer span.End()

	if got := TraceIDFromContext(ctx); got != "req-42" {
		t.Fatalf("expected request id to seed the trace, got %q", got)
	}
	if got := len(SpanIDFromContext(ctx)); got != 16 {
		t.Fatalf("expected 16 character span id, got %d", got)
	}
}

func TestFromContextFallsBackToDefault(t *testing.T) {
	if FromContext(context.Background()) != slog.Default() {
		t.Fatal("expected default logger without one on the context")
	}
}
