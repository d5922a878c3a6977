package logger

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("invalid json log line %q: %v", line, err)
		}
		out = append(out, m)
	}
	return out
}

func TestNewDefault(t *testing.T) {
	l := NewDefault("test-svc")
	if l == nil {
		t.Fatal("expected non-nil logger")
	}
	if l.service != "test-svc" {
		t.Errorf("expected service 'test-svc', got %q", l.service)
	}
}

func TestNewInvalidLevel(t *testing.T) {
	l := New(&Config{Level: "invalid-level", Format: "json", Output: "stdout"}, "test")
	if l == nil {
		t.Fatal("expected logger to be created even with invalid level")
	}
}

func TestWriter_FieldsAndLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf, "info")

	l.Debug("hidden")
	l.WithComponent("controller").Info("node visited", Fields(FieldNodeID, "n1", FieldPhase, "setup"))

	lines := decodeLines(t, &buf)
	if len(lines) != 1 {
		t.Fatalf("expected 1 line (debug filtered), got %d", len(lines))
	}
	if lines[0][FieldComponent] != "controller" {
		t.Errorf("expected component=controller, got %v", lines[0][FieldComponent])
	}
	if lines[0][FieldNodeID] != "n1" || lines[0][FieldPhase] != "setup" {
		t.Errorf("expected node fields, got %v", lines[0])
	}
}

func TestWithError(t *testing.T) {
	var buf bytes.Buffer
	NewWriter(&buf, "debug").WithError(errors.New("boom")).Error("failed")

	lines := decodeLines(t, &buf)
	if lines[0][FieldError] != "boom" {
		t.Errorf("expected error=boom, got %v", lines[0][FieldError])
	}
}

func TestWithContext_NoSpan(t *testing.T) {
	l := Nop()
	if l.WithContext(context.Background()) != l {
		t.Fatal("expected the same logger when ctx carries no span")
	}
}

func TestWithContext_Span(t *testing.T) {
	tp := sdktrace.NewTracerProvider()
	defer func() { _ = tp.Shutdown(context.Background()) }()

	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	defer span.End()

	var buf bytes.Buffer
	NewWriter(&buf, "debug").WithContext(ctx).Info("traced")

	lines := decodeLines(t, &buf)
	if lines[0][FieldTraceID] != span.SpanContext().TraceID().String() {
		t.Errorf("expected trace id, got %v", lines[0][FieldTraceID])
	}
}

func TestConfig_DefaultsAndValidate(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()
	if cfg.Level != "info" || cfg.Format != "console" || cfg.Output != "stderr" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}

	cfg.Level = "loud"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected invalid level to fail")
	}
}

func TestRegistry_GetRegistered(t *testing.T) {
	defer Reset()

	var buf bytes.Buffer
	Register("store", NewWriter(&buf, "debug"))
	Get("store").Info("saved")

	if !strings.Contains(buf.String(), "saved") {
		t.Fatalf("expected registered logger to be used, got %q", buf.String())
	}
	if Get("unknown") == nil {
		t.Fatal("expected fallback logger for unknown name")
	}
}

func TestDurationFields(t *testing.T) {
	f := DurationFields("perform", 1500*time.Millisecond)
	if f[FieldDuration] != int64(1500) {
		t.Errorf("expected 1500ms, got %v", f[FieldDuration])
	}
	if f[FieldOperation] != "perform" {
		t.Errorf("expected operation=perform, got %v", f[FieldOperation])
	}
}
