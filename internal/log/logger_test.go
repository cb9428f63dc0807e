package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"", slog.LevelInfo, false},
		{"info", slog.LevelInfo, false},
		{"DEBUG", slog.LevelDebug, false},
		{" warn ", slog.LevelWarn, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"verbose", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLoggerTagsComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelDebug, Component: ComponentWorker, Output: &buf})

	logger.Info("recomputed", FieldCount, 3)
	logger.WithComponent(ComponentCache).Debug("hit")

	out := buf.String()
	if !strings.Contains(out, "component=worker") || !strings.Contains(out, "count=3") {
		t.Errorf("unexpected output: %s", out)
	}
	if !strings.Contains(out, "component=cache") {
		t.Errorf("component override missing: %s", out)
	}
}

func TestLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelWarn, Component: ComponentApp, Output: &buf})

	logger.Info("dropped")
	logger.Warn("kept")

	if strings.Contains(buf.String(), "dropped") {
		t.Errorf("info record written at warn level: %s", buf.String())
	}
	if !strings.Contains(buf.String(), "kept") {
		t.Errorf("warn record missing: %s", buf.String())
	}
}

func TestFromContext(t *testing.T) {
	if got := FromContext(context.Background()); got.Component() != "unknown" {
		t.Errorf("FromContext(empty) component = %q", got.Component())
	}

	logger := New(DefaultConfig()).WithComponent(ComponentService)
	ctx := NewContext(context.Background(), logger)
	if got := FromContext(ctx); got != logger {
		t.Errorf("FromContext returned a different logger")
	}
}

func TestLogFields(t *testing.T) {
	f := NewFields().
		WithComponent(ComponentStorage).
		WithOperation(OpImport).
		WithCount(4).
		WithError(errors.New("boom")).
		WithError(nil)

	if len(f.ToSlice()) != 2*len(f) {
		t.Fatalf("ToSlice length = %d, want %d", len(f.ToSlice()), 2*len(f))
	}
	if f[FieldError] != "boom" || f[FieldCount] != 4 {
		t.Errorf("unexpected fields: %v", f)
	}
}

func TestLogFieldsToSliceIsSorted(t *testing.T) {
	got := NewFields().
		WithRevision(7).
		WithReason("import").
		WithReason("").
		WithMessageID("m-1").
		With("has_plan", true).
		ToSlice()

	want := []any{
		"has_plan", true,
		FieldMessageID, "m-1",
		FieldReason, "import",
		FieldRevision, int64(7),
	}
	if len(got) != len(want) {
		t.Fatalf("ToSlice() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ToSlice()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}
