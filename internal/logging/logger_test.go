package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/Leshadowx/epicenter-AlvaroRemix/internal/services"
)

func TestConsoleHandlerRendersComponentAndFields(t *testing.T) {
	var buf bytes.Buffer
	levelVar := new(slog.LevelVar)
	logger := slog.New(newConsoleHandler(&buf, levelVar, false))

	logger.With(String(FieldComponent, "transcriber")).Info(
		"chunk transcribed",
		Int(FieldChunk, 2),
		String(FieldProvider, "openai"),
	)

	out := buf.String()
	if !strings.Contains(out, "[transcriber]") {
		t.Fatalf("expected component in headline, got %q", out)
	}
	if !strings.Contains(out, "chunk transcribed") {
		t.Fatalf("expected message in output, got %q", out)
	}
	if !strings.Contains(out, "chunk: 2") || !strings.Contains(out, "provider: openai") {
		t.Fatalf("expected indented fields, got %q", out)
	}
}

func TestConsoleHandlerHonorsLevel(t *testing.T) {
	var buf bytes.Buffer
	levelVar := new(slog.LevelVar)
	levelVar.Set(slog.LevelWarn)
	logger := slog.New(newConsoleHandler(&buf, levelVar, false))

	logger.Info("quiet")
	if buf.Len() != 0 {
		t.Fatalf("expected info suppressed at warn level, got %q", buf.String())
	}
	logger.Warn("loud")
	if !strings.Contains(buf.String(), "loud") {
		t.Fatalf("expected warn output, got %q", buf.String())
	}
}

func TestWithContextAddsItemFields(t *testing.T) {
	var buf bytes.Buffer
	levelVar := new(slog.LevelVar)
	logger := slog.New(newConsoleHandler(&buf, levelVar, false))

	ctx := services.WithItemID(context.Background(), 42)
	ctx = services.WithStage(ctx, "preparing")

	WithContext(ctx, logger).Info("working")

	out := buf.String()
	if !strings.Contains(out, "item_id: 42") {
		t.Fatalf("expected item id field, got %q", out)
	}
	if !strings.Contains(out, "stage: preparing") {
		t.Fatalf("expected stage field, got %q", out)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestParseLevelDefaults(t *testing.T) {
	if got := parseLevel("nonsense"); got != slog.LevelInfo {
		t.Fatalf("expected info for unknown level, got %v", got)
	}
	if got := parseLevel("DEBUG"); got != slog.LevelDebug {
		t.Fatalf("expected debug, got %v", got)
	}
}
