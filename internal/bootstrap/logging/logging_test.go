package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWithAttrsOverridesByKey(t *testing.T) {
	var buf bytes.Buffer
	logger, closer, err := New(&buf, Options{Level: "debug", Format: "json"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer closer.Close()

	ctx := WithLogger(context.Background(), logger)
	ctx = WithAttrs(ctx, slog.String("component", "a"), slog.String("entity", "hazards"))
	ctx = WithAttrs(ctx, slog.String("component", "b"))
	Debug(ctx, "page fetched", slog.Int("items", 3))

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("decode log line %q: %v", buf.String(), err)
	}
	if record["component"] != "b" || record["entity"] != "hazards" || record["msg"] != "page fetched" {
		t.Fatalf("record = %#v", record)
	}
}

func TestNewRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, closer, err := New(&buf, Options{Level: "warn"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer closer.Close()

	ctx := WithLogger(context.Background(), logger)
	Info(ctx, "hidden")
	Warn(ctx, "shown")

	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "shown") {
		t.Fatalf("output = %q", out)
	}
}

func TestNewWritesRotatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "sync.log")
	var console bytes.Buffer
	logger, closer, err := New(&console, Options{File: path, MaxSizeMB: 1})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	Info(WithLogger(context.Background(), logger), "sync finished")
	if err := closer.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "sync finished") || !strings.Contains(console.String(), "sync finished") {
		t.Fatalf("file = %q console = %q", data, console.String())
	}
}

func TestNewRejectsUnknownOptions(t *testing.T) {
	if _, _, err := New(&bytes.Buffer{}, Options{Level: "loud"}); err == nil {
		t.Fatalf("New() expected error for unknown level")
	}
	if _, _, err := New(&bytes.Buffer{}, Options{Format: "xml"}); err == nil {
		t.Fatalf("New() expected error for unknown format")
	}
}
