package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"verbose": slog.LevelInfo,
		"":        slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewWithWriter_JSONInProduction(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "creditos-api", "info", "production")

	log.Info("Server starting", "port", 8080)
	log.Debug("hidden")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected exactly one line (debug filtered), got %d", len(lines))
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("expected JSON output: %v", err)
	}
	if entry["app"] != "creditos-api" {
		t.Errorf("expected app attribute, got %v", entry["app"])
	}
	if entry["msg"] != "Server starting" {
		t.Errorf("unexpected msg %v", entry["msg"])
	}
}

func TestNewWithWriter_TextLocally(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "consulta-creditos", "debug", "local")

	log.Debug("Query dispatched")

	out := buf.String()
	if !strings.Contains(out, "level=DEBUG") || !strings.Contains(out, `msg="Query dispatched"`) {
		t.Errorf("expected text output, got %q", out)
	}
	if strings.Contains(out, "\033[") {
		t.Error("non-terminal writers must not get color codes")
	}
}

func TestColorWriter(t *testing.T) {
	var buf bytes.Buffer
	cw := colorWriter{w: &buf}

	in := []byte("time=now level=ERROR msg=boom\n")
	n, err := cw.Write(in)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != len(in) {
		t.Errorf("expected reported length %d, got %d", len(in), n)
	}
	if !strings.Contains(buf.String(), "\033[31mlevel=ERROR\033[0m") {
		t.Errorf("expected red level, got %q", buf.String())
	}
}
