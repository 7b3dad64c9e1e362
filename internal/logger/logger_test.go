package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{" WARN ", zapcore.WarnLevel},
		{"warning", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"", zapcore.InfoLevel},
		{"verbose", zapcore.InfoLevel},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNew_WritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "eventwatch.log")

	l, err := New(Options{Level: "warn", Encoding: "json", OutputPath: path})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	l.Named("poller").Info("dropped by level")
	l.Named("poller").Warn("fetch failed", zap.Int("failures", 2))
	l.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d: %q", len(lines), data)
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("invalid JSON line: %v", err)
	}
	if entry["msg"] != "fetch failed" || entry["logger"] != "poller" || entry["failures"] != float64(2) {
		t.Errorf("unexpected entry: %v", entry)
	}
}

func TestNew_RejectsUnknownEncoding(t *testing.T) {
	if _, err := New(Options{Encoding: "xml"}); err == nil {
		t.Error("expected error for unknown encoding")
	}
}
