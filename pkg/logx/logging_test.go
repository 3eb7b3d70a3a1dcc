package logx

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()
	tests := []struct {
		raw  string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{" WARN ", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"critical", zerolog.FatalLevel},
		{"", zerolog.InfoLevel},
		{"bogus", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.raw, zerolog.InfoLevel); got != tt.want {
			t.Fatalf("parseLevel(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}

func TestLoggerWritesFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewWriter(&buf, "debug").With(String("comp", "poller"))
	log.Error("fetch failed", Int64("cursor", 1000), Err(errors.New("boom")))

	var m map[string]any
	if err := json.Unmarshal(buf.Bytes(), &m); err != nil {
		t.Fatalf("unmarshal log line: %v (%s)", err, buf.String())
	}
	if m["comp"] != "poller" || m["message"] != "fetch failed" || m["level"] != "error" {
		t.Fatalf("unexpected line: %v", m)
	}
	if m["cursor"] != float64(1000) {
		t.Fatalf("cursor = %v", m["cursor"])
	}
	if _, ok := m["caller"]; !ok {
		t.Fatalf("caller missing: %v", m)
	}
}

func TestCriticalDoesNotExit(t *testing.T) {
	var buf bytes.Buffer
	NewWriter(&buf, "info").Critical("missing credentials")
	if !strings.Contains(buf.String(), `"level":"fatal"`) {
		t.Fatalf("expected fatal level line, got %s", buf.String())
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := NewWriter(&buf, "warn")
	log.Info("dropped")
	if buf.Len() != 0 {
		t.Fatalf("info line should be filtered: %s", buf.String())
	}
	if log.Enabled(LevelDebug) {
		t.Fatal("debug should be disabled")
	}
}

func TestZeroLoggerIsSafe(t *testing.T) {
	var l Logger
	if !l.IsZero() {
		t.Fatal("zero logger should report IsZero")
	}
	l.Info("nothing happens")
	Nop().Error("nothing happens")
}

func TestFormatTelegramJSON(t *testing.T) {
	t.Parallel()
	got := formatTelegramJSON([]byte(`{"level":"error","message":"cycle failed","kind":"network","time":"x"}`))
	want := "[ERROR] cycle failed\n- kind=network"
	if got != want {
		t.Fatalf("formatTelegramJSON = %q, want %q", got, want)
	}
	if got := formatTelegramJSON([]byte("plain line\n")); got != "plain line" {
		t.Fatalf("raw fallback = %q", got)
	}
}
