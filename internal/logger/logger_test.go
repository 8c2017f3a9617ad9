package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"ERR", zerolog.ErrorLevel},
		{"off", zerolog.Disabled},
		{"", zerolog.InfoLevel},
		{"something", zerolog.InfoLevel},
	}
	for _, c := range cases {
		if got := parseLevel(c.in); got != c.want {
			t.Fatalf("parseLevel(%q)=%v, want %v", c.in, got, c.want)
		}
	}
}

func TestInitWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	Init("info", false, &buf)
	L().Debug().Msg("hidden")
	L().Info().Str("k", "v").Msg("shown")

	line := strings.TrimSpace(buf.String())
	if strings.Contains(line, "hidden") {
		t.Fatalf("debug line should be filtered at info level: %s", line)
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(line), &m); err != nil {
		t.Fatalf("expected one JSON line, got %q: %v", line, err)
	}
	if m["message"] != "shown" || m["k"] != "v" {
		t.Fatalf("unexpected fields: %v", m)
	}
}

func TestInitPretty(t *testing.T) {
	var buf bytes.Buffer
	Init("debug", true, &buf)
	if L().GetLevel() != zerolog.DebugLevel {
		t.Fatalf("expected debug level, got %v", L().GetLevel())
	}
	L().Debug().Msg("hello")
	if strings.HasPrefix(strings.TrimSpace(buf.String()), "{") {
		t.Fatalf("pretty output should not be JSON: %q", buf.String())
	}
}

func TestLoggerAccessor_NotNil(t *testing.T) {
	mu.Lock()
	base, ready = zerolog.Logger{}, false
	mu.Unlock()
	lg := L()
	if lg == nil {
		t.Fatalf("logger is nil")
	}
	if lg.GetLevel() != zerolog.WarnLevel {
		t.Fatalf("lazy init should default to warn, got %v", lg.GetLevel())
	}
}

func TestLazyInitWritesEvents(t *testing.T) {
	mu.Lock()
	base, ready = zerolog.Logger{}, false
	mu.Unlock()
	lg := L()
	if !lg.Warn().Enabled() {
		t.Fatalf("warn events should be enabled after lazy init")
	}
	if lg.Info().Enabled() {
		t.Fatalf("info events should be filtered after lazy init")
	}
	var buf bytes.Buffer
	Init("info", false, &buf)
	L().Info().Msg("after init")
	if !strings.Contains(buf.String(), "after init") {
		t.Fatalf("Init after lazy init should replace the writer, got %q", buf.String())
	}
}
