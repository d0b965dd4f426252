package app

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLogLevel(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want slog.Level
	}{
		{in: "debug", want: slog.LevelDebug},
		{in: "INFO", want: slog.LevelInfo},
		{in: "warn", want: slog.LevelWarn},
		{in: "warning", want: slog.LevelWarn},
		{in: "error", want: slog.LevelError},
		{in: "unknown", want: slog.LevelInfo},
		{in: "", want: slog.LevelInfo},
	}

	for _, tc := range cases {
		got := parseLogLevel(tc.in)
		if got != tc.want {
			t.Fatalf("parseLogLevel(%q)=%v want=%v", tc.in, got, tc.want)
		}
	}
}

func TestNewLogHandler_Formats(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	slog.New(newLogHandler(&buf, "info", "json")).Info("auth.login.ok", "user_key", "u1")
	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("json output: %v (%q)", err, buf.String())
	}
	if rec["msg"] != "auth.login.ok" || rec["user_key"] != "u1" {
		t.Fatalf("unexpected record %v", rec)
	}

	buf.Reset()
	slog.New(newLogHandler(&buf, "info", "text")).Info("auth.login.ok")
	if !strings.Contains(buf.String(), "msg=auth.login.ok") {
		t.Fatalf("text output %q", buf.String())
	}

	buf.Reset()
	slog.New(newLogHandler(&buf, "warn", "pretty")).Info("dropped")
	if buf.Len() != 0 {
		t.Fatalf("info record should be filtered at warn, got %q", buf.String())
	}
}
