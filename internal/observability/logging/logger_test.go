package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestNewWritesServiceAttribute(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "extract-api", "info")
	logger.Info("extraction_completed", "kind", "report")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if entry["service"] != "extract-api" || entry["msg"] != "extraction_completed" || entry["kind"] != "report" {
		t.Fatalf("unexpected log entry: %v", entry)
	}
}

func TestNewFiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "svc", "warn")
	logger.Info("dropped")
	if buf.Len() != 0 {
		t.Fatalf("expected info to be filtered, got %s", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for input, want := range cases {
		if got := ParseLevel(input); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestNewRedactsRecordContent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "extract-cli", "debug")
	logger.Debug("provider_answer", "answer", `{"patientName":"Jane Doe"}`, "Patient_Name", "Jane Doe", "answer_len", 26)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if entry["answer"] != redacted || entry["Patient_Name"] != redacted {
		t.Fatalf("expected redacted values, got %v", entry)
	}
	if entry["answer_len"] != float64(26) {
		t.Fatalf("expected length to survive, got %v", entry["answer_len"])
	}
}
