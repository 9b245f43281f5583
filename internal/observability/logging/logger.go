package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

const redacted = "[redacted]"

// Record content must never reach the logs. Call sites log lengths and kinds,
// and these keys are masked in case one slips through.
var sensitiveKeys = map[string]struct{}{
	"text_content":  {},
	"textcontent":   {},
	"image_data":    {},
	"imagedata":     {},
	"answer":        {},
	"patient_name":  {},
	"patientname":   {},
	"authorization": {},
	"api_key":       {},
}

// NewJSONLogger writes JSON logs to stdout.
func NewJSONLogger(service, level string) *slog.Logger {
	return New(os.Stdout, service, level)
}

// New writes JSON logs to w. The CLI and MCP binaries pass stderr since their
// stdout carries results.
func New(w io.Writer, service, level string) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       ParseLevel(level),
		ReplaceAttr: redact,
	})
	return slog.New(handler).With("service", service)
}

func redact(_ []string, a slog.Attr) slog.Attr {
	if _, ok := sensitiveKeys[strings.ToLower(a.Key)]; ok {
		return slog.String(a.Key, redacted)
	}
	return a
}

func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
