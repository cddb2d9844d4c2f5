package logging

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
)

func TestLoggerPlainOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, false, true)

	logger.Info("stored secret at %s", "applications/web/production")
	logger.Warn("backup is %d days old", 3)
	logger.Error("write failed")

	out := buf.String()
	if !strings.Contains(out, "✓ stored secret at applications/web/production") {
		t.Errorf("missing info line, got: %q", out)
	}
	if !strings.Contains(out, "⚠ backup is 3 days old") {
		t.Errorf("missing warn line, got: %q", out)
	}
	if !strings.Contains(out, "✗ write failed") {
		t.Errorf("missing error line, got: %q", out)
	}
}

func TestLoggerDebugSuppressed(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, false, true)

	logger.Debug("should not appear")
	if buf.Len() != 0 {
		t.Errorf("expected no output, got: %q", buf.String())
	}

	debugLogger := NewWithWriter(&buf, true, true)
	debugLogger.Debug("now visible")
	if !strings.Contains(buf.String(), "[DEBUG] now visible") {
		t.Errorf("expected debug line, got: %q", buf.String())
	}
}

func TestSecretRedaction(t *testing.T) {
	s := Secret("hvs.super-secret-token")

	if got := fmt.Sprintf("%s", s); got != "[REDACTED]" {
		t.Errorf("String() leaked secret: %s", got)
	}
	if got := fmt.Sprintf("%v", s); got != "[REDACTED]" {
		t.Errorf("%%v leaked secret: %s", got)
	}
	if got := fmt.Sprintf("%#v", s); got != "[REDACTED]" {
		t.Errorf("%%#v leaked secret: %s", got)
	}
}

func TestRedact(t *testing.T) {
	out := Redact("postgresql://app:oldpw123@db:5432/appdb", []string{"oldpw123"})
	if out != "postgresql://app:[REDACTED]@db:5432/appdb" {
		t.Errorf("unexpected redaction result: %s", out)
	}

	// Short values must not be redacted.
	out = Redact("region us-east", []string{"us"})
	if out != "region us-east" {
		t.Errorf("short secret should be left alone, got: %s", out)
	}

	// Empty secret list is a no-op.
	out = Redact("plain", nil)
	if out != "plain" {
		t.Errorf("expected no-op, got: %s", out)
	}
}
