package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestUserErrorFormatting(t *testing.T) {
	err := UserError{
		Message:    "Environment not found",
		Details:    "no secrets stored under applications/web/qa",
		Suggestion: "Run 'vaultops setup web --environments qa' first",
	}

	msg := err.Error()
	if !strings.Contains(msg, "Environment not found") {
		t.Errorf("missing message: %s", msg)
	}
	if !strings.Contains(msg, "Details: no secrets stored") {
		t.Errorf("missing details: %s", msg)
	}
	if !strings.Contains(msg, "Try: Run 'vaultops setup") {
		t.Errorf("missing suggestion: %s", msg)
	}
}

func TestUserErrorFallsBackToWrapped(t *testing.T) {
	inner := errors.New("dial tcp: connection refused")
	err := UserError{Err: inner}

	if !strings.Contains(err.Error(), "connection refused") {
		t.Errorf("expected wrapped error text, got: %s", err.Error())
	}
	if !errors.Is(err, inner) {
		t.Error("Unwrap should expose the inner error")
	}
}

func TestConfigErrorFormatting(t *testing.T) {
	err := ConfigError{
		Field:      "vault.address",
		Value:      "not-a-url",
		Message:    "invalid address",
		Suggestion: "Use the form https://host:8200",
	}

	msg := err.Error()
	for _, want := range []string{"vault.address", "not-a-url", "invalid address", "https://host:8200"} {
		if !strings.Contains(msg, want) {
			t.Errorf("expected %q in: %s", want, msg)
		}
	}
}

func TestServiceErrorSuggestions(t *testing.T) {
	tests := []struct {
		service string
		err     string
		want    string
	}{
		{"vault", "Error making API request: permission denied", "vaultops login"},
		{"vault", "missing client token", "VAULT_TOKEN"},
		{"consul", "Unexpected response code: 403 (ACL not found)", "CONSUL_HTTP_TOKEN"},
		{"nomad", "No cluster leader", "no leader"},
		{"prometheus", "bad_data: parse error at char 5", "PromQL"},
		{"vault", "context deadline exceeded", "timed out"},
		{"nomad", "dial tcp 127.0.0.1:4646: connection refused", "nomad address"},
	}

	for _, tt := range tests {
		err := ServiceError(tt.service, "read", fmt.Errorf("%s", tt.err))
		var ue UserError
		if !errors.As(err, &ue) {
			t.Fatalf("expected UserError, got %T", err)
		}
		if !strings.Contains(strings.ToLower(ue.Suggestion), strings.ToLower(tt.want)) {
			t.Errorf("service=%s err=%q: suggestion %q does not mention %q",
				tt.service, tt.err, ue.Suggestion, tt.want)
		}
	}
}

func TestServiceErrorWithoutSuggestion(t *testing.T) {
	err := ServiceError("vault", "write", errors.New("something odd"))
	if strings.Contains(err.Error(), "Try:") {
		t.Errorf("unexpected suggestion for unknown error: %s", err.Error())
	}
}
