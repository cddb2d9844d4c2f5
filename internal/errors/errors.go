package errors

import (
	"fmt"
	"strings"
)

// UserError is an error meant to be shown to the operator with enough
// context to act on it.
type UserError struct {
	Message    string
	Suggestion string
	Details    string
	Err        error
}

func (e UserError) Error() string {
	var parts []string

	if e.Message != "" {
		parts = append(parts, e.Message)
	} else if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}

	if e.Details != "" {
		parts = append(parts, "\n  Details: "+e.Details)
	}

	if e.Suggestion != "" {
		parts = append(parts, "\n  💡 Try: "+e.Suggestion)
	}

	return strings.Join(parts, "")
}

func (e UserError) Unwrap() error {
	return e.Err
}

// ConfigError is a configuration problem with a pointer at the offending field.
type ConfigError struct {
	Field      string
	Value      interface{}
	Message    string
	Suggestion string
}

func (e ConfigError) Error() string {
	msg := "Configuration error"
	if e.Field != "" {
		msg += fmt.Sprintf(" in field '%s'", e.Field)
	}
	if e.Value != nil {
		msg += fmt.Sprintf(" (value: %v)", e.Value)
	}
	msg += ": " + e.Message

	if e.Suggestion != "" {
		msg += "\n  💡 " + e.Suggestion
	}

	return msg
}

// ServiceError wraps an error from one of the backing services with a
// suggestion derived from common failure modes.
func ServiceError(service, operation string, err error) error {
	return UserError{
		Message:    fmt.Sprintf("%s error during %s", service, operation),
		Suggestion: serviceSuggestion(service, err),
		Err:        err,
	}
}

func serviceSuggestion(service string, err error) string {
	errStr := err.Error()

	switch service {
	case "vault":
		if strings.Contains(errStr, "permission denied") {
			return "Check that your token's policies grant access to this path, or run 'vaultops login'"
		}
		if strings.Contains(errStr, "missing client token") || strings.Contains(errStr, "invalid token") {
			return "Set VAULT_TOKEN or authenticate with 'vaultops login'"
		}
		if strings.Contains(errStr, "Vault is sealed") {
			return "Vault is sealed and must be unsealed by an operator before use"
		}

	case "consul":
		if strings.Contains(errStr, "ACL not found") || strings.Contains(errStr, "Permission denied") {
			return "Set CONSUL_HTTP_TOKEN to a token with the required ACL rules"
		}

	case "nomad":
		if strings.Contains(errStr, "Permission denied") {
			return "Set NOMAD_TOKEN to a token with submit-job capability"
		}
		if strings.Contains(errStr, "No cluster leader") {
			return "The Nomad cluster has no leader; check server health before retrying"
		}

	case "prometheus":
		if strings.Contains(errStr, "bad_data") || strings.Contains(errStr, "parse error") {
			return "Check the PromQL expression syntax"
		}
	}

	if strings.Contains(errStr, "timeout") || strings.Contains(errStr, "deadline exceeded") {
		return "The operation timed out. Check your network connection and try again"
	}
	if strings.Contains(errStr, "connection refused") || strings.Contains(errStr, "no such host") {
		return fmt.Sprintf("Unable to connect. Check the %s address in vaultops.yaml or its environment variable", service)
	}
	if strings.Contains(errStr, "certificate") {
		return "TLS verification failed. Check the configured CA certificate"
	}

	return ""
}
