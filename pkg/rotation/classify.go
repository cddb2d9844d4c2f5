package rotation

import "strings"

// Strategy determines how a field's replacement value is generated.
type Strategy string

const (
	// StrategyConnectionString rewrites only the password segment of a
	// connection URL, keeping scheme, user and host intact.
	StrategyConnectionString Strategy = "connection-string"
	// StrategyAPIKey generates a prefixed url-safe token.
	StrategyAPIKey Strategy = "api-key"
	// StrategyRandomToken generates a url-safe random token.
	StrategyRandomToken Strategy = "random-token"
	// StrategyPassword generates a strong random password.
	StrategyPassword Strategy = "password"
	// StrategyUnchanged keeps the current value.
	StrategyUnchanged Strategy = "unchanged"
)

// Classify maps a field name to its rotation strategy.
//
// Matching is case-insensitive and checked in priority order, first match
// wins: the well-known connection URL key, then API keys, then generic
// keys/secrets, then passwords. The ordering is the tie-break that sends a
// name like "api_secret_key" to StrategyAPIKey rather than
// StrategyRandomToken. Names matching nothing fall through to
// StrategyUnchanged; Classify is total and never fails.
func Classify(field string) Strategy {
	name := strings.ToLower(field)

	switch {
	case name == "database_url":
		return StrategyConnectionString
	case (strings.Contains(name, "key") || strings.Contains(name, "secret")) && strings.Contains(name, "api"):
		return StrategyAPIKey
	case strings.Contains(name, "key") || strings.Contains(name, "secret"):
		return StrategyRandomToken
	case strings.Contains(name, "password"):
		return StrategyPassword
	default:
		return StrategyUnchanged
	}
}
