// Package common contains shared constants and small helpers used across
// the SecureBank client packages.
package common

const (
	// AuthorizationHeader carries the bearer session token on outbound requests.
	AuthorizationHeader = "Authorization"

	// BearerScheme is the authorization scheme prefix for the session token.
	BearerScheme = "Bearer"

	// RequestIDHeader carries a per-request correlation id.
	RequestIDHeader = "X-Request-ID"

	// TokenStorageKey is the single key the session token is stored under.
	TokenStorageKey = "token"
)
