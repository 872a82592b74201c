// Package common contains shared constants and sentinel errors used across
// the parking client components.
package common

const (
	// AuthorizationHeaderName carries the bearer credential on outbound requests.
	AuthorizationHeaderName = "Authorization"

	// BearerPrefix precedes the session token in the Authorization header.
	BearerPrefix = "Bearer "

	// RequestIDHeaderName tags each outbound request with a unique id.
	RequestIDHeaderName = "X-Request-ID"
)
