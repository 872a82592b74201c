package common

import "errors"

var (
	// ErrorNotFound is returned by lookups that found nothing.
	ErrorNotFound = errors.New("not found")

	// ErrInvalidToken is returned when a stored token cannot be decoded.
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenExpired is returned when a stored token is past its expiry.
	ErrTokenExpired = errors.New("token expired")

	// ErrRoleMismatch is returned when a token was issued for another app role.
	ErrRoleMismatch = errors.New("token issued for another role")
)
