// Package client is the single HTTP transport both parking apps use to talk
// to the backend.
//
// # Overview
//
// HTTPClient holds the base endpoint, the default timeout and the role path
// prefix (/api/v1/owner or /api/v1/driver). Every request passes through two
// interception points:
//
//  1. outbound: the stored session token, if any, is attached as
//     "Authorization: Bearer <token>"; an X-Request-ID and W3C trace headers
//     are added.
//  2. inbound: a 401 clears the credential store and publishes
//     events.ReasonUnauthorized before the error is returned. Any other
//     failure is returned with no side effects.
//
// # Error Handling
//
// Failures are reported as *APIError. Match the kind with errors.Is against
// ErrUnauthorized, ErrNetwork, ErrServer or ErrClient, or inspect
// APIError.Detail for the server's message.
//
// Network failures and 5xx responses feed a circuit breaker; while it is
// open requests fail fast with an ErrNetwork error and are never retried.
//
// # Concurrency
//
// HTTPClient is safe for concurrent use. Concurrent 401s each run the
// clear-and-publish sequence; both steps are idempotent.
package client
