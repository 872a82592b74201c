// Package cli provides the interactive front end shared by the owner and
// driver apps.
//
// App wires a session owner, the API client and an optional metrics
// registry into a line-oriented REPL. The prompt always reflects the
// current session: when the backend rejects the token the next prompt is
// the guest prompt again, with no extra message. A background watcher
// pings the health endpoint and shows whether the server is reachable.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// See App, StartOnlineStatusWatcher, and runREPL for details.
package cli
