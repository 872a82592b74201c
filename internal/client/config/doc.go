// Package config loads runtime configuration for the parking client apps.
//
// Sources & precedence
//
//  1. Built-in defaults for the app's role (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with -c or -config (see parseJSON).
//  3. PARK_* environment variables (see parseEnv).
//  4. Command-line flags (see parseFlags).
//
// Later sources override earlier ones; the result is validated before it is
// returned.
//
// Supported flags
//
//	-a string   backend base URL, e.g. http://127.0.0.1:8000
//	-t int      request timeout (seconds)
//	-d string   path of the local SQLite database
//	-i int      online status check interval (seconds)
//	-l string   log level: debug, info, warn, error
//
// # JSON schema
//
// Durations are strings like "10s" or integer nanoseconds (timex.Duration):
//
//	{
//	  "server_url": "http://127.0.0.1:8000",
//	  "request_timeout": "10s",
//	  "db_path": "owner.db",
//	  "validate_on_startup": true,
//	  "online_check_interval": "3s",
//	  "log_level": "info"
//	}
package config
