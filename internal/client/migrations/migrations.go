// Package migrations embeds the SQL migrations for the client's local
// database. They are applied by storage.RunMigrations through goose.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
