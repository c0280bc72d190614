// Package assets embeds static files shipped inside the binary.
package assets

import "embed"

// Migrations holds the SQL schema, named for golang-migrate
// (<version>_<name>.up.sql / .down.sql).
//
//go:embed migrations/*.sql
var Migrations embed.FS

// MigrationsDir is the directory inside Migrations holding the scripts.
const MigrationsDir = "migrations"
