// Package migrations holds the bun migrations for the quiz content schema.
package migrations

import "github.com/uptrace/bun/migrate"

// Migrations is the ordered set applied by `migrate` and on server start.
var Migrations = migrate.NewMigrations()
