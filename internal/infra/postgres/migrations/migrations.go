package migrations

import "github.com/uptrace/bun/migrate"

// Migrations collects the schema changes for the accounts database.
var Migrations = migrate.NewMigrations()
