// Package migrations provides embedded goose SQL migration files.
package migrations

import "embed"

// FS holds the goose migrations under sql/.
//
//go:embed sql/*.sql
var FS embed.FS

// Dir is the directory inside FS that holds the migrations.
const Dir = "sql"
