// Package migrations carries the store's schema as embedded SQL files.
//
// Files are named NNNN_name.up.sql / NNNN_name.down.sql and applied in
// order; the store records each applied version in schema_migrations.
package migrations

import "embed"

// FS holds every migration file compiled into the binary.
//
//go:embed *.sql
var FS embed.FS
