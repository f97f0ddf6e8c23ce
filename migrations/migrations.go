// Package migrations embeds the SQL schema files for each backend.
package migrations

import "embed"

// FS holds sqlite/ (local key/value store) and postgres/ (remote document store).
//
//go:embed sqlite/*.sql postgres/*.sql
var FS embed.FS
