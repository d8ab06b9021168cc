package migrations

import "embed"

// FS contains the embedded PostgreSQL schema.
//
//go:embed *.sql
var FS embed.FS
