// Package migrations embeds the schema for each supported SQL dialect.
package migrations

import "embed"

// FS holds one directory of ordered *.sql files per dialect.
//
//go:embed postgres/*.sql sqlite/*.sql
var FS embed.FS
