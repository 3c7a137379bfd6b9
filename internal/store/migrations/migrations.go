// Package migrations embeds the ordered schema migration files applied at
// startup. Files run in numeric order; each is written to be safe against a
// database produced by any earlier release, including ones that predate the
// second-factor column.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
