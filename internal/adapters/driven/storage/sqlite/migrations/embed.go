// Package migrations holds the library schema as numbered up/down pairs.
package migrations

import "embed"

// FS is applied in version order by the store on open; only the .up.sql
// halves are run.
//
//go:embed *.sql
var FS embed.FS
