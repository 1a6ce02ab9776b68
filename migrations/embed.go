// Package migrations holds the SQL schema, applied in lexical order of the
// *.up.sql files.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
