// Package migrations holds the versioned schema applied by "turno-server migrate up".
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
