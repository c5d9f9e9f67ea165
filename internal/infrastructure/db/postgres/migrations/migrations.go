// Package migrations embeds the SQL migrations applied at startup via goose.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
