// Package migrations embeds the catalog service's SQL schema migrations.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
