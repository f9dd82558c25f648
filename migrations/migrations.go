// Package migrations embeds the goose SQL schema so the application and the
// test fixtures share one migration source.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
