// Package migrations embeds the goose migrations of the native secure store.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
