// Package migrations embeds the goose migrations for the on-device client
// database (session metadata and the blob cache).
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
