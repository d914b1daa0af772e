// Package migrations embeds the goose migration scripts for the client's
// local cache database.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
