// Package migrations embeds the goose SQL migrations that define the vault's
// on-disk schema: plaintext index columns plus encrypted payload blobs.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
