// Package migrations embeds the SQL migrations so binaries and tests can
// apply them without a checkout.
package migrations

import "embed"

// FS holds every *.sql file of this directory
//
//go:embed *.sql
var FS embed.FS
