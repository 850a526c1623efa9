// Package migrations holds the versioned SQL schema applied by the migrate
// command and by the server at startup.
package migrations

import "embed"

// FS contains every *.sql migration in this directory.
//
//go:embed *.sql
var FS embed.FS
