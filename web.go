package parlor

import "embed"

// WebFS holds the browser client served by cmd/server.
//
//go:embed web
var WebFS embed.FS
