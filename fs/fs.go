package appfs

import "embed"

// FS holds the seed fixtures and the HTML templates.
//
//go:embed seed all:templates
var FS embed.FS
