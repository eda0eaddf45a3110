package templates

import "embed"

// FS holds the harness skeleton templates used by harnessgen.
//
//go:embed *.go.tpl
var FS embed.FS
