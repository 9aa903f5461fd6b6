package web

import "embed"

// Templates holds the HTML templates, parsed once by the router.
//
//go:embed templates/*.html
var Templates embed.FS
