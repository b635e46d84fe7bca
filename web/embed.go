// Package web embeds the browser client served at the root path.
package web

import "embed"

// StaticFS holds index.html and its assets under static/.
//
//go:embed static
var StaticFS embed.FS
