// Package console embeds the web assets of the competency console.
package console

import "embed"

// In dev mode the router reads templates and static files from disk instead.

//go:embed all:frontend/static
var StaticFS embed.FS

//go:embed all:frontend/templates
var TemplateFS embed.FS
