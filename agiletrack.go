// Package agiletrack holds assets shared by the AgileTrack binaries.
package agiletrack

import "embed"

// Version is reported by the CLI.
var Version = "0.4.0"

// EmailFS contains the notification templates, one directory per template
// with an html.tmpl and a plaintext.tmpl.
//
//go:embed templates/emails
var EmailFS embed.FS
