// Package web holds the dashboard templates and assets compiled into the
// binary.
package web

import "embed"

// TemplatesFS holds the page, partial and error templates.
//
//go:embed templates/*.html
var TemplatesFS embed.FS

// StaticFS holds the stylesheet and the notification script served under /static/.
//
//go:embed static/*
var StaticFS embed.FS
