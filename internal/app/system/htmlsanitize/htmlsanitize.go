// Package htmlsanitize strips unsafe markup from admin-supplied free text
// (descriptions, prompts, option labels) before it is stored and later
// rendered by clients.
package htmlsanitize

import "github.com/microcosm-cc/bluemonday"

var (
	// ugc allows common formatting markup but strips scripts, event
	// handlers, and javascript: URLs.
	ugc = bluemonday.UGCPolicy()

	// strict strips all markup, leaving plain text.
	strict = bluemonday.StrictPolicy()
)

// Sanitize cleans s with the UGC policy: safe formatting tags survive,
// anything executable is removed.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	return ugc.Sanitize(s)
}

// PlainText strips all markup from s.
func PlainText(s string) string {
	if s == "" {
		return ""
	}
	return strict.Sanitize(s)
}
