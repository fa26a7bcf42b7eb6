package engine

import (
	"html"
	"regexp"

	"github.com/anatolykoptev/go-kit/strutil"
)

var htmlTagRe = regexp.MustCompile(`(?i)<[^>]*>`)

// CleanCaption unescapes HTML entities in a caption line and strips any markup.
// Whitespace is preserved as delivered.
func CleanCaption(s string) string {
	return htmlTagRe.ReplaceAllString(html.UnescapeString(s), "")
}

// Snippet shortens upstream bodies quoted in error messages.
func Snippet(b []byte, limit int) string {
	return strutil.TruncateWith(string(b), limit, "...")
}
