// Package sanitize cleans rendered HTML and normalises slugs.
package sanitize

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	ugcPolicy = bluemonday.UGCPolicy()

	whitespaceRun = regexp.MustCompile(`\s+`)
	hyphenRun     = regexp.MustCompile(`-{2,}`)
)

// HTML strips scripts, event handlers and other unsafe markup, keeping the
// tags a rich text editor produces.
func HTML(s string) string {
	return ugcPolicy.Sanitize(s)
}

// Slug lower-cases s, folds accents and turns whitespace runs into single
// hyphens. Other characters are kept; callers decide which are allowed.
func Slug(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, err := transform.String(t, strings.TrimSpace(s))
	if err != nil {
		result = strings.TrimSpace(s)
	}
	result = strings.ToLower(result)
	result = whitespaceRun.ReplaceAllString(result, "-")
	result = hyphenRun.ReplaceAllString(result, "-")
	return strings.Trim(result, "-")
}
