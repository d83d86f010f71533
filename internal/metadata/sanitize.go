package metadata

import (
	"regexp"
	"strings"
)

var (
	lineBreakReplacer = strings.NewReplacer("<br/>", "\n", "<br />", "\n", "<br>", "\n")
	tagPattern        = regexp.MustCompile(`<[^>]*>`)
)

// SanitizeDescription converts line-break tags to newlines and strips every
// remaining tag-like angle-bracket span.
func SanitizeDescription(description string) string {
	return tagPattern.ReplaceAllString(lineBreakReplacer.Replace(description), "")
}
