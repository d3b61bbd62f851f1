package utils

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// policy is the allow-list for user-submitted rich text. It mirrors what the
// rich-text editor can emit: basic formatting, quotes, lists, links and one
// heading level. Links are restricted to http/https/mailto and rewritten to
// rel=nofollow target=_blank so user content cannot leak referrers or hijack
// the opener tab.
var policy = buildPolicy()

func buildPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("p", "br", "strong", "b", "em", "i", "u", "blockquote", "ul", "ol", "li", "h2")
	p.AllowAttrs("href", "title", "target", "rel").OnElements("a")
	p.AllowURLSchemes("http", "https", "mailto")
	p.RequireNoFollowOnLinks(true)
	p.AddTargetBlankToFullyQualifiedLinks(true)
	return p
}

// SanitizeHTML cleans user HTML against the allow-list. The result is
// deterministic and idempotent. Callers must treat an empty or
// whitespace-only result as invalid content, separately from empty raw input.
func SanitizeHTML(input string) string {
	return policy.Sanitize(input)
}

// IsBlankHTML reports whether sanitized content is empty after trimming
// whitespace. Markup that survived sanitization counts as content even when
// it encloses no text.
func IsBlankHTML(s string) bool {
	return strings.TrimSpace(s) == ""
}
