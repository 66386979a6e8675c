// Package htmlsanitize strips markup from untrusted form input before it is
// forwarded to third parties. It uses bluemonday's strict policy, which keeps
// text content and drops every tag and attribute.
package htmlsanitize

import (
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	policy     *bluemonday.Policy
	policyOnce sync.Once
)

func getPolicy() *bluemonday.Policy {
	policyOnce.Do(func() {
		policy = bluemonday.StrictPolicy()
	})
	return policy
}

// Text returns s with all HTML removed and surrounding whitespace trimmed.
// Entities produced by the sanitizer are unescaped so "A & B" stays readable
// in the CRM.
func Text(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(getPolicy().Sanitize(s)))
}

// IsPlainText reports whether s contains no markup.
func IsPlainText(s string) bool {
	if s == "" {
		return true
	}
	return !strings.Contains(s, "<") || !strings.Contains(s, ">")
}
