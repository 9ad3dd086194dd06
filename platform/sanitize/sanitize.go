// Package sanitize strips markup from user-provided free text before it is
// stored.
package sanitize

import (
	"regexp"
	"strings"
)

var htmlTagRegex = regexp.MustCompile(`<[^>]*>`)

var entityReplacer = strings.NewReplacer(
	"&lt;", "<",
	"&gt;", ">",
	"&amp;", "&",
	"&quot;", "\"",
	"&#39;", "'",
)

// Text removes HTML tags, decodes common entities and trims the result.
// Tags are stripped again after decoding to catch encoded markup.
func Text(s string) string {
	result := htmlTagRegex.ReplaceAllString(s, "")
	result = entityReplacer.Replace(result)
	result = htmlTagRegex.ReplaceAllString(result, "")
	return strings.TrimSpace(result)
}

// TextPtr sanitizes an optional value. Nil stays nil.
func TextPtr(s *string) *string {
	if s == nil {
		return nil
	}
	result := Text(*s)
	return &result
}

// Labels sanitizes every label and drops the ones left empty. Nil stays nil
// so an absent list is not turned into a write.
func Labels(labels []string) []string {
	if labels == nil {
		return nil
	}
	out := make([]string, 0, len(labels))
	for _, label := range labels {
		if cleaned := Text(label); cleaned != "" {
			out = append(out, cleaned)
		}
	}
	return out
}
