package memory

import (
	"regexp"
	"strings"
)

// NormalizeContent canonicalizes content for duplicate comparison: trims,
// lowercases, and collapses internal whitespace runs to single spaces.
func NormalizeContent(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

var (
	boldRe    = regexp.MustCompile(`\*\*([^*]*)\*\*`)
	italicRe  = regexp.MustCompile(`(^|[^*])\*([^*]+)\*`)
	underRe   = regexp.MustCompile(`__([^_]*)__`)
	codeRe    = regexp.MustCompile("`([^`]*)`")
	headingRe = regexp.MustCompile(`(?m)^#{1,6}\s+`)
	bulletRe  = regexp.MustCompile(`(?m)^\s*[-*+]\s+`)
	blankRe   = regexp.MustCompile(`\n{3,}`)
)

// CleanFormatting strips residual markdown markup that generation output
// sometimes leaks into memory content: emphasis markers, inline code,
// heading prefixes, and list bullets. The rewrite is destructive and
// idempotent.
func CleanFormatting(s string) string {
	s = boldRe.ReplaceAllString(s, "$1")
	s = underRe.ReplaceAllString(s, "$1")
	s = italicRe.ReplaceAllString(s, "$1$2")
	s = codeRe.ReplaceAllString(s, "$1")
	s = headingRe.ReplaceAllString(s, "")
	s = bulletRe.ReplaceAllString(s, "")
	s = blankRe.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// DedupeTags collapses duplicate tags (case-insensitive) while preserving
// first-seen order, and drops empty tags.
func DedupeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		key := strings.ToLower(tag)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, tag)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
