package utils

import (
	"strings"
)

// NormalizeForMatch lowercases, trims, and collapses internal whitespace so
// free-text order fields can be compared with plain substring checks.
func NormalizeForMatch(text string) string {
	return CollapseWhitespace(strings.ToLower(strings.TrimSpace(text)))
}

// CollapseWhitespace replaces every run of whitespace with a single space.
func CollapseWhitespace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// ContainsAny reports the first term contained in text, if any. Both sides
// are normalized before comparison; empty terms never match.
func ContainsAny(text string, terms []string) (string, bool) {
	normalized := NormalizeForMatch(text)
	if normalized == "" {
		return "", false
	}
	for _, term := range terms {
		t := NormalizeForMatch(term)
		if t == "" {
			continue
		}
		if strings.Contains(normalized, t) {
			return term, true
		}
	}
	return "", false
}

// SplitList splits a comma-separated field into trimmed, non-empty tokens.
// Used for the example-indication column of the protocol reference.
func SplitList(field string) []string {
	parts := strings.Split(field, ",")
	tokens := make([]string, 0, len(parts))
	for _, part := range parts {
		token := strings.TrimSpace(part)
		if token == "" {
			continue
		}
		tokens = append(tokens, token)
	}
	return tokens
}

// NormalizeHeader canonicalizes a tabular column header: lowercase, trimmed,
// underscores treated as spaces. "IV_Contrast" and "IV Contrast" are the
// same column.
func NormalizeHeader(header string) string {
	h := strings.ReplaceAll(header, "_", " ")
	return CollapseWhitespace(strings.ToLower(strings.TrimSpace(h)))
}

// Truncate shortens a string for log output, appending an ellipsis when cut.
func Truncate(text string, max int) string {
	if max <= 0 || len(text) <= max {
		return text
	}
	if max <= 3 {
		return text[:max]
	}
	return text[:max-3] + "..."
}
