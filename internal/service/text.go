package service

import (
	"regexp"
	"strings"
)

const wordsPerMinute = 200

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

// GenerateSlug lowercases title, collapses every run of non-alphanumeric characters
// into a single hyphen and strips hyphens from both ends.
func GenerateSlug(title string) string {
	lower := strings.ToLower(strings.TrimSpace(title))
	hyphenated := nonSlugChars.ReplaceAllString(lower, "-")
	return strings.Trim(hyphenated, "-")
}

// calculateReadingTime returns ceil(words / 200). Empty content reads in 0 minutes.
func calculateReadingTime(content string) int {
	words := len(strings.Fields(content))
	if words == 0 {
		return 0
	}
	return (words + wordsPerMinute - 1) / wordsPerMinute
}

// likePattern escapes LIKE wildcards in term and wraps it for a contains match.
func likePattern(term string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + replacer.Replace(strings.ToLower(term)) + "%"
}

func normalizeTagNames(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	names := make([]string, 0, len(raw))
	for _, name := range raw {
		trimmed := strings.TrimSpace(name)
		if trimmed == "" {
			continue
		}
		key := strings.ToLower(trimmed)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		names = append(names, trimmed)
	}
	return names
}
