package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateSlug(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  string
	}{
		{name: "plain", title: "Hello World", want: "hello-world"},
		{name: "punctuation runs", title: "Go: tips & tricks!!", want: "go-tips-tricks"},
		{name: "leading and trailing", title: "  --Trim me--  ", want: "trim-me"},
		{name: "digits kept", title: "Top 10 Go libs in 2024", want: "top-10-go-libs-in-2024"},
		{name: "non ascii dropped", title: "Café résumé", want: "caf-r-sum"},
		{name: "nothing left", title: "!!!", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GenerateSlug(tt.title))
		})
	}
}

func TestCalculateReadingTime(t *testing.T) {
	assert.Equal(t, 0, calculateReadingTime(""))
	assert.Equal(t, 0, calculateReadingTime("   \n\t "))
	assert.Equal(t, 1, calculateReadingTime("one"))
	assert.Equal(t, 1, calculateReadingTime(strings.Repeat("word ", 200)))
	assert.Equal(t, 2, calculateReadingTime(strings.Repeat("word ", 201)))
	assert.Equal(t, 5, calculateReadingTime(strings.Repeat("word ", 1000)))
}

func TestLikePatternEscapesWildcards(t *testing.T) {
	assert.Equal(t, `%100\%%`, likePattern("100%"))
	assert.Equal(t, `%snake\_case%`, likePattern("Snake_Case"))
	assert.Equal(t, `%a\\b%`, likePattern(`a\b`))
}

func TestNormalizeTagNames(t *testing.T) {
	got := normalizeTagNames([]string{" Go ", "go", "", "Web", "  ", "WEB", "sql"})
	assert.Equal(t, []string{"Go", "Web", "sql"}, got)
}
