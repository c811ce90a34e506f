package service

import (
	"regexp"
	"strings"
)

var markdownImagePattern = regexp.MustCompile(`!\[[^\]]*]\((<[^>]+>|[^)\s]+)([^)]*)\)`)

// markdownImageURLs 返回 Markdown 正文中所有图片链接，按出现顺序
func markdownImageURLs(content string) []string {
	matches := markdownImagePattern.FindAllStringSubmatch(content, -1)
	urls := make([]string, 0, len(matches))
	for _, groups := range matches {
		if len(groups) < 2 {
			continue
		}
		url := strings.TrimSuffix(strings.TrimPrefix(groups[1], "<"), ">")
		if url = strings.TrimSpace(url); url != "" {
			urls = append(urls, url)
		}
	}
	return urls
}

// featuredImageFor falls back to the first image of the body when no cover is given.
func featuredImageFor(input PostInput) string {
	if image := strings.TrimSpace(input.FeaturedImage); image != "" {
		return image
	}
	if urls := markdownImageURLs(input.Content); len(urls) > 0 {
		return urls[0]
	}
	return ""
}
