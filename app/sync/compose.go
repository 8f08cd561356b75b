package sync

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/lysyi3m/rss-board/app/feed"
)

const (
	titleMaxLength = 100
	issueFooter    = "*This issue was created automatically from an RSS feed.*"
)

var htmlTagPattern = regexp.MustCompile(`<[^>]+>`)

// RenderTitle strips markup from the item title and caps its length so
// it fits a tracker issue title.
func RenderTitle(item feed.Item) string {
	title := strings.TrimSpace(htmlTagPattern.ReplaceAllString(item.Title, ""))
	if title == "" {
		title = "Untitled"
	}

	runes := []rune(title)
	if len(runes) > titleMaxLength {
		title = string(runes[:titleMaxLength]) + "..."
	}

	return title
}

// RenderBody formats the issue body as Markdown: source link, publish
// date, item metadata, content and a footer marking the issue as
// generated. The item identity is never embedded in the rendered text.
func RenderBody(item feed.Item) string {
	var parts []string

	if item.Link != "" {
		parts = append(parts, fmt.Sprintf("**Link**: %s", item.Link))
	}

	if !item.PublishedAt.IsZero() {
		parts = append(parts, fmt.Sprintf("**Published**: %s", item.PublishedAt.Format("2006-01-02 15:04")))
	}

	if len(item.Authors) > 0 {
		parts = append(parts, fmt.Sprintf("**Authors**: %s", strings.Join(item.Authors, ", ")))
	}

	if len(item.Categories) > 0 {
		parts = append(parts, fmt.Sprintf("**Categories**: %s", strings.Join(item.Categories, ", ")))
	}

	if item.Body != "" {
		parts = append(parts, "## Content", item.Body)
	}

	parts = append(parts, "---", issueFooter)

	return strings.Join(parts, "\n\n")
}
