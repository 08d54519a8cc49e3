// Package markdown renders ranked items into the weekly Markdown digest and
// stores it on disk.
package markdown

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"ArticlesDigest/internal/domain"
	"ArticlesDigest/internal/ports"
	"ArticlesDigest/internal/ranking"
)

const (
	highlightCount = 3
	emptyDigest    = "No articles this week. Check back next week!\n"
	generatorName  = "articlesdigest"
)

var escaper = strings.NewReplacer(
	`&`, "&amp;",
	`<`, "&lt;",
	`>`, "&gt;",
	`[`, `\[`,
	`]`, `\]`,
	`(`, `\(`,
	`)`, `\)`,
	`*`, `\*`,
	`_`, `\_`,
	`~`, `\~`,
	"`", "\\`",
)

// Renderer formats the digest document.
type Renderer struct{}

var _ ports.Renderer = Renderer{}

// Render builds the digest for items, which must already be in display order.
func (Renderer) Render(items []domain.RankedItem, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", Escape("Weekly Digest - "+WeekRange(now)))

	if len(items) == 0 {
		b.WriteString(emptyDigest)
		return b.String()
	}

	writeHighlights(&b, items)
	writeSummaries(&b, items)
	writeFurtherReading(&b, items)
	writeTopics(&b, items)

	b.WriteString("---\n\n")
	fmt.Fprintf(&b, "Generated on %s by %s\n", now.UTC().Format("2006-01-02"), generatorName)
	return b.String()
}

func writeHighlights(b *strings.Builder, items []domain.RankedItem) {
	b.WriteString("## Highlights\n\n")
	for _, item := range items[:min(highlightCount, len(items))] {
		fmt.Fprintf(b, "- **%s**: %s.\n", link(item), Escape(firstSentence(item.Summary)))
	}
	b.WriteString("\n")
}

func writeSummaries(b *strings.Builder, items []domain.RankedItem) {
	b.WriteString("## Summaries\n\n")
	for _, item := range items {
		fmt.Fprintf(b, "### %s\n\n", Escape(item.Title))
		fmt.Fprintf(b, "%s\n\n", Escape(item.Summary))
		fmt.Fprintf(b, "Source: [%s](%s)", Escape(item.Source), item.URL)
		if item.Author != "" {
			fmt.Fprintf(b, " - %s", Escape(item.Author))
		}
		b.WriteString("\n\n")
	}
}

func writeFurtherReading(b *strings.Builder, items []domain.RankedItem) {
	bySource := map[string][]int{}
	for i, item := range items {
		bySource[item.Source] = append(bySource[item.Source], i)
	}

	b.WriteString("## Further Reading\n\n")
	writeGroups(b, items, bySource)
}

func writeTopics(b *strings.Builder, items []domain.RankedItem) {
	groups := ranking.GroupByTopic(items)
	if len(groups) <= 1 {
		return
	}
	b.WriteString("## Topics\n\n")
	writeGroups(b, items, groups)
}

func writeGroups(b *strings.Builder, items []domain.RankedItem, groups map[string][]int) {
	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		members := groups[name]
		if len(members) == 0 {
			continue
		}
		fmt.Fprintf(b, "### %s\n\n", Escape(name))
		for _, i := range members {
			fmt.Fprintf(b, "- %s\n", link(items[i]))
		}
		b.WriteString("\n")
	}
}

func link(item domain.RankedItem) string {
	return fmt.Sprintf("[%s](%s)", Escape(item.Title), item.URL)
}

func firstSentence(s string) string {
	if i := strings.Index(s, "."); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

// Escape neutralises Markdown and HTML control characters in text.
func Escape(text string) string {
	return escaper.Replace(text)
}

// WeekRange describes the Sunday-to-Saturday week containing now, e.g.
// "2 Nov - 8 Nov, 2025".
func WeekRange(now time.Time) string {
	start := now.AddDate(0, 0, -int(now.Weekday()))
	end := start.AddDate(0, 0, 6)
	return fmt.Sprintf("%s - %s, %d", start.Format("2 Jan"), end.Format("2 Jan"), end.Year())
}
