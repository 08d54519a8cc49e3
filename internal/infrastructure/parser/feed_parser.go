package parser

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"ArticlesDigest/internal/domain"
	"ArticlesDigest/internal/scanner"
)

const untitled = "Untitled"

// FeedParser handles RSS and Atom documents, including GitHub release and
// YouTube channel feeds which are plain Atom.
type FeedParser struct {
	now func() time.Time
}

var _ scanner.Parser = (*FeedParser)(nil)

// NewFeedParser builds a parser; now supplies the fallback publication date.
func NewFeedParser(now func() time.Time) *FeedParser {
	if now == nil {
		now = time.Now
	}
	return &FeedParser{now: now}
}

// Types implements scanner.Parser.
func (p *FeedParser) Types() []domain.FeedType {
	return []domain.FeedType{domain.FeedRSS, domain.FeedAtom, domain.FeedGithub, domain.FeedYoutube}
}

// Parse implements scanner.Parser.
func (p *FeedParser) Parse(_ context.Context, req scanner.Request) ([]domain.Item, error) {
	feed, err := gofeed.NewParser().Parse(bytes.NewReader(req.Body))
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", req.Feed.ID, err)
	}

	items := make([]domain.Item, 0, len(feed.Items))
	for i, entry := range feed.Items {
		if entry == nil {
			continue
		}
		items = append(items, p.toItem(req.Feed.ID, i, entry))
	}
	return items, nil
}

func (p *FeedParser) toItem(source string, index int, entry *gofeed.Item) domain.Item {
	id := strings.TrimSpace(entry.GUID)
	if id == "" {
		id = fmt.Sprintf("%s_%d", source, index)
	}

	title := htmlToText(entry.Title)
	if title == "" {
		title = untitled
	}

	link := strings.TrimSpace(entry.Link)
	if link == "" && len(entry.Links) > 0 {
		link = strings.TrimSpace(entry.Links[0])
	}

	body := entry.Content
	if strings.TrimSpace(body) == "" {
		body = entry.Description
	}

	var author string
	if len(entry.Authors) > 0 && entry.Authors[0] != nil {
		author = entry.Authors[0].Name
	}

	published := p.now().UTC()
	switch {
	case entry.PublishedParsed != nil:
		published = entry.PublishedParsed.UTC()
	case entry.UpdatedParsed != nil:
		published = entry.UpdatedParsed.UTC()
	}

	var tags []string
	for _, c := range entry.Categories {
		if c = strings.TrimSpace(c); c != "" {
			tags = append(tags, c)
		}
	}

	return domain.Item{
		ID:          id,
		Title:       title,
		URL:         link,
		Body:        htmlToText(body),
		Source:      source,
		PublishedAt: published,
		Author:      strings.TrimSpace(author),
		Tags:        tags,
	}
}
