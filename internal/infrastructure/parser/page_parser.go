package parser

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"

	"ArticlesDigest/internal/domain"
	"ArticlesDigest/internal/scanner"
)

// PageParser turns a single web page into one item using readability extraction.
type PageParser struct {
	now func() time.Time
}

var _ scanner.Parser = (*PageParser)(nil)

// NewPageParser builds a parser; now supplies the date when the page has none.
func NewPageParser(now func() time.Time) *PageParser {
	if now == nil {
		now = time.Now
	}
	return &PageParser{now: now}
}

// Types implements scanner.Parser.
func (p *PageParser) Types() []domain.FeedType {
	return []domain.FeedType{domain.FeedURL}
}

// Parse implements scanner.Parser.
func (p *PageParser) Parse(_ context.Context, req scanner.Request) ([]domain.Item, error) {
	pageURL, err := url.Parse(req.Feed.URL)
	if err != nil {
		return nil, fmt.Errorf("page url %s: %w", req.Feed.URL, err)
	}

	article, err := readability.FromReader(bytes.NewReader(req.Body), pageURL)
	if err != nil {
		return nil, fmt.Errorf("extract page %s: %w", req.Feed.ID, err)
	}

	title := strings.TrimSpace(article.Title)
	if title == "" {
		title = untitled
	}
	published := p.now().UTC()
	if article.PublishedTime != nil {
		published = article.PublishedTime.UTC()
	}

	return []domain.Item{{
		ID:          req.Feed.URL,
		Title:       title,
		URL:         req.Feed.URL,
		Body:        collapseSpace(article.TextContent),
		Source:      req.Feed.ID,
		PublishedAt: published,
		Author:      strings.TrimSpace(article.Byline),
	}}, nil
}
