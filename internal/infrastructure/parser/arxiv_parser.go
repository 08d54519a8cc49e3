package parser

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"ArticlesDigest/internal/domain"
	"ArticlesDigest/internal/scanner"
)

const (
	arxivBaseURL     = "https://arxiv.org"
	arxivPagesOption = "pages"
)

var dateExpr = regexp.MustCompile(`\d{1,2} [A-Za-z]{3} \d{4}`)

// ArxivParser handles arxiv feeds. RSS/Atom exports go through FeedParser;
// HTML category listings are scraped and may span several pages.
type ArxivParser struct {
	client   *http.Client
	feeds    *FeedParser
	pageSize int
	now      func() time.Time
}

var _ scanner.Parser = (*ArxivParser)(nil)

// NewArxivParser wires an HTTP client for follow-up pages; pageSize defaults to 200.
func NewArxivParser(client *http.Client, feeds *FeedParser) *ArxivParser {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	if feeds == nil {
		feeds = NewFeedParser(nil)
	}
	return &ArxivParser{client: client, feeds: feeds, pageSize: 200, now: feeds.now}
}

// Types implements scanner.Parser.
func (a *ArxivParser) Types() []domain.FeedType {
	return []domain.FeedType{domain.FeedArxiv}
}

// Parse implements scanner.Parser. The "pages" feed option limits how many
// listing pages are read (default 1).
func (a *ArxivParser) Parse(ctx context.Context, req scanner.Request) ([]domain.Item, error) {
	if looksLikeXMLFeed(req.Body) {
		return a.feeds.Parse(ctx, req)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(req.Body))
	if err != nil {
		return nil, fmt.Errorf("parse listing %s: %w", req.Feed.ID, err)
	}

	maxPages := 1
	if raw, ok := req.Feed.Options[arxivPagesOption]; ok {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			maxPages = n
		}
	}

	var (
		results []domain.Item
		seen    = map[string]struct{}{}
		skip    = 0
	)
	for page := 1; ; page++ {
		pageItems, full := a.extractItems(doc, req.Feed.ID)
		for _, item := range pageItems {
			if _, ok := seen[item.ID]; ok {
				continue
			}
			seen[item.ID] = struct{}{}
			results = append(results, item)
		}

		if !full || page >= maxPages {
			break
		}
		skip += a.pageSize
		pageURL, err := buildPageURL(req.Feed.URL, skip, a.pageSize)
		if err != nil {
			return nil, fmt.Errorf("feed %s: %w", req.Feed.ID, err)
		}
		doc, err = a.fetchDocument(ctx, pageURL)
		if err != nil {
			return nil, fmt.Errorf("feed %s: %w", req.Feed.ID, err)
		}
	}

	return results, nil
}

func (a *ArxivParser) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("arxiv returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return doc, nil
}

// extractItems returns the entries of one listing page and whether the page
// was full, meaning another page may follow.
func (a *ArxivParser) extractItems(doc *goquery.Document, source string) ([]domain.Item, bool) {
	var (
		collected []domain.Item
		processed int
	)

	doc.Find("dl > dt").Each(func(_ int, dt *goquery.Selection) {
		processed++
		if item, ok := a.parseEntry(dt, dt.Next(), source); ok {
			collected = append(collected, item)
		}
	})

	return collected, processed >= a.pageSize
}

func (a *ArxivParser) parseEntry(dt, dd *goquery.Selection, source string) (domain.Item, bool) {
	link := dt.Find("a[href*=\"/abs/\"]").First()
	href, _ := link.Attr("href")

	id := strings.TrimSpace(link.Text())
	if id == "" {
		id = strings.TrimPrefix(href, "/abs/")
	}
	if href != "" && !strings.HasPrefix(href, "http") {
		href = strings.TrimSuffix(arxivBaseURL, "/") + href
	}
	if id == "" {
		id = href
	}
	if id == "" {
		return domain.Item{}, false
	}

	title := strings.TrimSpace(dd.Find(".list-title").First().Text())
	title = collapseSpace(strings.TrimPrefix(title, "Title:"))
	if title == "" {
		title = untitled
	}

	abstract := dd.Find("p.mathjax").First().Text()
	abstract = collapseSpace(strings.TrimPrefix(strings.TrimSpace(abstract), "Abstract:"))

	authors := dd.Find(".list-authors a").Map(func(_ int, s *goquery.Selection) string {
		return strings.TrimSpace(s.Text())
	})

	var tags []string
	subjects := strings.TrimPrefix(strings.TrimSpace(dd.Find(".list-subjects").First().Text()), "Subjects:")
	for _, subject := range strings.Split(subjects, ";") {
		if subject = strings.TrimSpace(subject); subject != "" {
			tags = append(tags, subject)
		}
	}

	dateText := strings.TrimSpace(dd.Find(".list-date").First().Text())
	if dateText == "" {
		dateText = strings.TrimSpace(dd.Find(".list-dateline").First().Text())
	}
	publishedAt := a.now().UTC()
	if match := dateExpr.FindString(dateText); match != "" {
		if parsed, err := time.Parse("2 Jan 2006", match); err == nil {
			publishedAt = parsed
		}
	}

	item := domain.Item{
		ID:          id,
		Title:       title,
		URL:         href,
		Body:        abstract,
		Source:      source,
		PublishedAt: publishedAt,
		Tags:        tags,
	}
	if len(authors) > 0 {
		item.Author = authors[0]
	}
	return item, true
}

func looksLikeXMLFeed(body []byte) bool {
	head := bytes.TrimSpace(body)
	if len(head) > 1024 {
		head = head[:1024]
	}
	head = bytes.ToLower(head)
	if bytes.Contains(head, []byte("<html")) {
		return false
	}
	return bytes.HasPrefix(head, []byte("<?xml")) ||
		bytes.Contains(head, []byte("<rss")) ||
		bytes.Contains(head, []byte("<rdf:rdf")) ||
		bytes.Contains(head, []byte("<feed"))
}

func buildPageURL(base string, skip, pageSize int) (string, error) {
	parsed, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid listing url %s: %w", base, err)
	}

	query := parsed.Query()
	query.Set("skip", strconv.Itoa(skip))
	query.Set("show", strconv.Itoa(pageSize))
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}
