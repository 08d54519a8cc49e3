package downloader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"

	"ArticlesDigest/internal/domain"
	"ArticlesDigest/internal/ports"
)

const maxPageBytes = 5 << 20

// ReadabilityDownloader fetches an item's page and returns its readable text.
type ReadabilityDownloader struct {
	client *http.Client
}

var _ ports.Downloader = (*ReadabilityDownloader)(nil)

// NewReadabilityDownloader wires an HTTP client with a sane default timeout.
func NewReadabilityDownloader(client *http.Client) *ReadabilityDownloader {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &ReadabilityDownloader{client: client}
}

// Download implements ports.Downloader.
func (d *ReadabilityDownloader) Download(ctx context.Context, item domain.Item) (io.ReadCloser, error) {
	if item.URL == "" {
		return nil, fmt.Errorf("item %s has no url", item.ID)
	}
	pageURL, err := url.Parse(item.URL)
	if err != nil {
		return nil, fmt.Errorf("parse url %s: %w", item.URL, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, item.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "articlesdigest/1.0")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", item.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download %s: unexpected status %s", item.URL, resp.Status)
	}

	article, err := readability.FromReader(io.LimitReader(resp.Body, maxPageBytes), pageURL)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", item.URL, err)
	}

	text := strings.Join(strings.Fields(article.TextContent), " ")
	return io.NopCloser(strings.NewReader(text)), nil
}
