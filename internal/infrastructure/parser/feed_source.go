package parser

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"ArticlesDigest/internal/domain"
	"ArticlesDigest/internal/ports"
	"ArticlesDigest/internal/scanner"
)

const (
	userAgent    = "articlesdigest/1.0"
	maxBodyBytes = 10 << 20
)

// FeedSource implements ports.FeedSource: it downloads each feed, resolves a
// parser by type and stores only items that were never seen before.
type FeedSource struct {
	client   *http.Client
	registry *scanner.Registry
	repo     ports.ItemRepository
	cache    ports.SeenCache
	logger   *slog.Logger
}

var _ ports.FeedSource = (*FeedSource)(nil)

// NewFeedSource wires the parser registry with storage. cache may be nil.
func NewFeedSource(client *http.Client, reg *scanner.Registry, repo ports.ItemRepository, cache ports.SeenCache, log *slog.Logger) *FeedSource {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &FeedSource{
		client:   client,
		registry: reg,
		repo:     repo,
		cache:    cache,
		logger:   log,
	}
}

// FetchAll processes feeds one after another. A failing feed is reported in
// its result and does not stop the others.
func (s *FeedSource) FetchAll(ctx context.Context, feeds []domain.Feed) []domain.FetchResult {
	s.debug("fetch all", "feeds", len(feeds))

	results := make([]domain.FetchResult, 0, len(feeds))
	for _, feed := range feeds {
		started := time.Now()
		items, err := s.fetch(ctx, feed)
		results = append(results, domain.FetchResult{
			Feed:     feed,
			Items:    items,
			Err:      err,
			Duration: time.Since(started),
		})
	}
	return results
}

func (s *FeedSource) fetch(ctx context.Context, feed domain.Feed) ([]domain.Item, error) {
	if s.registry == nil || s.repo == nil {
		return nil, fmt.Errorf("feed source is not configured")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	body, err := s.download(ctx, feed.URL)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", feed.ID, err)
	}

	feedType := feed.Type
	if feedType == "" {
		feedType = scanner.DetectFeedType(feed.URL, body)
	}
	s.debug("feed downloaded", "feed", feed.ID, "type", feedType, "bytes", len(body))

	parser, err := s.registry.Resolve(feedType)
	if err != nil {
		return nil, fmt.Errorf("feed %s: %w", feed.ID, err)
	}

	parsed, err := parser.Parse(ctx, scanner.Request{Feed: feed, Body: body})
	if err != nil {
		return nil, err
	}

	fresh, err := s.filterNew(ctx, parsed)
	if err != nil {
		return nil, fmt.Errorf("feed %s: %w", feed.ID, err)
	}

	for _, item := range fresh {
		if err := s.repo.AddItem(ctx, item); err != nil {
			return nil, fmt.Errorf("store item %s: %w", item.ID, err)
		}
	}

	if s.cache != nil {
		if err := s.cache.MarkSeen(ctx, itemIDs(parsed)); err != nil {
			s.warn("mark seen failed", "feed", feed.ID, "error", err)
		}
	}

	s.debug("feed produced items", "feed", feed.ID, "parsed", len(parsed), "new", len(fresh))
	return fresh, nil
}

// filterNew drops duplicates within the batch, then IDs known to the seen
// cache, then IDs already in the repository.
func (s *FeedSource) filterNew(ctx context.Context, items []domain.Item) ([]domain.Item, error) {
	unique := make([]domain.Item, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		if _, ok := seen[item.ID]; ok {
			continue
		}
		seen[item.ID] = struct{}{}
		unique = append(unique, item)
	}
	if len(unique) == 0 {
		return nil, nil
	}

	if s.cache != nil {
		cached, err := s.cache.Seen(ctx, itemIDs(unique))
		if err != nil {
			s.warn("seen cache lookup failed", "error", err)
		} else {
			unique = dropKnown(unique, cached)
		}
	}
	if len(unique) == 0 {
		return nil, nil
	}

	stored, err := s.repo.AlreadyStored(ctx, itemIDs(unique))
	if err != nil {
		return nil, fmt.Errorf("check stored items: %w", err)
	}
	return dropKnown(unique, stored), nil
}

func (s *FeedSource) download(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

func dropKnown(items []domain.Item, known map[string]bool) []domain.Item {
	if len(known) == 0 {
		return items
	}
	kept := items[:0:0]
	for _, item := range items {
		if !known[item.ID] {
			kept = append(kept, item)
		}
	}
	return kept
}

func itemIDs(items []domain.Item) []string {
	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
	}
	return ids
}

func (s *FeedSource) debug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}

func (s *FeedSource) warn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}
