package ports

import (
	"context"
	"io"
	"time"

	"ArticlesDigest/internal/domain"
)

// FeedSource pulls fresh items from every configured feed.
type FeedSource interface {
	FetchAll(ctx context.Context, feeds []domain.Feed) []domain.FetchResult
}

// ItemRepository persists fetched items for deduplication and history.
type ItemRepository interface {
	AlreadyStored(ctx context.Context, ids []string) (map[string]bool, error)
	AddItem(ctx context.Context, item domain.Item) error
	RecentItems(ctx context.Context, since time.Time) ([]domain.Item, error)
	SaveSummary(ctx context.Context, id, summary string) error
	// StoredSummaries returns the saved, non-empty summaries for ids.
	StoredSummaries(ctx context.Context, ids []string) (map[string]string, error)
}

// SeenCache is a fast pre-filter in front of ItemRepository.
type SeenCache interface {
	Seen(ctx context.Context, ids []string) (map[string]bool, error)
	MarkSeen(ctx context.Context, ids []string) error
}

// Generator produces text from a prompt. A non-nil onChunk receives partial
// output as it streams; the full text is always returned.
type Generator interface {
	Generate(ctx context.Context, prompt string, onChunk func(string)) (string, error)
}

// Summarizer turns fetched items into summarized ones.
type Summarizer interface {
	SummarizeAll(ctx context.Context, items []domain.Item) []domain.SummarizedItem
}

// Downloader fetches full-text HTML payloads for items without a body.
type Downloader interface {
	Download(ctx context.Context, item domain.Item) (io.ReadCloser, error)
}

// Renderer formats the final digest.
type Renderer interface {
	Render(items []domain.RankedItem, now time.Time) string
}

// DigestWriter stores a rendered digest and returns where it went.
type DigestWriter interface {
	Write(digest string) (string, error)
}

// Notifier streams the rendered digest to Telegram or other channels.
type Notifier interface {
	Name() string
	PublishDigest(ctx context.Context, digest string) error
}

// Observer receives pipeline events. Implementations must not block for long.
type Observer interface {
	Observe(event domain.Event)
}

// Scheduler controls when pipelines execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
