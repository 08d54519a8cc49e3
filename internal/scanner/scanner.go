package scanner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"ArticlesDigest/internal/domain"
)

// ErrUnsupportedFeedType is returned when no parser handles a feed type.
var ErrUnsupportedFeedType = errors.New("unsupported feed type")

// Request carries a downloaded feed document to a parser.
type Request struct {
	Feed domain.Feed
	Body []byte
}

// Parser turns one feed document into items. A parser may fetch follow-up
// pages on its own (paginated listings).
type Parser interface {
	Types() []domain.FeedType
	Parse(ctx context.Context, req Request) ([]domain.Item, error)
}

// Registry keeps a mapping from feed types to their parsers.
type Registry struct {
	parsers map[domain.FeedType]Parser
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{parsers: map[domain.FeedType]Parser{}}
}

// Register adds or replaces the parser for every type it declares.
func (r *Registry) Register(parser Parser) {
	if r.parsers == nil {
		r.parsers = map[domain.FeedType]Parser{}
	}
	for _, t := range parser.Types() {
		r.parsers[t] = parser
	}
}

// Resolve returns the parser for a feed type.
func (r *Registry) Resolve(feedType domain.FeedType) (Parser, error) {
	if parser, ok := r.parsers[feedType]; ok {
		return parser, nil
	}
	return nil, fmt.Errorf("feed type %q: %w", feedType, ErrUnsupportedFeedType)
}

// DetectFeedType guesses the type from the feed URL first and the payload second.
func DetectFeedType(rawURL string, body []byte) domain.FeedType {
	if u, err := url.Parse(rawURL); err == nil {
		host := strings.ToLower(u.Hostname())
		path := strings.ToLower(u.Path)
		switch {
		case host == "arxiv.org" || strings.HasSuffix(host, ".arxiv.org"):
			return domain.FeedArxiv
		case host == "doi.org" || strings.HasSuffix(host, ".doi.org"):
			return domain.FeedDOI
		case (host == "github.com" || host == "www.github.com") && strings.Contains(path, "/releases"):
			return domain.FeedGithub
		case strings.Contains(host, "youtube.com") || host == "youtu.be":
			return domain.FeedYoutube
		}
	}

	head := bytes.ToLower(body)
	if len(head) > 2048 {
		head = head[:2048]
	}
	switch {
	case bytes.Contains(head, []byte("<rss")) || bytes.Contains(head, []byte("<channel")):
		return domain.FeedRSS
	case bytes.Contains(head, []byte("<feed")) && bytes.Contains(head, []byte("http://www.w3.org/2005/atom")):
		return domain.FeedAtom
	}
	return domain.FeedURL
}
