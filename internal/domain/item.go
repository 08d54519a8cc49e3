package domain

import "time"

// Item is a single entry fetched from a feed, prior to summarization.
type Item struct {
	ID          string
	Title       string
	URL         string
	Body        string
	Source      string
	PublishedAt time.Time
	Author      string
	Tags        []string
}

// SummarizedItem carries the generated summary for one digest cycle.
// Summary is never empty-nil: on failure it holds a placeholder and Summarized is false.
type SummarizedItem struct {
	Item
	Summary    string
	Summarized bool
}

// RankedItem is produced by the ranking engine only and is never mutated afterwards.
type RankedItem struct {
	SummarizedItem
	Score         float64
	MatchedTopics []string
}

// FeedType enumerates the supported feed kinds.
type FeedType string

const (
	FeedRSS     FeedType = "rss"
	FeedAtom    FeedType = "atom"
	FeedArxiv   FeedType = "arxiv"
	FeedDOI     FeedType = "doi"
	FeedGithub  FeedType = "github"
	FeedYoutube FeedType = "youtube"
	FeedURL     FeedType = "url"
)

// KnownFeedTypes lists every type accepted in configuration.
var KnownFeedTypes = []FeedType{FeedRSS, FeedAtom, FeedArxiv, FeedDOI, FeedGithub, FeedYoutube, FeedURL}

// Feed describes one configured content source.
type Feed struct {
	ID      string
	URL     string
	Type    FeedType
	Options map[string]string
}

// FetchResult reports the outcome of fetching a single feed.
type FetchResult struct {
	Feed     Feed
	Items    []Item
	Err      error
	Duration time.Duration
}

// Success reports whether the feed was fetched and parsed.
func (r FetchResult) Success() bool {
	return r.Err == nil
}

// FetchStats aggregates fetch results for reporting.
type FetchStats struct {
	Feeds      int
	Successful int
	Failed     int
	NewItems   int
}

// Stats summarises a batch of fetch results.
func Stats(results []FetchResult) FetchStats {
	stats := FetchStats{Feeds: len(results)}
	for _, r := range results {
		if r.Success() {
			stats.Successful++
			stats.NewItems += len(r.Items)
			continue
		}
		stats.Failed++
	}
	return stats
}
