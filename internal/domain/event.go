package domain

import "time"

// EventKind identifies a pipeline milestone reported to observers.
type EventKind string

const (
	EventFeedFetched     EventKind = "feed_fetched"
	EventItemSummarized  EventKind = "item_summarized"
	EventSummaryChunk    EventKind = "summary_chunk"
	EventItemsRanked     EventKind = "items_ranked"
	EventDigestWritten   EventKind = "digest_written"
	EventDigestDelivered EventKind = "digest_delivered"
	EventStageFinished   EventKind = "stage_finished"
)

// Event is a structured pipeline notification. Only the fields relevant to
// Kind are set.
type Event struct {
	Kind     EventKind
	Stage    string
	FeedID   string
	ItemID   string
	Title    string
	Target   string
	Chunk    string
	Count    int
	Total    int
	OK       bool
	Err      error
	Duration time.Duration
}
