// Package observer turns pipeline events into logs, streamed output and metrics.
package observer

import (
	"fmt"
	"io"
	"log/slog"
	"sync"

	"ArticlesDigest/internal/domain"
	"ArticlesDigest/internal/ports"
)

// Func adapts a plain function to ports.Observer.
type Func func(domain.Event)

// Observe implements ports.Observer.
func (f Func) Observe(e domain.Event) { f(e) }

// Nop ignores every event.
var Nop ports.Observer = Func(func(domain.Event) {})

// Multi fans an event out to every non-nil observer in order.
func Multi(observers ...ports.Observer) ports.Observer {
	var list []ports.Observer
	for _, o := range observers {
		if o != nil {
			list = append(list, o)
		}
	}
	return Func(func(e domain.Event) {
		for _, o := range list {
			o.Observe(e)
		}
	})
}

// LogObserver writes events as structured slog records. Summary chunks are skipped.
type LogObserver struct {
	logger *slog.Logger
}

// NewLogObserver wraps a logger.
func NewLogObserver(logger *slog.Logger) *LogObserver {
	return &LogObserver{logger: logger}
}

// Observe implements ports.Observer.
func (o *LogObserver) Observe(e domain.Event) {
	if o == nil || o.logger == nil {
		return
	}

	switch e.Kind {
	case domain.EventSummaryChunk:
		return
	case domain.EventFeedFetched:
		if e.Err != nil {
			o.logger.Warn("feed fetch failed", "feed", e.FeedID, "error", e.Err)
			return
		}
		o.logger.Info("feed fetched", "feed", e.FeedID, "new_items", e.Count, "duration", e.Duration)
	case domain.EventItemSummarized:
		if !e.OK {
			o.logger.Warn("summary failed", "item", e.ItemID, "title", e.Title, "error", e.Err)
			return
		}
		o.logger.Info("item summarized", "item", e.ItemID, "title", e.Title, "progress", fmt.Sprintf("%d/%d", e.Count, e.Total), "duration", e.Duration)
	case domain.EventItemsRanked:
		o.logger.Info("items ranked", "candidates", e.Total, "selected", e.Count)
	case domain.EventDigestWritten:
		o.logger.Info("digest written", "path", e.Target, "items", e.Count)
	case domain.EventDigestDelivered:
		if e.Err != nil {
			o.logger.Error("digest delivery failed", "channel", e.Target, "error", e.Err)
			return
		}
		o.logger.Info("digest delivered", "channel", e.Target)
	case domain.EventStageFinished:
		if e.Err != nil {
			o.logger.Error("stage failed", "stage", e.Stage, "duration", e.Duration, "error", e.Err)
			return
		}
		o.logger.Info("stage finished", "stage", e.Stage, "duration", e.Duration)
	default:
		o.logger.Debug("pipeline event", "kind", e.Kind)
	}
}

// StreamObserver copies summary chunks to a writer as they arrive and ends
// each finished summary with a newline.
type StreamObserver struct {
	mu      sync.Mutex
	w       io.Writer
	pending bool
}

// NewStreamObserver streams to w (usually os.Stdout).
func NewStreamObserver(w io.Writer) *StreamObserver {
	return &StreamObserver{w: w}
}

// Observe implements ports.Observer.
func (o *StreamObserver) Observe(e domain.Event) {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch e.Kind {
	case domain.EventSummaryChunk:
		_, _ = io.WriteString(o.w, e.Chunk)
		o.pending = true
	case domain.EventItemSummarized:
		if o.pending {
			_, _ = io.WriteString(o.w, "\n")
			o.pending = false
		}
	}
}
