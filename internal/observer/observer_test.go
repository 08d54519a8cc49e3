package observer

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"ArticlesDigest/internal/domain"
)

func TestMultiFansOutInOrder(t *testing.T) {
	t.Parallel()

	var got []string
	first := Func(func(e domain.Event) { got = append(got, "first:"+string(e.Kind)) })
	second := Func(func(e domain.Event) { got = append(got, "second:"+string(e.Kind)) })

	Multi(first, nil, second).Observe(domain.Event{Kind: domain.EventItemsRanked})

	if strings.Join(got, ",") != "first:items_ranked,second:items_ranked" {
		t.Fatalf("unexpected fan-out: %v", got)
	}
}

func TestStreamObserverWritesChunks(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	o := NewStreamObserver(&buf)
	o.Observe(domain.Event{Kind: domain.EventSummaryChunk, Chunk: "Hello"})
	o.Observe(domain.Event{Kind: domain.EventSummaryChunk, Chunk: " world"})
	o.Observe(domain.Event{Kind: domain.EventItemSummarized, OK: true})
	o.Observe(domain.Event{Kind: domain.EventItemSummarized, OK: true})

	if buf.String() != "Hello world\n" {
		t.Fatalf("unexpected stream output: %q", buf.String())
	}
}

func TestLogObserverSkipsChunks(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	o := NewLogObserver(slog.New(slog.NewTextHandler(&buf, nil)))
	o.Observe(domain.Event{Kind: domain.EventSummaryChunk, Chunk: "partial"})
	if buf.Len() != 0 {
		t.Fatalf("chunk should not be logged: %s", buf.String())
	}

	o.Observe(domain.Event{Kind: domain.EventFeedFetched, FeedID: "hn", Err: errors.New("timeout")})
	if !strings.Contains(buf.String(), "feed fetch failed") || !strings.Contains(buf.String(), "feed=hn") {
		t.Fatalf("unexpected log output: %s", buf.String())
	}
}

func TestMetricsObserver(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := NewMetricsObserver(reg)

	m.Observe(domain.Event{Kind: domain.EventFeedFetched, FeedID: "a", Count: 4})
	m.Observe(domain.Event{Kind: domain.EventFeedFetched, FeedID: "b", Err: errors.New("boom")})
	m.Observe(domain.Event{Kind: domain.EventItemSummarized, OK: true, Duration: time.Second})
	m.Observe(domain.Event{Kind: domain.EventItemSummarized, OK: false})
	m.Observe(domain.Event{Kind: domain.EventItemsRanked, Count: 3, Total: 9})
	m.Observe(domain.Event{Kind: domain.EventDigestDelivered, Target: "telegram"})

	if v := testutil.ToFloat64(m.feeds.WithLabelValues("success")); v != 1 {
		t.Fatalf("successful fetches = %v", v)
	}
	if v := testutil.ToFloat64(m.feeds.WithLabelValues("failure")); v != 1 {
		t.Fatalf("failed fetches = %v", v)
	}
	if v := testutil.ToFloat64(m.newItems); v != 4 {
		t.Fatalf("new items = %v", v)
	}
	if v := testutil.ToFloat64(m.summaries.WithLabelValues("failure")); v != 1 {
		t.Fatalf("failed summaries = %v", v)
	}
	if v := testutil.ToFloat64(m.selected); v != 3 {
		t.Fatalf("selected = %v", v)
	}
	if v := testutil.ToFloat64(m.candidates); v != 9 {
		t.Fatalf("candidates = %v", v)
	}
	if v := testutil.ToFloat64(m.deliveries.WithLabelValues("telegram", "success")); v != 1 {
		t.Fatalf("deliveries = %v", v)
	}
}
