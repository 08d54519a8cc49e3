package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"ArticlesDigest/internal/domain"
	"ArticlesDigest/internal/ports"
)

const (
	// bodies shorter than length*shortBodyFactor characters are used verbatim
	shortBodyFactor    = 5
	summaryErrorPrefix = "Error summarising content: "
)

var (
	summaryPrefixExpr = regexp.MustCompile(`(?i)^summary:\s*`)
	wrappingQuoteExpr = regexp.MustCompile(`(?s)^"(.*)"$`)
)

// SummarizerOptions configure NewSummarizer.
type SummarizerOptions struct {
	// Length is the target summary length in words.
	Length int
	// Stream asks the generator for incremental output, forwarded as
	// EventSummaryChunk events.
	Stream   bool
	Observer ports.Observer
	Logger   *slog.Logger
}

// Summarizer turns items into summarized items with an LLM generator.
type Summarizer struct {
	generator ports.Generator
	length    int
	stream    bool
	observer  ports.Observer
	logger    *slog.Logger
}

var _ ports.Summarizer = (*Summarizer)(nil)

// NewSummarizer wires a generator backend.
func NewSummarizer(generator ports.Generator, opts SummarizerOptions) *Summarizer {
	if opts.Length <= 0 {
		opts.Length = 150
	}
	return &Summarizer{
		generator: generator,
		length:    opts.Length,
		stream:    opts.Stream,
		observer:  opts.Observer,
		logger:    opts.Logger,
	}
}

// SummarizeAll processes items sequentially, in input order. It never fails:
// an item whose summary cannot be produced carries an error placeholder.
func (s *Summarizer) SummarizeAll(ctx context.Context, items []domain.Item) []domain.SummarizedItem {
	out := make([]domain.SummarizedItem, 0, len(items))
	for i, item := range items {
		started := time.Now()
		result, err := s.Summarize(ctx, item)
		out = append(out, result)

		s.emit(domain.Event{
			Kind:     domain.EventItemSummarized,
			ItemID:   item.ID,
			Title:    item.Title,
			Count:    i + 1,
			Total:    len(items),
			OK:       result.Summarized,
			Err:      err,
			Duration: time.Since(started),
		})
	}
	return out
}

// Summarize produces the summary for one item. The returned item is always
// usable; err explains why Summarized is false.
func (s *Summarizer) Summarize(ctx context.Context, item domain.Item) (domain.SummarizedItem, error) {
	if utf8.RuneCountInString(item.Body) < s.length*shortBodyFactor {
		return domain.SummarizedItem{Item: item, Summary: item.Body, Summarized: true}, nil
	}

	if s.generator == nil {
		return failed(item, fmt.Errorf("no generator configured"))
	}

	var onChunk func(string)
	if s.stream {
		onChunk = func(chunk string) {
			s.emit(domain.Event{Kind: domain.EventSummaryChunk, ItemID: item.ID, Chunk: chunk})
		}
	}

	raw, err := s.generator.Generate(ctx, buildSummaryPrompt(item, s.length), onChunk)
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("summarize item", "item", item.ID, "error", err)
		}
		return failed(item, err)
	}

	return domain.SummarizedItem{Item: item, Summary: cleanupSummary(raw), Summarized: true}, nil
}

func (s *Summarizer) emit(e domain.Event) {
	if s.observer != nil {
		s.observer.Observe(e)
	}
}

func failed(item domain.Item, err error) (domain.SummarizedItem, error) {
	return domain.SummarizedItem{
		Item:       item,
		Summary:    summaryErrorPrefix + err.Error(),
		Summarized: false,
	}, err
}

func buildSummaryPrompt(item domain.Item, length int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Summarise the following content in about %d words.\n", length)
	b.WriteString("The summary should be concise, factual, and capture the key points.\n\n")
	fmt.Fprintf(&b, "Title: %s\n", item.Title)
	fmt.Fprintf(&b, "Source: %s\n", item.Source)
	if item.Author != "" {
		fmt.Fprintf(&b, "Author: %s\n", item.Author)
	}
	fmt.Fprintf(&b, "Date: %s\n\n", item.PublishedAt.UTC().Format("2006-01-02"))
	b.WriteString("Content:\n")
	b.WriteString(item.Body)
	b.WriteString("\n\nSummary:")
	return b.String()
}

func cleanupSummary(summary string) string {
	summary = strings.TrimSpace(summary)
	summary = summaryPrefixExpr.ReplaceAllString(summary, "")
	summary = wrappingQuoteExpr.ReplaceAllString(summary, "$1")
	return strings.TrimSpace(summary)
}
