package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"ArticlesDigest/internal/domain"
	"ArticlesDigest/internal/logging"
	"ArticlesDigest/internal/ports"
	"ArticlesDigest/internal/ranking"
)

const (
	StageFetch    = "fetch"
	StageGenerate = "generate"

	maxDownloadBytes = 1 << 20
)

// PipelineDeps wires all driven adapters into the orchestration pipeline.
type PipelineDeps struct {
	Source     ports.FeedSource
	Repository ports.ItemRepository
	Summarizer ports.Summarizer
	Downloader ports.Downloader
	Renderer   ports.Renderer
	Writer     ports.DigestWriter
	Notifiers  []ports.Notifier
	Observer   ports.Observer
	Logger     *slog.Logger
}

// PipelineSettings carries the configuration-derived inputs.
type PipelineSettings struct {
	Feeds        []domain.Feed
	Topics       []string
	Quotas       ranking.Quotas
	LookbackDays int
	// Location is the timezone of the digest week; nil means time.Local.
	Location *time.Location
}

// RunOptions select the stages executed by Run. Setting both flags runs nothing.
type RunOptions struct {
	FetchOnly    bool
	GenerateOnly bool
}

// GenerateReport describes one digest generation.
type GenerateReport struct {
	Candidates int
	Selected   int
	Path       string
	Skipped    bool
}

// Report summarises a Run.
type Report struct {
	RunID    string
	Fetch    *domain.FetchStats
	Generate *GenerateReport
}

// Pipeline implements the fetch and digest-generation workflow.
type Pipeline struct {
	source     ports.FeedSource
	repository ports.ItemRepository
	summarizer ports.Summarizer
	downloader ports.Downloader
	renderer   ports.Renderer
	writer     ports.DigestWriter
	notifiers  []ports.Notifier
	observer   ports.Observer
	logger     *slog.Logger
	settings   PipelineSettings
	clock      func() time.Time
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps, settings PipelineSettings) *Pipeline {
	logger := deps.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	if settings.LookbackDays <= 0 {
		settings.LookbackDays = 7
	}
	clock := time.Now
	if loc := settings.Location; loc != nil {
		clock = func() time.Time { return time.Now().In(loc) }
	}
	return &Pipeline{
		source:     deps.Source,
		repository: deps.Repository,
		summarizer: deps.Summarizer,
		downloader: deps.Downloader,
		renderer:   deps.Renderer,
		writer:     deps.Writer,
		notifiers:  deps.Notifiers,
		observer:   deps.Observer,
		logger:     logger,
		settings:   settings,
		clock:      clock,
	}
}

// Run executes the stages chosen by opts under a fresh run id.
func (p *Pipeline) Run(ctx context.Context, opts RunOptions) (Report, error) {
	report := Report{RunID: uuid.NewString()}

	run := *p
	run.logger = p.logger.With("run_id", report.RunID)
	run.logger.Info("pipeline started", "fetch", !opts.GenerateOnly, "generate", !opts.FetchOnly)

	if opts.FetchOnly && opts.GenerateOnly {
		run.logger.Warn("both fetch-only and generate-only set, nothing to do")
		return report, nil
	}

	if !opts.GenerateOnly {
		_, stats, err := run.Fetch(ctx)
		if err != nil {
			return report, err
		}
		report.Fetch = &stats
	}

	if !opts.FetchOnly {
		gen, err := run.Generate(ctx, run.clock())
		if err != nil {
			return report, err
		}
		report.Generate = &gen
	}

	run.logger.Info("pipeline completed")
	return report, nil
}

// Fetch pulls every configured feed and stores new items. Individual feed
// failures are part of the results, not errors.
func (p *Pipeline) Fetch(ctx context.Context) (results []domain.FetchResult, stats domain.FetchStats, err error) {
	started := time.Now()
	defer func() { p.finishStage(StageFetch, started, err) }()

	if p.source == nil {
		return nil, stats, errors.New("feed source is not configured")
	}

	results = p.source.FetchAll(ctx, p.settings.Feeds)
	for _, r := range results {
		p.emit(domain.Event{
			Kind:     domain.EventFeedFetched,
			Stage:    StageFetch,
			FeedID:   r.Feed.ID,
			Count:    len(r.Items),
			OK:       r.Success(),
			Err:      r.Err,
			Duration: r.Duration,
		})
	}

	stats = domain.Stats(results)
	p.logger.Info("fetch complete",
		"feeds", stats.Feeds,
		"successful", stats.Successful,
		"failed", stats.Failed,
		"new_items", stats.NewItems,
	)
	if err := ctx.Err(); err != nil {
		return results, stats, err
	}
	return results, stats, nil
}

// Generate builds, stores and delivers the digest for the lookback window ending at now.
func (p *Pipeline) Generate(ctx context.Context, now time.Time) (report GenerateReport, err error) {
	started := time.Now()
	defer func() { p.finishStage(StageGenerate, started, err) }()

	if err := p.settings.Quotas.Validate(); err != nil {
		return report, err
	}
	if p.repository == nil || p.summarizer == nil || p.renderer == nil || p.writer == nil {
		return report, errors.New("generate pipeline is not fully configured")
	}

	since := now.AddDate(0, 0, -p.settings.LookbackDays)
	items, err := p.repository.RecentItems(ctx, since)
	if err != nil {
		return report, fmt.Errorf("load recent items: %w", err)
	}
	report.Candidates = len(items)
	p.logger.Info("loaded recent items", "count", len(items), "since", since.Format(time.DateOnly))

	if len(items) == 0 {
		p.logger.Info("no items to process, skipping digest generation")
		report.Skipped = true
		return report, nil
	}

	summarized, fresh := p.summarize(ctx, items)
	if err := ctx.Err(); err != nil {
		return report, err
	}
	p.saveSummaries(ctx, fresh)

	ranked := ranking.Rank(summarized, p.settings.Topics, p.settings.Quotas, now)
	report.Selected = len(ranked)
	p.emit(domain.Event{Kind: domain.EventItemsRanked, Stage: StageGenerate, Count: len(ranked), Total: len(summarized), OK: true})

	digest := p.renderer.Render(ranked, now)
	path, err := p.writer.Write(digest)
	if err != nil {
		return report, fmt.Errorf("write digest: %w", err)
	}
	report.Path = path
	p.emit(domain.Event{Kind: domain.EventDigestWritten, Stage: StageGenerate, Target: path, Count: len(ranked), OK: true})

	var notifyErrs []error
	for _, n := range p.notifiers {
		nErr := n.PublishDigest(ctx, digest)
		p.emit(domain.Event{Kind: domain.EventDigestDelivered, Stage: StageGenerate, Target: n.Name(), OK: nErr == nil, Err: nErr})
		if nErr != nil {
			notifyErrs = append(notifyErrs, fmt.Errorf("notify %s: %w", n.Name(), nErr))
		}
	}
	return report, errors.Join(notifyErrs...)
}

// summarize reuses summaries stored by earlier runs and sends only the
// remaining items through the summarizer. The first result follows the order
// of items; the second holds just the newly produced summaries.
func (p *Pipeline) summarize(ctx context.Context, items []domain.Item) ([]domain.SummarizedItem, []domain.SummarizedItem) {
	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
	}
	stored, err := p.repository.StoredSummaries(ctx, ids)
	if err != nil {
		p.logger.Warn("load stored summaries", "error", err)
		stored = nil
	}

	out := make([]domain.SummarizedItem, len(items))
	var pending []domain.Item
	var slots []int
	for i, item := range items {
		if summary, ok := stored[item.ID]; ok {
			out[i] = domain.SummarizedItem{Item: item, Summary: summary, Summarized: true}
			continue
		}
		pending = append(pending, item)
		slots = append(slots, i)
	}
	p.logger.Info("summarizing items", "reused", len(items)-len(pending), "pending", len(pending))

	if len(pending) == 0 {
		return out, nil
	}
	fresh := p.summarizer.SummarizeAll(ctx, p.fillBodies(ctx, pending))
	for j, item := range fresh {
		if j < len(slots) {
			out[slots[j]] = item
		}
	}
	return out, fresh
}

// fillBodies downloads full text for items that arrived without one.
func (p *Pipeline) fillBodies(ctx context.Context, items []domain.Item) []domain.Item {
	if p.downloader == nil {
		return items
	}

	out := make([]domain.Item, len(items))
	copy(out, items)
	for i := range out {
		if strings.TrimSpace(out[i].Body) != "" || out[i].URL == "" {
			continue
		}
		body, err := p.download(ctx, out[i])
		if err != nil {
			p.logger.Warn("download item", "item", out[i].ID, "error", err)
			continue
		}
		out[i].Body = body
	}
	return out
}

func (p *Pipeline) download(ctx context.Context, item domain.Item) (string, error) {
	reader, err := p.downloader.Download(ctx, item)
	if err != nil {
		return "", err
	}
	defer reader.Close()

	payload, err := io.ReadAll(io.LimitReader(reader, maxDownloadBytes))
	if err != nil {
		return "", fmt.Errorf("read item %s: %w", item.ID, err)
	}
	return string(payload), nil
}

func (p *Pipeline) saveSummaries(ctx context.Context, items []domain.SummarizedItem) {
	for _, item := range items {
		if !item.Summarized {
			continue
		}
		if err := p.repository.SaveSummary(ctx, item.ID, item.Summary); err != nil {
			p.logger.Warn("persist summary", "item", item.ID, "error", err)
		}
	}
}

func (p *Pipeline) finishStage(stage string, started time.Time, err error) {
	p.emit(domain.Event{
		Kind:     domain.EventStageFinished,
		Stage:    stage,
		OK:       err == nil,
		Err:      err,
		Duration: time.Since(started),
	})
}

func (p *Pipeline) emit(e domain.Event) {
	if p.observer != nil {
		p.observer.Observe(e)
	}
}
