package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"ArticlesDigest/internal/config"
	"ArticlesDigest/internal/infrastructure/cache"
	"ArticlesDigest/internal/infrastructure/downloader"
	"ArticlesDigest/internal/infrastructure/email"
	"ArticlesDigest/internal/infrastructure/llm"
	"ArticlesDigest/internal/infrastructure/markdown"
	"ArticlesDigest/internal/infrastructure/parser"
	"ArticlesDigest/internal/infrastructure/scheduler"
	"ArticlesDigest/internal/infrastructure/storage"
	"ArticlesDigest/internal/infrastructure/telegram"
	"ArticlesDigest/internal/logging"
	"ArticlesDigest/internal/observer"
	"ArticlesDigest/internal/ports"
	"ArticlesDigest/internal/scanner"
	"ArticlesDigest/internal/usecase"
	"ArticlesDigest/pkg/logger"
)

const httpTimeout = 30 * time.Second

// Options tune how the application reports progress.
type Options struct {
	// Stream prints summary chunks as they are generated.
	Stream bool
	// Stdout receives streamed output; nil means os.Stdout.
	Stdout io.Writer
}

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg      config.Config
	logger   *slog.Logger
	db       *sql.DB
	redis    *redis.Client
	metrics  *prometheus.Registry
	pipeline *usecase.Pipeline
}

// New connects the storage backends and builds the pipeline. The caller owns
// the returned application and must Close it.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger, opts Options) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}

	a := &Application{cfg: cfg, logger: baseLogger, metrics: prometheus.NewRegistry()}
	a.metrics.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if err := storage.Migrate(cfg.Database.DSN, "up", 0); err != nil {
		return nil, err
	}
	db, err := storage.Open(ctx, cfg.Database.DSN, storage.DefaultPool)
	if err != nil {
		return nil, err
	}
	a.db = db
	repo := storage.NewPostgresRepository(db)

	var seen ports.SeenCache
	if cfg.Redis.URL != "" {
		client, err := cache.Connect(ctx, cfg.Redis.URL)
		if err != nil {
			baseLogger.Warn("redis unavailable, continuing without seen cache", "error", err)
		} else {
			a.redis = client
			seen = cache.NewRedisSeenCache(client, cfg.Redis.TTL)
		}
	}

	generator, err := llm.New(ctx, cfg.LLM)
	if err != nil {
		a.Close()
		return nil, err
	}

	obs := observer.Multi(
		observer.NewLogObserver(baseLogger.With("component", "observer")),
		observer.NewMetricsObserver(a.metrics),
		streamObserver(opts),
	)

	client := &http.Client{Timeout: httpTimeout}
	source := parser.NewFeedSource(client, newRegistry(client), repo, seen, baseLogger.With("component", "source"))

	summarizer := usecase.NewSummarizer(generator, usecase.SummarizerOptions{
		Length:   cfg.SummaryLength,
		Stream:   opts.Stream,
		Observer: obs,
		Logger:   baseLogger.With("component", "summarizer"),
	})

	a.pipeline = usecase.NewPipeline(usecase.PipelineDeps{
		Source:     source,
		Repository: repo,
		Summarizer: summarizer,
		Downloader: downloader.NewReadabilityDownloader(client),
		Renderer:   markdown.Renderer{},
		Writer:     markdown.NewFileWriter(cfg.Output.Directory, cfg.Output.Filename),
		Notifiers:  notifiers(cfg.Notifications),
		Observer:   obs,
		Logger:     baseLogger.With("component", "pipeline"),
	}, usecase.PipelineSettings{
		Feeds:        cfg.DomainFeeds(),
		Topics:       cfg.Topics,
		Quotas:       cfg.Quotas(),
		LookbackDays: cfg.LookbackDays,
		Location:     cfg.Scheduler.Location(),
	})
	return a, nil
}

func newRegistry(client *http.Client) *scanner.Registry {
	feeds := parser.NewFeedParser(time.Now)
	registry := scanner.NewRegistry()
	registry.Register(feeds)
	registry.Register(parser.NewArxivParser(client, feeds))
	registry.Register(parser.NewPageParser(time.Now))
	return registry
}

func streamObserver(opts Options) ports.Observer {
	if !opts.Stream {
		return nil
	}
	return observer.NewStreamObserver(opts.Stdout)
}

func notifiers(cfg config.NotificationConfig) []ports.Notifier {
	var out []ports.Notifier
	if cfg.Telegram.Enabled() {
		out = append(out, telegram.NewNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID))
	}
	if cfg.Email.Enabled() {
		out = append(out, email.NewNotifier(cfg.Email))
	}
	return out
}

// Run performs a single pipeline execution.
func (a *Application) Run(ctx context.Context, opts usecase.RunOptions) (usecase.Report, error) {
	return a.pipeline.Run(ctx, opts)
}

// Schedule runs the pipeline on the configured cron expression until ctx is
// cancelled. Metrics are served on metrics.address when set.
func (a *Application) Schedule(ctx context.Context, opts usecase.RunOptions) error {
	driver, err := scheduler.NewCronScheduler(a.cfg.Scheduler.CronExpression, a.cfg.Scheduler.Location())
	if err != nil {
		return err
	}

	if addr := a.cfg.Metrics.Address; addr != "" {
		srv := a.metricsServer(addr)
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.logger.Error("metrics server stopped", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		a.logger.Info("serving metrics", "address", addr)
	}

	sched := usecase.NewScheduler(driver, a.pipeline, opts, a.logger.With("component", "scheduler"))
	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	a.logger.Info("scheduler started",
		"cron", a.cfg.Scheduler.CronExpression,
		"timezone", a.cfg.Scheduler.Location().String(),
		"next", driver.Next(time.Now()),
	)

	<-ctx.Done()
	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return sched.Stop(stopCtx)
}

func (a *Application) metricsServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(a.metrics, promhttp.HandlerOpts{}))
	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ErrorLog:          logger.New(a.logger, "metrics"),
	}
}

// Close releases database and cache connections.
func (a *Application) Close() error {
	var errs []error
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	return errors.Join(errs...)
}
