package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"strings"
	"time"

	"Newsroom/internal/config"
	"Newsroom/internal/domain"
	"Newsroom/internal/extractor"
	"Newsroom/internal/imaging"
	"Newsroom/internal/infrastructure/llm"
	"Newsroom/internal/infrastructure/objectstore"
	"Newsroom/internal/infrastructure/parser"
	"Newsroom/internal/infrastructure/reader"
	"Newsroom/internal/infrastructure/scheduler"
	"Newsroom/internal/infrastructure/storage"
	"Newsroom/internal/infrastructure/telegram"
	"Newsroom/internal/logging"
	"Newsroom/internal/metrics"
	"Newsroom/internal/ports"
	"Newsroom/internal/scanner"
	"Newsroom/internal/usecase"
)

// RecordStore is the union of repositories served by one backing store.
type RecordStore interface {
	ports.SourceRepository
	ports.FeedItemRepository
	ports.PautaRepository
	ports.ArticleRepository
	ports.CategoryRepository
	ports.TagRepository
}

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg       config.Config
	logger    *slog.Logger
	store     RecordStore
	sync      *usecase.Synchronizer
	drafts    *usecase.Orchestrator
	scheduler *usecase.Scheduler
	closers   []func() error
}

// New builds the application from configuration. Close releases every opened resource.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}
	a := &Application{cfg: cfg, logger: baseLogger}

	store, err := a.openStore(ctx)
	if err != nil {
		return nil, err
	}
	a.store = store

	generator, closeLLM, err := llm.New(ctx, cfg.LLM)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("build text generator: %w", err)
	}
	a.closers = append(a.closers, closeLLM)

	objects, err := a.openObjectStore(ctx)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	fetcher := a.buildFetcher()
	notifier := a.buildNotifier()

	registry := scanner.NewRegistry(
		parser.NewLLMScanner(
			fetcher,
			extractor.New(generator, cfg.Pipeline.MaxPromptChars, baseLogger.With("component", "extractor")),
			baseLogger.With("component", "scanner.llm"),
		),
		parser.NewFeedScanner(nil),
	)
	if err := registry.Validate(cfg.Pipeline.Strategies); err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("validate strategies: %w", err)
	}

	source := parser.NewStrategySource(registry, cfg.Pipeline.Strategies, baseLogger.With("component", "source"))

	a.sync = usecase.NewSynchronizer(usecase.SyncDeps{
		Sources:   store,
		Items:     store,
		Collector: source,
		Notifier:  notifier,
		Logger:    baseLogger.With("component", "sync"),
	}, usecase.SyncOptions{
		BatchSize:    cfg.Pipeline.BatchConcurrency,
		Limit:        cfg.Pipeline.ExtractLimit,
		Canonicalize: cfg.Pipeline.CanonicalizeURLs,
	})

	resolver := imaging.NewResolver(
		nil,
		imaging.NewDownloader(nil, cfg.Pipeline.MaxImageBytes, cfg.Pipeline.ImageDownloadTimeout),
		imaging.NewUploader(objects, cfg.ObjectStore.Prefix),
		imaging.Options{
			PlaceholderURL:     cfg.Pipeline.PlaceholderImageURL,
			HTMLTimeout:        cfg.Pipeline.HTMLFetchTimeout,
			MaxHTMLBytes:       cfg.Pipeline.MaxHTMLBytes,
			RejectLogoFallback: cfg.Pipeline.RejectLogoFallback,
		},
		baseLogger.With("component", "imaging"),
	)

	a.drafts = usecase.NewOrchestrator(usecase.OrchestratorDeps{
		Fetcher:         fetcher,
		Generator:       generator,
		Images:          resolver,
		Articles:        store,
		Categories:      store,
		Tags:            store,
		FeedItems:       store,
		Pautas:          store,
		Notifier:        notifier,
		Logger:          baseLogger.With("component", "drafts"),
		Rand:            newRand(cfg.Pipeline.PersonaSeed),
		TagLimit:        cfg.Pipeline.TagLimit,
		MaxContentChars: cfg.Pipeline.MaxPromptChars,
	})

	a.scheduler = usecase.NewScheduler(
		scheduler.NewIntervalScheduler(cfg.Scheduler.Interval, cfg.Scheduler.Location()),
		a.sync,
		"",
		baseLogger.With("component", "scheduler"),
	)

	return a, nil
}

func (a *Application) openStore(ctx context.Context) (RecordStore, error) {
	if a.cfg.Database.DSN == "" {
		a.logger.Warn("database dsn not set, using in-memory store")
		return storage.NewMemoryStore(), nil
	}

	db, err := storage.Open(ctx, a.cfg.Database.DSN)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, db.Close)

	repo := storage.NewPostgresRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}
	return repo, nil
}

func (a *Application) openObjectStore(ctx context.Context) (ports.ObjectStore, error) {
	if a.cfg.ObjectStore.Bucket == "" {
		a.logger.Warn("object store bucket not set, cover images stay in memory")
		return objectstore.NewMemory("memory://" + a.cfg.ObjectStore.Prefix), nil
	}
	store, err := objectstore.NewS3Store(ctx, a.cfg.ObjectStore)
	if err != nil {
		return nil, fmt.Errorf("open object store: %w", err)
	}
	return store, nil
}

func (a *Application) buildFetcher() ports.ContentFetcher {
	var fetcher ports.ContentFetcher
	switch a.cfg.Reader.Provider {
	case "readability":
		fetcher = reader.NewReadabilityReader(a.cfg.Reader.Timeout)
	default:
		fetcher = reader.NewHTTPReader(a.cfg.Reader.Endpoint, a.cfg.Reader.APIKey, a.cfg.Reader.Timeout)
	}

	if a.cfg.Cache.RedisAddr == "" {
		return fetcher
	}
	cache := reader.NewRedisCache(a.cfg.Cache.RedisAddr, a.cfg.Cache.RedisPassword, a.cfg.Cache.RedisDB)
	a.closers = append(a.closers, cache.Close)
	return reader.NewCachedFetcher(fetcher, cache, a.cfg.Reader.CacheTTL, a.logger.With("component", "reader.cache"))
}

func (a *Application) buildNotifier() ports.Notifier {
	tg := a.cfg.Notifications.Telegram
	if tg.BotToken == "" || tg.ChatID == "" {
		return nil
	}
	return telegram.NewNotifier(tg.BotToken, tg.ChatID)
}

func newRand(seed uint64) *rand.Rand {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Sync performs a single synchronization of ownerID's sources (all when empty).
func (a *Application) Sync(ctx context.Context, ownerID string) (usecase.SyncStats, error) {
	return a.sync.SyncOwner(ctx, ownerID)
}

// Drafts exposes the draft orchestrator.
func (a *Application) Drafts() *usecase.Orchestrator {
	return a.drafts
}

// AddSource registers a new source.
func (a *Application) AddSource(ctx context.Context, ownerID, title, url string) (domain.Source, error) {
	source := domain.Source{OwnerID: ownerID, Title: title, URL: url}
	if err := a.store.CreateSource(ctx, &source); err != nil {
		return domain.Source{}, fmt.Errorf("create source: %w", err)
	}
	return source, nil
}

// AddPauta registers a curated brief.
func (a *Application) AddPauta(ctx context.Context, pauta domain.Pauta) (domain.Pauta, error) {
	if err := a.store.CreatePauta(ctx, &pauta); err != nil {
		return domain.Pauta{}, fmt.Errorf("create pauta: %w", err)
	}
	return pauta, nil
}

// AddCategory registers a category the draft classifier can pick.
func (a *Application) AddCategory(ctx context.Context, ownerID, name string) (domain.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Category{}, errors.New("create category: empty name")
	}
	category, err := a.store.CreateCategory(ctx, ownerID, name)
	if err != nil {
		return domain.Category{}, fmt.Errorf("create category: %w", err)
	}
	return category, nil
}

// PruneFeedItems deletes feed items by id and returns how many were removed.
func (a *Application) PruneFeedItems(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	n, err := a.store.DeleteFeedItems(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("delete feed items: %w", err)
	}
	a.logger.Info("feed items pruned", "requested", len(ids), "deleted", n)
	return n, nil
}

// Persistent reports whether records outlive the process (a database DSN is configured).
func (a *Application) Persistent() bool {
	return a.cfg.Database.DSN != ""
}

// Serve runs the recurring sync until ctx is cancelled, with an optional metrics listener.
func (a *Application) Serve(ctx context.Context) error {
	var srv *http.Server
	errCh := make(chan error, 1)
	if addr := a.cfg.Metrics.Addr; addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		srv = &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			a.logger.Info("metrics listener started", "addr", addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}()
	}

	if err := a.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	a.logger.Info("scheduler started", "interval", a.cfg.Scheduler.Interval)

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := a.scheduler.Stop(shutdownCtx); err != nil {
		a.logger.Warn("scheduler stop", "error", err)
	}
	if srv != nil {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.logger.Warn("metrics shutdown", "error", err)
		}
	}
	return runErr
}

// Close releases database, cache and provider resources.
func (a *Application) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
