// Package app initializes and holds long-lived services, acting as the
// dependency injection container behind the CLI commands.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/alperaydin/kapmirror/internal/api"
	"github.com/alperaydin/kapmirror/internal/companies"
	"github.com/alperaydin/kapmirror/internal/config"
	"github.com/alperaydin/kapmirror/internal/extract"
	"github.com/alperaydin/kapmirror/internal/logging"
	"github.com/alperaydin/kapmirror/internal/mirror"
	"github.com/alperaydin/kapmirror/internal/storage/postgres"
	"github.com/alperaydin/kapmirror/internal/summarize"
	"github.com/alperaydin/kapmirror/internal/transport"
)

// App holds the shared services every command relies on. It is built once in
// the root command's PersistentPreRunE and closed after the command returns.
type App struct {
	Config config.Config
	Logger *zap.Logger
	Store  *postgres.Store

	metricsCancel context.CancelFunc
	metricsDone   chan struct{}
}

// New builds the container from configuration, failing fast when a critical
// service cannot be initialized. When metrics.addr is set an operational HTTP
// listener runs for the lifetime of the App.
func New(ctx context.Context, cfgPath string) (*App, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	store, err := postgres.New(ctx, postgres.Config{
		DSN:             cfg.DB.DSN,
		RecordsTable:    cfg.DB.RecordsTable,
		EntitiesTable:   cfg.DB.EntitiesTable,
		RefreshLogTable: cfg.DB.RefreshLogTable,
		MaxConns:        cfg.DB.MaxConns,
		MinConns:        cfg.DB.MinConns,
		MaxConnLifetime: cfg.DB.MaxConnLifetime,
	})
	if err != nil {
		logger.Sync() //nolint:errcheck
		return nil, fmt.Errorf("init store: %w", err)
	}

	a := &App{Config: cfg, Logger: logger, Store: store}

	if addr := cfg.Metrics.Addr; addr != "" {
		srvCtx, cancel := context.WithCancel(context.Background())
		a.metricsCancel = cancel
		a.metricsDone = make(chan struct{})
		server := api.NewServer(store, logger.Named("api"))
		go func() {
			defer close(a.metricsDone)
			logger.Info("starting metrics listener", zap.String("addr", addr))
			if err := server.ListenAndServe(srvCtx, addr); err != nil {
				logger.Error("metrics listener failed", zap.Error(err))
			}
		}()
	}

	return a, nil
}

// Close shuts down all services held by the container.
func (a *App) Close() {
	if a.metricsCancel != nil {
		a.metricsCancel()
		<-a.metricsDone
	}
	if a.Store != nil {
		a.Store.Close()
	}
	if a.Logger != nil {
		a.Logger.Info("shutting down")
		a.Logger.Sync() //nolint:errcheck
	}
}

// Transport builds the HTTP client for the disclosure platform.
func (a *App) Transport() (*transport.Client, error) {
	client, err := transport.New(transport.Config{
		BaseURL:   a.Config.Source.BaseURL,
		UserAgent: a.Config.Source.UserAgent,
		ProxyURL:  a.Config.Source.ProxyURL,
		Bearer:    a.Config.Source.Bearer,
		Timeout:   a.Config.Source.Timeout,
	}, a.Logger.Named("transport"))
	if err != nil {
		return nil, fmt.Errorf("init transport: %w", err)
	}
	return client, nil
}

// Fetcher builds the production fetch pipeline: HTTP transport, page
// extractor and the store-backed persister.
func (a *App) Fetcher() (*mirror.Fetcher, error) {
	client, err := a.Transport()
	if err != nil {
		return nil, err
	}
	return mirror.NewFetcher(
		client,
		extract.New(),
		a.Store,
		a.Config.Source.Language,
		a.Logger.Named("fetcher"),
	), nil
}

// CompanySyncer builds the listed-company reference sync job.
func (a *App) CompanySyncer() (*companies.Syncer, error) {
	client, err := a.Transport()
	if err != nil {
		return nil, err
	}
	return companies.NewSyncer(client, extract.New(), a.Store, companies.Config{
		Language:   a.Config.Source.Language,
		HrefPrefix: a.Config.Source.BaseURL,
		Throttle:   a.Config.Crawl.Throttle,
	}, a.Logger.Named("companies")), nil
}

// Sequencer builds the forward crawler.
func (a *App) Sequencer() (*mirror.Sequencer, error) {
	fetcher, err := a.Fetcher()
	if err != nil {
		return nil, err
	}
	return mirror.NewSequencer(fetcher, a.Store, mirror.SequencerConfig{
		InitialID: a.Config.Source.InitialID,
		Throttle:  a.Config.Crawl.Throttle,
	}, a.Logger.Named("sequencer")), nil
}

// Refresher builds the blocking range refresher. Progress flushes land in the
// store's refresh log.
func (a *App) Refresher() (*mirror.Refresher, error) {
	fetcher, err := a.Fetcher()
	if err != nil {
		return nil, err
	}
	return mirror.NewRefresher(fetcher, a.Store, a.Store, mirror.RefresherConfig{
		Throttle:   a.Config.Refresh.Throttle,
		Backoff:    a.Config.Refresh.Backoff,
		FlushEvery: a.Config.Refresh.FlushEvery,
	}, a.Logger.Named("refresher")), nil
}

// Enricher builds the summarization batch job. The caller owns closing the
// returned cleanup func.
func (a *App) Enricher(ctx context.Context) (*mirror.Enricher, func() error, error) {
	gemini, err := summarize.New(ctx, summarize.Config{
		APIKey: a.Config.Enrich.APIKey,
		Model:  a.Config.Enrich.Model,
	}, a.Logger.Named("summarizer"))
	if err != nil {
		return nil, nil, fmt.Errorf("init summarizer: %w", err)
	}
	enricher := mirror.NewEnricher(a.Store, gemini, mirror.EnricherConfig{
		BatchSize:     a.Config.Enrich.BatchSize,
		Deadline:      a.Config.Enrich.Deadline,
		MaxInputChars: a.Config.Enrich.MaxInputChars,
	}, a.Logger.Named("enricher"))
	return enricher, gemini.Close, nil
}

// GapFinder builds the stored-range gap scanner.
func (a *App) GapFinder() *mirror.GapFinder {
	return mirror.NewGapFinder(a.Store)
}
