// Package app wires the catalog engine from configuration.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/erazemk/setupcatalog/internal/catalog"
	"github.com/erazemk/setupcatalog/internal/classify"
	"github.com/erazemk/setupcatalog/internal/config"
	"github.com/erazemk/setupcatalog/internal/enrich"
	"github.com/erazemk/setupcatalog/internal/features"
	"github.com/erazemk/setupcatalog/internal/platform/booth"
	"github.com/erazemk/setupcatalog/internal/platform/github"
)

// featuresReloadInterval is how often a features file is re-read.
const featuresReloadInterval = 30 * time.Second

// App holds the running engine.
type App struct {
	Catalog   *catalog.Service
	Features  features.Source
	Scheduler *enrich.Scheduler

	cancel context.CancelFunc
}

// New builds the adapters, classifier, enrichment scheduler and catalog
// service described by cfg, and starts the background workers.
func New(cfg config.Config, database *sql.DB) (*App, error) {
	httpClient := &http.Client{Timeout: cfg.FetchTimeout}

	boothAdapter, err := booth.New(booth.Options{
		BaseURL:           cfg.BoothBaseURL,
		UserAgent:         cfg.UserAgent,
		RequestsPerSecond: cfg.UpstreamRPS,
		Client:            httpClient,
	})
	if err != nil {
		return nil, err
	}

	githubAdapter, err := github.New(github.Options{
		BaseURL:           cfg.GitHubURL,
		Token:             cfg.GitHubToken,
		RequestsPerSecond: cfg.UpstreamRPS,
		Client:            httpClient,
	})
	if err != nil {
		return nil, err
	}

	classifier := classify.Default()
	if cfg.TaxonomyPath != "" {
		if classifier, err = classify.LoadFile(cfg.TaxonomyPath); err != nil {
			return nil, err
		}
	}

	var ai classify.AI = classify.Disabled{}
	if cfg.AIKey != "" {
		ai = classify.NewResponsesClient(classify.ResponsesConfig{
			URL:    cfg.AIURL,
			APIKey: cfg.AIKey,
			Model:  cfg.AIModel,
		})
	} else {
		slog.Info("ai enrichment disabled, no key configured")
	}

	enricher := &enrich.Enricher{DB: database, AI: ai}
	scheduler := enrich.NewScheduler(enricher.Enrich, enrich.Options{
		Workers:   cfg.EnrichWorkers,
		QueueSize: cfg.EnrichQueue,
		Timeout:   cfg.EnrichTimeout,
	})

	ctx, cancel := context.WithCancel(context.Background())

	var source features.Source = features.Static{}
	if cfg.FeaturesPath != "" {
		fs, err := features.NewFileSource(cfg.FeaturesPath)
		if err != nil {
			cancel()
			return nil, fmt.Errorf("loading features: %w", err)
		}
		go fs.Watch(ctx, featuresReloadInterval)
		source = fs
	}

	svc := catalog.New(database, catalog.Options{
		Booth:      boothAdapter,
		GitHub:     githubAdapter,
		Classifier: classifier,
		Enricher:   scheduler,
		Policy: catalog.Policy{
			BoothTTL:  cfg.BoothTTL,
			GitHubTTL: cfg.GitHubTTL,
		},
		FetchTimeout:         cfg.FetchTimeout,
		MaxConcurrentRefresh: cfg.MaxConcurrentRefresh,
	})

	scheduler.Start()

	return &App{
		Catalog:   svc,
		Features:  source,
		Scheduler: scheduler,
		cancel:    cancel,
	}, nil
}

// Shutdown stops the features watcher and drains pending enrichment.
func (a *App) Shutdown(ctx context.Context) error {
	a.cancel()
	return a.Scheduler.Shutdown(ctx)
}
