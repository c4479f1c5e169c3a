package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/philippgille/chromem-go"

	"flanergide/internal/refresh"
	"flanergide/pkg/api"
	"flanergide/pkg/commentary"
	"flanergide/pkg/config"
	"flanergide/pkg/gather"
	"flanergide/pkg/index"
	"flanergide/pkg/journal"
	"flanergide/pkg/logger"
	"flanergide/pkg/memory"
	"flanergide/pkg/scrape"
	"flanergide/pkg/state"
	"flanergide/pkg/store"
	"flanergide/pkg/summarize"
	"flanergide/pkg/syncer"
)

// App encapsulates the server components and lifecycle.
type App struct {
	eff       config.EffectiveConfigResult
	version   string
	commit    string
	buildDate string

	ix        *index.Index
	events    *memory.Service
	state     *state.Manager
	journal   *journal.Journal
	sync      *syncer.Coordinator
	summaries *summarize.Service
	comments  *commentary.Service
	refresher *refresh.Refresher

	srv *http.Server
}

// New initializes storage, the semantic index and all services. It does not
// start the scheduler or the HTTP server; call Run to start those and block
// until shutdown.
func New(eff config.EffectiveConfigResult, version, commit, buildDate string) (*App, error) {
	if err := validateConfig(eff); err != nil {
		return nil, err
	}
	cfg := eff.Config

	config.SetRuntime(&config.RuntimeConfig{JWTSecret: cfg.Security.JWTSecret})

	if err := store.Open(eff.DBPath); err != nil {
		return nil, fmt.Errorf("failed to open pebble at %s: %w", eff.DBPath, err)
	}

	ix, err := index.Open(cfg.Storage.IndexPath, embeddingFunc(cfg))
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to open index at %s: %w", cfg.Storage.IndexPath, err)
	}

	st, err := state.NewManager(cfg.Storage.StateDir)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to init state dir %s: %w", cfg.Storage.StateDir, err)
	}
	jr, err := journal.New(cfg.Storage.AnalysisDir)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to init analysis dir %s: %w", cfg.Storage.AnalysisDir, err)
	}

	events := memory.NewService(ix)
	g := gather.New(jr, st)
	gen := summarize.NewGenerator(cfg)
	summaries := summarize.NewService(g, jr, gen)
	comments := commentary.New(g, st, events, gen)
	sy := syncer.New(events, st, jr)

	a := &App{
		eff:       eff,
		version:   version,
		commit:    commit,
		buildDate: buildDate,
		ix:        ix,
		events:    events,
		state:     st,
		journal:   jr,
		sync:      sy,
		summaries: summaries,
		comments:  comments,
	}

	if cfg.Blog.Enabled && cfg.Blog.URL != "" {
		r, err := refresh.New(scrape.NewHTTPFetcher(cfg.Blog.URL), st, summaries, cfg.Blog.Schedule)
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("invalid blog schedule %q: %w", cfg.Blog.Schedule, err)
		}
		a.refresher = r
	}
	return a, nil
}

// Run starts the refresh scheduler and the HTTP server, and blocks until
// ctx is canceled or a fatal server error occurs.
func (a *App) Run(ctx context.Context) error {
	a.printBanner()

	if a.refresher != nil {
		stop := a.refresher.Start(ctx)
		defer stop()
	}

	errCh := a.startHTTP(ctx)

	select {
	case <-ctx.Done():
		a.shutdownHTTP()
		return nil
	case err := <-errCh:
		return err
	}
}

// embeddingFunc selects the embedding backend from config. The local
// embedder needs no external services and is the default.
func embeddingFunc(cfg *config.Config) chromem.EmbeddingFunc {
	switch cfg.AI.Embedding.Provider {
	case "ollama":
		return index.NewOllamaEmbedding(cfg.AI.Embedding.Model, cfg.AI.Embedding.Host)
	default:
		return index.NewLocalEmbedding()
	}
}

// API assembles the HTTP API surface over the app's services.
func (a *App) API() *api.API {
	return &api.API{
		Events:     a.events,
		State:      a.state,
		Sync:       a.sync,
		Summaries:  a.summaries,
		Commentary: a.comments,
		Refresher:  a.refresher,
		Version:    a.version,
	}
}

// Close releases storage resources. Safe to call after Run returns.
func (a *App) Close() {
	if err := store.Close(); err != nil {
		logger.Error("store_close_failed", "error", err)
	}
}
