package cli

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/weaviate/weaviate-go-client/v5/weaviate"

	wstore "lumen/internal/adapter/weaviate"
	"lumen/internal/config"
	"lumen/internal/ledger"
	"lumen/internal/retrieval"
	"lumen/internal/settings"
	"lumen/internal/vector"
)

// app bundles the shared wiring every command needs: store, collection
// registry, ledger and settings.
type app struct {
	cfg      *config.Config
	store    *wstore.Store
	registry *vector.Registry
	ledger   *ledger.Ledger
	settings *settings.Service
}

func newApp(cfg *config.Config) (*app, error) {
	client, err := weaviate.NewClient(weaviate.Config{
		Host:   cfg.WeaviateHost,
		Scheme: cfg.WeaviateScheme,
	})
	if err != nil {
		return nil, fmt.Errorf("create weaviate client: %w", err)
	}

	return &app{
		cfg:      cfg,
		store:    wstore.NewStore(client),
		registry: vector.NewRegistry(),
		ledger:   ledger.New(cfg.LedgerPath),
		settings: settings.NewService(settings.NewFileRepo(cfg.SettingsPath)),
	}, nil
}

// waitForStore polls readiness so a freshly started document store has time
// to come up before we give up.
func (a *app) waitForStore(ctx context.Context) error {
	delay := time.Duration(a.cfg.BootstrapRetryDelaySeconds) * time.Second

	var err error
	for i := 0; i < a.cfg.BootstrapRetryAttempts; i++ {
		if err = a.store.Ready(ctx); err == nil {
			return nil
		}
		slog.Warn("document store not ready, retrying...",
			"attempt", i+1, "max_attempts", a.cfg.BootstrapRetryAttempts)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return fmt.Errorf("document store not ready after %d attempts: %w",
		a.cfg.BootstrapRetryAttempts, err)
}

// geminiKey resolves the Gemini credential, environment first, settings
// file second. Empty means the provider is unavailable.
func (a *app) geminiKey(ctx context.Context) string {
	key, err := a.settings.GeminiAPIKey(ctx, a.cfg.GeminiAPIKey)
	if err != nil {
		slog.Warn("could not read settings for gemini credential", "error", err)
		return a.cfg.GeminiAPIKey
	}
	return key
}

func (a *app) newRetrievalService(queryLogger *retrieval.QueryLogger) *retrieval.Service {
	return retrieval.NewService(a.store, a.registry, a.settings, a.ledger,
		a.cfg.GeminiAPIKey, a.cfg.SearchLimit, queryLogger)
}
