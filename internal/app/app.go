// Package app wires configuration into the matching services.
package app

import (
	"context"
	"io"

	"github.com/cockroachdb/errors"

	"github.com/dishbook/backend/config"
	"github.com/dishbook/backend/internal/domain"
	"github.com/dishbook/backend/internal/infrastructure/cache"
	"github.com/dishbook/backend/internal/infrastructure/catalog"
	"github.com/dishbook/backend/internal/infrastructure/openai"
	"github.com/dishbook/backend/internal/infrastructure/verifier"
	"github.com/dishbook/backend/internal/logger"
	"github.com/dishbook/backend/internal/usecase"
)

// App holds the wired services shared by the server and the CLI
type App struct {
	Matching *usecase.MatchingService
	Review   *usecase.ReviewService
	Catalog  domain.CatalogRepository
	// Verification is the in-process verifier. Nil unless the verifier
	// mode is "local".
	Verification *usecase.VerificationService
	// Verifier is what the matching engine calls. Nil when verification is off.
	Verifier domain.Verifier

	closers []io.Closer
}

// New builds every dependency selected by cfg
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{}

	repo, err := a.buildCatalog(ctx, cfg.Catalog)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Catalog = repo

	if err := a.buildVerifier(ctx, cfg); err != nil {
		a.Close()
		return nil, err
	}

	preprocessor := usecase.NewIngredientPreprocessor(cfg.Matching.EnableDebugLogging)
	normalizer := usecase.Normalizer{WholeWordPlurals: cfg.Matching.WholeWordPlurals}

	a.Matching = usecase.NewMatchingService(a.Verifier, usecase.MatchConfig{
		Concurrency:        cfg.Matching.Concurrency,
		EnableDebugLogging: cfg.Matching.EnableDebugLogging,
		Normalizer:         normalizer,
	})
	a.Review = usecase.NewReviewService(preprocessor, normalizer)

	logger.Logger.Infow("matching configured",
		"concurrency", cfg.Matching.Concurrency,
		"wholeWordPlurals", cfg.Matching.WholeWordPlurals,
		"debug", cfg.Matching.EnableDebugLogging)

	return a, nil
}

// VerificationEndpoint is the verifier served over HTTP, nil when this
// process does not verify in-process.
func (a *App) VerificationEndpoint() domain.Verifier {
	if a.Verification == nil {
		return nil
	}
	return a.Verification
}

// Close releases connections and background loops
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			logger.Logger.Warnw("close failed", "error", err)
		}
	}
	a.closers = nil
}

func (a *App) buildCatalog(ctx context.Context, cfg config.CatalogConfig) (domain.CatalogRepository, error) {
	switch cfg.Type {
	case "postgres":
		repo, err := catalog.NewPostgresCatalog(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, errors.Wrap(err, "open postgres catalog")
		}
		a.closers = append(a.closers, repo)
		logger.Logger.Infow("catalog configured", "type", "postgres")
		return repo, nil
	default:
		repo, err := catalog.LoadMemoryCatalog(cfg.FilePath)
		if err != nil {
			return nil, errors.Wrap(err, "load catalog file")
		}
		logger.Logger.Infow("catalog configured", "type", "memory", "file", cfg.FilePath)
		return repo, nil
	}
}

func (a *App) buildVerifier(ctx context.Context, cfg *config.Config) error {
	switch cfg.Verifier.Mode {
	case "off":
		logger.Logger.Infow("verifier disabled, ambiguous matches stay suggestions")
		return nil

	case "remote":
		client := verifier.NewClient(verifier.Config{
			BaseURL:            cfg.Verifier.BaseURL,
			Timeout:            cfg.Verifier.Timeout,
			RequestsPerSecond:  cfg.Verifier.RequestsPerSecond,
			Burst:              cfg.Verifier.Burst,
			RetryCount:         cfg.Verifier.Retries,
			EnableDebugLogging: cfg.Server.Environment == "development",
		})
		a.Verifier = client
		logger.Logger.Infow("verifier configured", "mode", "remote", "baseURL", cfg.Verifier.BaseURL)
		return nil
	}

	verdictCache, err := a.buildCache(ctx, cfg.Cache)
	if err != nil {
		return err
	}
	model, err := buildModel(cfg.Model)
	if err != nil {
		return err
	}

	a.Verification = usecase.NewVerificationService(verdictCache, model, usecase.VerificationServiceConfig{
		CacheTTL: cfg.Cache.TTL,
	})
	a.Verifier = a.Verification
	logger.Logger.Infow("verifier configured", "mode", "local", "model", cfg.Model.Provider, "cache", cfg.Cache.Type)
	return nil
}

func (a *App) buildCache(ctx context.Context, cfg config.CacheConfig) (domain.CacheRepository, error) {
	if cfg.Type == "redis" {
		c, err := cache.NewRedisCache(ctx, cache.RedisConfig{URL: cfg.RedisURL, KeyPrefix: "dishbook:"})
		if err != nil {
			return nil, errors.Wrap(err, "connect redis cache")
		}
		a.closers = append(a.closers, c)
		return c, nil
	}

	c := cache.NewMemoryCache()
	a.closers = append(a.closers, c)
	return c, nil
}

func buildModel(cfg config.ModelConfig) (domain.SemanticModel, error) {
	if cfg.Provider == "openai" {
		model, err := openai.NewModel(openai.Config{
			APIKey:      cfg.APIKey,
			Model:       cfg.Name,
			BaseURL:     cfg.BaseURL,
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
			Timeout:     cfg.Timeout,
		})
		if err != nil {
			return nil, errors.Wrap(err, "create openai model")
		}
		return model, nil
	}
	return usecase.NewHeuristicModel(cfg.MatchAt), nil
}
