package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/metasearch/internal/backend"
	"github.com/kailas-cloud/metasearch/internal/backend/calculator"
	"github.com/kailas-cloud/metasearch/internal/backend/currency"
	"github.com/kailas-cloud/metasearch/internal/backend/searxng"
	"github.com/kailas-cloud/metasearch/internal/cache"
	"github.com/kailas-cloud/metasearch/internal/config"
	"github.com/kailas-cloud/metasearch/internal/dataset"
	dbRedis "github.com/kailas-cloud/metasearch/internal/db/redis"
	"github.com/kailas-cloud/metasearch/internal/discovery"
	"github.com/kailas-cloud/metasearch/internal/domain/bang"
	"github.com/kailas-cloud/metasearch/internal/domain/command"
	"github.com/kailas-cloud/metasearch/internal/domain/result"
	logpkg "github.com/kailas-cloud/metasearch/internal/logger"
	"github.com/kailas-cloud/metasearch/internal/metrics"
	"github.com/kailas-cloud/metasearch/internal/preview"
	"github.com/kailas-cloud/metasearch/internal/preview/mdn"
	"github.com/kailas-cloud/metasearch/internal/preview/wikipedia"
	"github.com/kailas-cloud/metasearch/internal/rating"
	"github.com/kailas-cloud/metasearch/internal/sanitize"
	chiTransport "github.com/kailas-cloud/metasearch/internal/transport/chi"
	healthuc "github.com/kailas-cloud/metasearch/internal/usecase/health"
	previewuc "github.com/kailas-cloud/metasearch/internal/usecase/preview"
	searchuc "github.com/kailas-cloud/metasearch/internal/usecase/search"
	"github.com/kailas-cloud/metasearch/internal/version"
)

// previewCacheEntries bounds the local preview tier.
const previewCacheEntries = 100

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting metasearch API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("search", cfg.Providers.EnabledSearch()),
		zap.Strings("suggestions", cfg.Providers.EnabledSuggestions()),
		zap.Strings("preview", cfg.Providers.EnabledPreview()),
		zap.Bool("remote_cache", cfg.Cache.Remote.Enabled()),
	)

	// Register metrics explicitly (no init())
	metrics.RegisterHTTPMetrics()
	metrics.RegisterBackendMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Remote cache tier. Connects lazily on first use.
	var store *dbRedis.Store
	if cfg.Cache.Remote.Enabled() {
		store, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Cache.Remote.Addrs,
			Username: cfg.Cache.Remote.Username,
			Password: cfg.Cache.Remote.Password,
			DB:       cfg.Cache.Remote.DB,
		})
		if err != nil {
			logger.Fatal("Failed to create cache store", zap.Error(err))
		}
		defer store.Close()
	}
	caches := cacheFactory{cfg: cfg.Cache, store: store, logger: logger}

	sanitizer := sanitize.New(logger)

	// Registries
	bangs := buildBangs(cfg.Bangs, logger)
	commands := command.NewRegistry()
	command.RegisterHelp(commands)
	if len(cfg.APIs) > 0 {
		apis := make([]discovery.API, len(cfg.APIs))
		for i, a := range cfg.APIs {
			apis[i] = discovery.API{Name: a.Name, URL: a.URL}
		}
		client := discovery.NewClient(nil, logger)
		n := client.LoadAll(ctx, apis, commands)
		logger.Info("Remote commands discovered", zap.Int("commands", n))
	}

	ratings := rating.NewStore(logger)
	if path := cfg.Ratings.Dataset; path != "" {
		if err := ratings.LoadFile(path); err != nil {
			logger.Warn("Failed to load ratings", zap.String("path", path), zap.Error(err))
		}
		if cfg.Ratings.Watch {
			if err := dataset.Watch(ctx, path, ratings.LoadFile, logger); err != nil {
				logger.Warn("Failed to watch ratings", zap.Error(err))
			}
		}
	}

	backends, rates, err := buildBackends(cfg, caches, logger)
	if err != nil {
		logger.Fatal("Failed to build backends", zap.Error(err))
	}
	if err := backends.LoadAll(ctx, logger); err != nil {
		logger.Fatal("Failed to load backends", zap.Error(err))
	}
	if rates != nil && cfg.Currency.Watch {
		if err := dataset.Watch(ctx, cfg.Currency.Dataset, rates.LoadFile, logger); err != nil {
			logger.Warn("Failed to watch currency feed", zap.Error(err))
		}
	}

	// Preview backends and orchestrator
	fetcher := preview.NewFetcher(nil, 0)
	previews := preview.NewRegistry()
	for _, name := range cfg.Providers.EnabledPreview() {
		switch name {
		case wikipedia.Name:
			previews.Register(wikipedia.New(fetcher))
		case mdn.Name:
			previews.Register(mdn.New(fetcher))
		default:
			logger.Fatal("Unknown preview backend", zap.String("name", name))
		}
	}
	previewCache, err := cache.New[result.PreviewResult](caches.options("preview", previewCacheEntries))
	if err != nil {
		logger.Fatal("Failed to create preview cache", zap.Error(err))
	}
	previewSvc := previewuc.New(previews, previewCache, sanitizer, previewuc.DefaultTTL)

	searchSvc := searchuc.New(searchuc.Config{
		SearchBackends:  cfg.Providers.EnabledSearch(),
		SuggestBackends: cfg.Providers.EnabledSuggestions(),
		BackendTimeout:  cfg.Providers.BackendTimeout,
	}, bangs, commands, backends, ratings, previewSvc, sanitizer)

	// Pass nil interface (not typed nil pointer!) when the remote tier is off.
	var pinger healthuc.CachePinger
	if store != nil {
		pinger = store
	}
	healthSvc := healthuc.New(pinger, backends, previews)

	server := chiTransport.NewServer(searchSvc, previewSvc, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(chiTransport.JSONRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(chiTransport.WideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// buildBangs populates the bang registry from the dataset and config additions.
func buildBangs(cfg config.BangsConfig, logger *zap.Logger) *bang.Registry {
	reg := bang.NewRegistry()
	if !cfg.Enable {
		return reg
	}

	var entries []bang.Entry
	if cfg.Dataset != "" {
		f, err := os.Open(cfg.Dataset)
		if err != nil {
			logger.Warn("Failed to open bang dataset", zap.String("path", cfg.Dataset), zap.Error(err))
		} else {
			entries, err = bang.ReadDataset(f)
			_ = f.Close()
			if err != nil {
				logger.Warn("Failed to read bang dataset", zap.Error(err))
			}
		}
	}

	add := make(map[string]bang.Bang, len(cfg.Add))
	for key, b := range cfg.Add {
		add[key] = bang.Bang{Label: b.Label, Priority: b.Priority, URL: b.URL}
	}
	n := bang.Populate(reg, entries, bang.Policy{Allow: cfg.Allow, Deny: cfg.Deny, Add: add})
	logger.Info("Bangs loaded", zap.Int("bangs", n))
	return reg
}

// buildBackends registers every backend named in the provider lists,
// wrapped with metrics. The currency backend is returned for dataset reloads.
func buildBackends(cfg config.Config, caches cacheFactory, logger *zap.Logger) (*backend.Registry, *currency.Backend, error) {
	reg := backend.NewRegistry()
	seen := make(map[string]struct{})
	var rates *currency.Backend

	names := slices.Concat(cfg.Providers.EnabledSearch(), cfg.Providers.EnabledSuggestions())
	for _, name := range names {
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}

		var b backend.Backend
		switch name {
		case calculator.Name:
			b = calculator.New()
		case currency.Name:
			rates = currency.New(cfg.Currency.Dataset, logger.Named(currency.Name))
			b = rates
		case searxng.Name:
			results, err := cache.New[searxng.Page](caches.options("searxng", 0))
			if err != nil {
				return nil, nil, err
			}
			suggestions, err := cache.New[[]result.Suggestion](caches.options("searxng_suggestions", 0))
			if err != nil {
				return nil, nil, err
			}
			sx, err := searxng.New(searxng.Config{
				Endpoint:   cfg.SearXNG.Endpoint,
				Categories: cfg.SearXNG.Categories,
				RPM:        cfg.SearXNG.RPM,
				RetryDelay: cfg.SearXNG.RetryDelay,
			}, &http.Client{Timeout: cfg.SearXNG.Timeout}, results, suggestions, logger.Named(searxng.Name))
			if err != nil {
				return nil, nil, err
			}
			b = sx
		default:
			return nil, nil, fmt.Errorf("unknown backend %q", name)
		}

		if err := reg.Register(backend.NewInstrumented(b, logger)); err != nil {
			return nil, nil, err
		}
	}
	return reg, rates, nil
}

// cacheFactory builds cache options sharing one remote store.
type cacheFactory struct {
	cfg    config.CacheConfig
	store  *dbRedis.Store
	logger *zap.Logger
}

func (f cacheFactory) options(name string, maxEntries int) cache.Options {
	if maxEntries <= 0 {
		maxEntries = f.cfg.Local.MaxEntries
	}
	opts := cache.Options{
		Name:       name,
		DefaultTTL: f.cfg.DefaultTTL,
		MaxEntries: maxEntries,
		Counter:    metrics.CacheTotal,
		Logger:     f.logger,
	}
	if f.store == nil {
		return opts
	}

	remote := &cache.RemoteOptions{
		Store:     f.store,
		KeyPrefix: f.cfg.Remote.KeyPrefix + name + ":",
		HashKeys:  f.cfg.Remote.HashKeys,
	}
	if f.cfg.Remote.Compress {
		codec, err := cache.CodecByName(f.cfg.Remote.Codec)
		if err != nil {
			f.logger.Fatal("Invalid cache codec", zap.Error(err))
		}
		remote.Codec = codec
	}
	opts.Remote = remote
	return opts
}
