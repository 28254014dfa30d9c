package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/rushteam/itemsim/cache"
	"github.com/rushteam/itemsim/catalog"
	"github.com/rushteam/itemsim/config"
	"github.com/rushteam/itemsim/core"
	"github.com/rushteam/itemsim/feast"
	"github.com/rushteam/itemsim/metrics"
	"github.com/rushteam/itemsim/similar"
	"github.com/rushteam/itemsim/store"
)

// app 持有一次进程生命周期内装配好的依赖。
type app struct {
	engine        *similar.Engine
	logger        zerolog.Logger
	metricsServer *http.Server

	closers []func() error
}

func newApp(ctx context.Context, cfg *config.Config) (_ *app, err error) {
	a := &app{logger: newLogger(cfg.Log, os.Stderr)}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	cat, err := a.openCatalog(cfg.Catalog)
	if err != nil {
		return nil, err
	}

	opts, err := engineOptions(cfg)
	if err != nil {
		return nil, err
	}

	engineOpts := []similar.Option{similar.WithLogger(a.logger)}

	if cfg.Cache.Enabled {
		backend, err := a.openStore(ctx, cfg)
		if err != nil {
			return nil, err
		}
		engineOpts = append(engineOpts, similar.WithCache(cache.NewResultCache(backend,
			cache.WithTTL(cfg.Cache.TTL),
			cache.WithKeyPrefix(cfg.Cache.KeyPrefix),
			cache.WithLogger(a.logger),
		)))
	}

	if cfg.Feast.Enabled {
		src, err := a.openFeast(cfg.Feast)
		if err != nil {
			return nil, err
		}
		engineOpts = append(engineOpts, similar.WithSignalSource(src))
	}

	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		engineOpts = append(engineOpts, similar.WithMetrics(metrics.New(reg)))
		a.serveMetrics(cfg.Metrics.Addr, reg)
	}

	a.engine, err = similar.NewEngine(cat, opts, engineOpts...)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// engineOptions 把配置映射为 Engine 参数。
func engineOptions(cfg *config.Config) (similar.Options, error) {
	rules, err := cfg.Filter.BuildRules()
	if err != nil {
		return similar.Options{}, err
	}
	return similar.Options{
		DefaultLimit:        cfg.Engine.DefaultLimit,
		MinLimit:            cfg.Engine.MinLimit,
		MaxLimit:            cfg.Engine.MaxLimit,
		EligibleTypes:       cfg.Engine.EligibleTypes,
		PublishStatus:       cfg.Engine.PublishStatus,
		CandidateMultiplier: cfg.Engine.CandidateMultiplier,
		MaxConcurrent:       cfg.Engine.MaxConcurrent,
		Timeout:             cfg.Engine.Timeout,
		Weights:             cfg.Weights,
		Rules:               cfg.Filter.BuiltinRules(),
		Filters:             rules,
		CacheTTL:            cfg.Cache.TTL,
		Coalesce:            cfg.Cache.Coalesce,
	}, nil
}

func (a *app) openCatalog(cfg config.CatalogConfig) (core.Catalog, error) {
	switch cfg.Backend {
	case "postgres":
		db, err := catalog.OpenPostgres(cfg.DSN, cfg.MaxOpenConns)
		if err != nil {
			return nil, core.NewUnavailable(core.ModuleCatalog, err)
		}
		if sqlDB, err := db.DB(); err == nil {
			a.closers = append(a.closers, sqlDB.Close)
		}
		return catalog.NewPostgresCatalog(db), nil
	default:
		if cfg.Fixtures == "" {
			a.logger.Warn().Msg("memory catalog without fixtures, every lookup will be empty")
			return catalog.NewMemoryCatalog(), nil
		}
		c, err := catalog.LoadFixtures(cfg.Fixtures)
		if err != nil {
			return nil, err
		}
		a.logger.Info().Str("fixtures", cfg.Fixtures).Int("items", c.Len()).Msg("memory catalog loaded")
		return c, nil
	}
}

func (a *app) openStore(ctx context.Context, cfg *config.Config) (core.Store, error) {
	switch cfg.Cache.Backend {
	case "redis":
		s, err := store.NewRedisStore(ctx, store.RedisOptions{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, s.Close)
		return s, nil
	default:
		s := store.NewMemoryStore()
		a.closers = append(a.closers, s.Close)
		return s, nil
	}
}

func (a *app) openFeast(cfg config.FeastConfig) (*feast.SignalSource, error) {
	opts := []feast.ClientOption{feast.WithTimeout(cfg.Timeout)}
	if cfg.Token != "" {
		opts = append(opts, feast.WithAuth(&feast.AuthConfig{Type: "static", Token: cfg.Token}))
	}
	client, err := feast.NewGrpcClient(cfg.Host, cfg.Port, cfg.Project, opts...)
	if err != nil {
		return nil, core.NewUnavailable(core.ModuleFeature, err)
	}
	a.closers = append(a.closers, client.Close)

	src := feast.NewSignalSource(client, cfg.Project)
	if cfg.EntityKey != "" {
		src.EntityKey = cfg.EntityKey
	}
	if cfg.SalesFeature != "" {
		src.SalesFeature = cfg.SalesFeature
	}
	if cfg.ReviewsFeature != "" {
		src.ReviewsFeature = cfg.ReviewsFeature
	}
	return src, nil
}

func (a *app) serveMetrics(addr string, reg *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	a.metricsServer = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	srv := a.metricsServer
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error().Err(err).Str("addr", addr).Msg("metrics server stopped")
		}
	}()
	a.closers = append(a.closers, func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	})
}

// Close 逆序释放资源
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn().Err(err).Msg("close failed")
		}
	}
	a.closers = nil
}

func newLogger(cfg config.LogConfig, w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	if cfg.Format == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Str("service", "itemsim").Logger()
}
