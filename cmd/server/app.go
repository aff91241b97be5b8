package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/and161185/recipen/internal/config"
	pkgcrypto "github.com/and161185/recipen/internal/crypto"
	"github.com/and161185/recipen/internal/health"
	"github.com/and161185/recipen/internal/limiter"
	"github.com/and161185/recipen/internal/metrics"
	"github.com/and161185/recipen/internal/migrate"
	"github.com/and161185/recipen/internal/repository"
	"github.com/and161185/recipen/internal/repository/memory"
	"github.com/and161185/recipen/internal/repository/postgres"
	httpserver "github.com/and161185/recipen/internal/server/http"
	"github.com/and161185/recipen/internal/service"
	"github.com/and161185/recipen/internal/token"
)

// stores is the storage backend the services run on.
type stores struct {
	users      repository.UserRepository
	recipes    repository.RecipeRepository
	blogs      repository.BlogRepository
	engagement repository.EngagementRepository
	lim        limiter.Limiter
	db         health.Pinger
	close      func()
}

// openStores connects the configured backend. Postgres is migrated first.
func openStores(ctx context.Context, cfg *config.Config, log *zap.Logger) (*stores, error) {
	switch cfg.Storage {
	case config.StorageMemory:
		log.Warn("memory storage: data is lost on restart")
		m := memory.New()
		return &stores{
			users:      m.Users(),
			recipes:    m.Recipes(),
			blogs:      m.Blogs(),
			engagement: m.Engagement(),
			lim:        limiter.NewMemory(cfg.LoginWindow, cfg.LoginMaxFails, cfg.LoginBlockFor),
			db:         health.NopPinger{},
			close:      func() {},
		}, nil

	case config.StoragePostgres:
		dsn, err := cfg.DSN()
		if err != nil {
			return nil, err
		}
		if err := migrate.Up(ctx, dsn, log); err != nil {
			return nil, fmt.Errorf("migrate up: %w", err)
		}
		db, err := postgres.New(ctx, dsn, cfg.DBMaxConns)
		if err != nil {
			return nil, fmt.Errorf("connect: %w", err)
		}
		return &stores{
			users:      postgres.NewUserRepo(db),
			recipes:    postgres.NewRecipeRepo(db),
			blogs:      postgres.NewBlogRepo(db),
			engagement: postgres.NewEngagementRepo(db),
			lim:        limiter.NewPG(db.Pool, cfg.LoginWindow, cfg.LoginMaxFails, cfg.LoginBlockFor),
			db:         db,
			close:      db.Close,
		}, nil
	}
	return nil, fmt.Errorf("unknown storage %q", cfg.Storage)
}

// app is the assembled process: the HTTP API plus the health probe.
type app struct {
	cfg     *config.Config
	log     *zap.Logger
	st      *stores
	checker *health.Checker
	handler http.Handler
}

func newApp(ctx context.Context, cfg *config.Config, log *zap.Logger) (*app, error) {
	st, err := openStores(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	issuer, err := token.NewIssuer([]byte(cfg.AccessTokenSecret), []byte(cfg.RefreshTokenSecret), cfg.RefreshTTL)
	if err != nil {
		st.close()
		return nil, err
	}
	hasher := pkgcrypto.NewHasher(cfg.BcryptCost)
	policy := service.TokenPolicy{AccessTTL: cfg.AccessTTL, ReissueTTL: cfg.ReissueTTL}

	svc := httpserver.Services{
		Auth:    service.NewAuthService(st.users, issuer, hasher, st.lim, policy),
		Recipes: service.NewRecipeService(st.recipes, st.engagement, st.users, issuer, policy),
		Blogs:   service.NewBlogService(st.blogs, st.engagement),
		Users:   service.NewUserService(st.users, issuer, hasher, service.StaticCheckout{URL: cfg.CheckoutURL}, policy),
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	checker := health.NewChecker(st.db, cfg.HealthInterval, log)

	h := httpserver.New(svc, issuer, log, httpserver.Options{
		Debug:          cfg.Debug,
		AllowedOrigins: cfg.AllowedOrigins,
		RequestTimeout: cfg.RequestTimeout,
		MaxBodyBytes:   cfg.MaxBodyBytes,
		RatePerMinute:  cfg.RatePerMinute,
		RateBurst:      cfg.RateBurst,
		Metrics:        metrics.New(reg),
		Gatherer:       reg,
		Ready:          checker.Ready,
	}).Handler()

	return &app{cfg: cfg, log: log, st: st, checker: checker, handler: h}, nil
}

// run serves until ctx is done, then drains the HTTP server within ShutdownTimeout.
func (a *app) run(ctx context.Context) error {
	defer a.st.close()

	go a.checker.Run(ctx)

	errCh := make(chan error, 2)
	if a.cfg.HealthAddr != "" {
		gs := health.NewGRPCServer(a.checker, a.log, a.cfg.Debug)
		go func() {
			if err := health.Serve(ctx, a.cfg.HealthAddr, gs, a.log); err != nil {
				errCh <- fmt.Errorf("health: %w", err)
			}
		}()
	}

	srv := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           a.handler,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	go func() {
		var err error
		if a.cfg.TLSCert != "" {
			a.log.Info("listening (TLS)", zap.String("addr", srv.Addr))
			err = srv.ListenAndServeTLS(a.cfg.TLSCert, a.cfg.TLSKey)
		} else {
			a.log.Info("listening", zap.String("addr", srv.Addr))
			err = srv.ListenAndServe()
		}
		if !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		_ = srv.Close()
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
