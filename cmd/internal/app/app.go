// Package app wires the ozran server runtime: config, logging, stores, and HTTP routes.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"ozran/cmd/identity"
	"ozran/cmd/internal/auth"
	authapi "ozran/cmd/internal/auth/api"
	"ozran/cmd/internal/auth/session"
	"ozran/cmd/internal/mail"
	"ozran/cmd/internal/metrics"
	"ozran/cmd/internal/phishing"
	"ozran/cmd/internal/ratelimit"
	"ozran/cmd/security/password"
)

// App is the ozran server runtime: it owns the HTTP server and the resources behind it.
type App struct {
	cfg Config
	log Logger

	dbPool *pgxpool.Pool
	redis  *redis.Client

	metrics *metrics.Metrics
	limiter ratelimit.Limiter
	audit   *authapi.PostgresAuditor

	auth     *authapi.Handler
	phishing *phishing.Handler
}

// New constructs a fully wired App instance from config and logger.
func New(ctx context.Context, cfg Config, log Logger) (*App, error) {
	if log == nil {
		log = NewLogger(cfg.LogLevel, cfg.LogFormat)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a := &App{cfg: cfg, log: log, metrics: metrics.New()}
	if err := a.wire(ctx); err != nil {
		a.close()
		return nil, err
	}
	return a, nil
}

func (a *App) wire(ctx context.Context) error {
	cfg, log := a.cfg, a.log

	users, clicks, err := a.newStores(ctx)
	if err != nil {
		return err
	}

	secret, fpKey, err := sessionKeys(cfg)
	if err != nil {
		return err
	}
	codec, err := session.NewCodec(session.Config{Secret: secret, TTL: cfg.SessionTTL, Issuer: "ozran"})
	if err != nil {
		return err
	}

	pcfg, err := password.Config{Cost: cfg.BcryptCost}.Check()
	if err != nil {
		return err
	}
	hasher, err := password.NewHasher(pcfg)
	if err != nil {
		return err
	}

	svc, err := auth.NewService(users, hasher, pcfg.Policy, codec, auth.WithLogger(log))
	if err != nil {
		return err
	}

	var auditor authapi.Auditor = authapi.LogAuditor{Log: log}
	if a.dbPool != nil {
		pa, err := authapi.NewPostgresAuditor(log, a.dbPool, "public")
		if err != nil {
			return err
		}
		a.audit = pa
		auditor = pa
	}

	a.auth, err = authapi.NewHandler(log, svc, authapi.Config{
		Production:     cfg.Production(),
		ForceHTTPS:     cfg.UseHTTPS,
		TrustProxy:     cfg.TrustProxy,
		CrossSite:      cfg.CrossSiteCookies,
		CookieName:     cfg.CookieName,
		FingerprintKey: fpKey,
	}, authapi.WithAuditor(auditor), authapi.WithMetrics(a.metrics))
	if err != nil {
		return err
	}

	sender, err := newMailSender(cfg, log)
	if err != nil {
		return err
	}
	phish, err := phishing.NewService(log, phishing.Config{
		PublicBaseURL: cfg.PublicBaseURL,
		TrainingURL:   cfg.TrainingURL,
		AlertEmail:    cfg.AlertEmail,
	}, sender, clicks, a.metrics)
	if err != nil {
		return err
	}
	a.phishing = phishing.NewHandler(log, phish, cfg.TrustProxy,
		phishing.WithTesterIdentity(func(ctx context.Context) (string, bool) {
			claim, ok := authapi.ClaimFromContext(ctx)
			return claim.Email, ok
		}))

	a.limiter, err = a.newLimiter(ctx)
	return err
}

// newStores picks Postgres or in-memory persistence and runs migrations when enabled.
func (a *App) newStores(ctx context.Context) (identity.Store, phishing.ClickStore, error) {
	if a.cfg.MemoryStore() {
		a.log.Warn("db.disabled.inmemory_store")
		return identity.NewMemoryStore(), phishing.NewMemoryClickStore(), nil
	}

	pool, err := NewDBPool(ctx, a.cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("db: %w", err)
	}
	a.dbPool = pool
	a.log.Info("db.enabled.postgres_store")

	if a.cfg.Migrate {
		if err := Migrate(ctx, pool); err != nil {
			return nil, nil, err
		}
		a.log.Info("db.migrate.ok")
	}

	users, err := identity.NewPostgresStore(pool)
	if err != nil {
		return nil, nil, err
	}
	clicks, err := phishing.NewPostgresClickStore(pool, "public")
	if err != nil {
		return nil, nil, err
	}
	return users, clicks, nil
}

// newLimiter uses Redis when configured so budgets are shared across replicas.
func (a *App) newLimiter(ctx context.Context) (ratelimit.Limiter, error) {
	if a.cfg.RedisURL == "" {
		return ratelimit.NewMemoryLimiter(a.cfg.RateLimitMax, a.cfg.RateLimitWindow), nil
	}

	opts, err := redis.ParseURL(a.cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}
	a.redis = redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := a.redis.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}
	a.log.Info("ratelimit.redis.enabled")
	return ratelimit.NewRedisLimiter(a.redis, a.cfg.RateLimitMax, a.cfg.RateLimitWindow)
}

func newMailSender(cfg Config, log Logger) (mail.Sender, error) {
	switch cfg.MailProvider {
	case "postmark":
		return mail.NewPostmarkSender(mail.PostmarkConfig{
			ServerToken:  cfg.PostmarkServerToken,
			AccountToken: cfg.PostmarkAccountToken,
			From:         cfg.MailFrom,
		})
	case "smtp":
		return mail.NewSMTPSender(mail.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.MailFrom,
		})
	default:
		return mail.NewLogSender(log), nil
	}
}

// Handler returns the full middleware chain around the route mux.
func (a *App) Handler() http.Handler {
	mux := http.NewServeMux()
	registerHTTP(mux, routes{
		log:      a.log,
		cfg:      a.cfg,
		dbPool:   a.dbPool,
		metrics:  a.metrics,
		auth:     a.auth,
		phishing: a.phishing,
	})

	var h http.Handler = mux
	h = WithRateLimit(h, a.limiter, a.cfg, a.log, a.metrics)
	h = WithCORS(h, a.cfg, a.log)
	h = WithSecurityHeaders(h)
	return WithRequestLogging(h, a.log, a.metrics)
}

// Run starts the HTTP server and blocks until context cancellation or fatal server error.
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           a.Handler(),
		ReadHeaderTimeout: nonZeroDuration(a.cfg.ReadHeaderTimeout, 5*time.Second),
		ReadTimeout:       nonZeroDuration(a.cfg.ReadTimeout, 15*time.Second),
		WriteTimeout:      nonZeroDuration(a.cfg.WriteTimeout, 15*time.Second),
		IdleTimeout:       nonZeroDuration(a.cfg.IdleTimeout, 60*time.Second),
		MaxHeaderBytes:    nonZeroInt(a.cfg.MaxHeaderBytes, 1<<20),
	}

	a.log.Info("server.start",
		"addr", a.cfg.HTTPAddr,
		"env", a.cfg.Env,
		"db_enabled", a.dbPool != nil,
		"redis_enabled", a.redis != nil,
		"mail_provider", a.cfg.MailProvider,
	)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		a.log.Info("server.stop", "reason", "context_done")
	case err := <-errCh:
		a.log.Error("server.fail", "err", err)
		a.close()
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Error("server.shutdown.fail", "err", err)
		a.close()
		return err
	}

	a.close()
	a.log.Info("server.stopped")
	return nil
}

// close drains audit inserts, then releases the pool and the Redis client. The app owns both.
func (a *App) close() {
	if a.audit != nil {
		a.audit.Close()
		a.audit = nil
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.Error("redis.close.fail", "err", err)
		}
		a.redis = nil
	}
	if a.dbPool != nil {
		a.dbPool.Close()
		a.dbPool = nil
	}
}

func nonZeroDuration(v, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return v
}

func nonZeroInt(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
