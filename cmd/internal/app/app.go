// Package app wires the warden server runtime: config, logging, stores,
// the account manager and its HTTP surface.
package app

import (
	"context"
	"errors"
	"net/http"

	paseto "aidanwoods.dev/go-paseto"

	"warden/cmd/identity"
	"warden/cmd/internal/auth/account"
	authapi "warden/cmd/internal/auth/api"
	"warden/cmd/internal/auth/credentials"
	"warden/cmd/internal/auth/lockout"
	"warden/cmd/internal/auth/session"
	"warden/cmd/internal/auth/verify"
	"warden/cmd/internal/telemetry"
	"warden/cmd/security/password"
)

// App is the warden server runtime.
type App struct {
	cfg Config
	log Logger

	stores   *backends
	metrics  *telemetry.Metrics
	accounts *account.Manager
	auth     *authapi.Handler
}

// New constructs a fully wired App. Component settings are read from the
// environment by their packages.
func New(ctx context.Context, cfg Config, log Logger) (*App, error) {
	if log == nil {
		log = NewLogger(cfg.LogLevel, cfg.LogFormat)
	}

	pwCfg, err := password.FromEnv()
	if err != nil {
		return nil, err
	}
	lockoutCfg, err := lockout.LoadConfigFromEnv()
	if err != nil {
		return nil, err
	}
	codeCfg, err := verify.ApplyEnv(verify.DefaultConfig())
	if err != nil {
		return nil, err
	}
	sessCfg, err := session.LoadConfigFromEnv()
	if err != nil {
		return nil, err
	}
	if sessCfg.Codec == session.CodecPaseto && sessCfg.PasetoSecretKeyHex == "" {
		// Tickets sealed with this key do not survive a restart.
		sessCfg.PasetoSecretKeyHex = paseto.NewV4AsymmetricSecretKey().ExportHex()
		log.Warn("session.key.ephemeral")
	}

	hasher, err := tokenHasher(cfg)
	if err != nil {
		return nil, err
	}

	stores, err := newBackends(ctx, cfg, lockoutCfg, hasher, log)
	if err != nil {
		return nil, err
	}

	a, err := wire(cfg, log, stores, pwCfg, lockoutCfg, codeCfg, sessCfg)
	if err != nil {
		stores.Close()
		return nil, err
	}
	return a, nil
}

func wire(
	cfg Config,
	log Logger,
	stores *backends,
	pwCfg password.Config,
	lockoutCfg lockout.Config,
	codeCfg verify.Config,
	sessCfg session.Config,
) (*App, error) {
	metrics := telemetry.New()

	pwHasher, err := password.NewHasher(pwCfg)
	if err != nil {
		return nil, err
	}
	chain, err := credentials.DefaultChain[*identity.User](pwCfg.Policy, identity.UserCapabilities, (*identity.User).LoginEmail)
	if err != nil {
		return nil, err
	}
	pipeline, err := credentials.NewPipeline(chain, pwHasher)
	if err != nil {
		return nil, err
	}

	tracker, err := lockout.NewTracker(lockoutCfg, stores.lockouts, lockout.WithLogger(log))
	if err != nil {
		return nil, err
	}
	codes, err := verify.NewService(codeCfg, stores.tokens)
	if err != nil {
		return nil, err
	}

	sessions, err := session.NewAuthenticator(sessCfg, session.StoreLoader(stores.users), session.UserFromTicket,
		session.WithLogger(log),
		session.WithObserver(func(o session.Outcome) { metrics.SessionCheck(string(o)) }),
	)
	if err != nil {
		return nil, err
	}
	codec, err := session.NewCodec(sessCfg)
	if err != nil {
		return nil, err
	}

	accounts, err := account.NewManager(account.Deps{
		Users:     stores.users,
		Passwords: pipeline,
		Lockout:   tracker,
		Codes:     codes,
		Sessions:  sessions,
	}, account.WithLogger(log), account.WithMetrics(metrics))
	if err != nil {
		return nil, err
	}

	auth, err := authapi.NewHandler(log, authapi.LoadConfigFromEnv(), accounts, codec)
	if err != nil {
		return nil, err
	}

	return &App{
		cfg:      cfg,
		log:      log,
		stores:   stores,
		metrics:  metrics,
		accounts: accounts,
		auth:     auth,
	}, nil
}

// Handler returns the full HTTP handler chain.
func (a *App) Handler() http.Handler {
	mux := http.NewServeMux()
	registerHTTP(mux, a)
	return WithRecover(WithRequestLogging(mux, a.log), a.log)
}

// Run starts the HTTP server and blocks until ctx is cancelled or the server fails.
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           a.Handler(),
		ReadHeaderTimeout: a.cfg.ReadHeaderTimeout,
		ReadTimeout:       a.cfg.ReadTimeout,
		WriteTimeout:      a.cfg.WriteTimeout,
		IdleTimeout:       a.cfg.IdleTimeout,
		MaxHeaderBytes:    a.cfg.MaxHeaderBytes,
	}

	a.log.Info("server.start",
		"addr", a.cfg.HTTPAddr,
		"users_store", a.stores.usersBackend,
		"lockout_tokens_store", a.stores.volatileStore,
	)

	stopPurge := a.startTokenPurge(ctx)

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
		stopPurge()
		a.Close()
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	err := srv.Shutdown(shutdownCtx)
	stopPurge()
	if err != nil {
		a.log.Error("server.shutdown.fail", "err", err)
		a.Close()
		return err
	}

	a.Close()
	a.log.Info("server.stopped")
	return nil
}

// Close releases store connections.
func (a *App) Close() {
	if a.stores != nil {
		a.stores.Close()
	}
}
