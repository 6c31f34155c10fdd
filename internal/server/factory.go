package server

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"

	"bankgate/internal/auth"
	"bankgate/internal/auth/authn"
	"bankgate/internal/auth/password"
	"bankgate/internal/auth/session"
	"bankgate/internal/bank"
	"bankgate/internal/config"
	"bankgate/internal/db/bunx"
	"bankgate/internal/gateway"
	"bankgate/internal/observability"
	"bankgate/internal/observability/logging"
	"bankgate/internal/repository"
	tlsconfig "bankgate/internal/tls"
)

// NewFromConfig creates a new server from configuration. The returned server
// owns the database connection and closes it on Stop.
func NewFromConfig(ctx context.Context, cfg *config.Config) (*Server, error) {
	obs, err := observability.NewProvider(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize observability: %w", err)
	}
	logger := obs.Logger

	var tlsCfg *tls.Config
	if cfg.TLS.Enabled {
		tlsSetup := &tlsconfig.Config{
			Logger:   logger,
			CertPath: cfg.TLS.CertPath,
			KeyPath:  cfg.TLS.KeyPath,
		}
		if tlsCfg, err = tlsSetup.GetTLSConfig(); err != nil {
			return nil, fmt.Errorf("failed to create TLS configuration: %w", err)
		}
	}

	logger.Info("Connecting to credential store", "database_url", logging.RedactDSN(cfg.Database.URL))
	db, err := bunx.NewDB(ctx, cfg.Database.URL, bunx.Options{MaxConnections: cfg.Database.MaxConnections})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to credential store: %w", err)
	}

	handler, err := NewHandler(cfg, repository.NewBunCredentialRepository(db), obs)
	if err != nil {
		_ = bunx.Close(db)
		return nil, err
	}

	srv := New(Config{
		Address:         cfg.Server.Address,
		MetricsAddress:  cfg.Metrics.Address,
		TLSConfig:       tlsCfg,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}, handler, obs.MetricsHandler(), logger)
	srv.OnStop(func() error { return bunx.Close(db) })

	return srv, nil
}

// NewHandler assembles the request pipeline over store: observability, then
// the gateway (session → route match → policy → handler).
func NewHandler(cfg *config.Config, store auth.CredentialStore, obs *observability.Provider) (http.Handler, error) {
	logger := obs.Logger

	hasher, err := password.NewBcrypt(cfg.Password.BcryptCost)
	if err != nil {
		return nil, err
	}

	authenticator, err := authn.New(store, hasher, logger, obs.Metrics)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize authenticator: %w", err)
	}

	sessions := session.NewMemory(session.Config{
		TTL:        cfg.Session.TTL,
		MaxEntries: cfg.Session.MaxEntries,
	}, logger, obs.Metrics)

	routes := bank.NewHandlers(logger).Routes(cfg.Routes.BasePath)

	router, err := gateway.New(gateway.Config{
		CookieName:   cfg.Session.CookieName,
		HeaderName:   cfg.Session.Header,
		CookieSecure: cfg.Session.CookieSecure,
		SessionTTL:   cfg.Session.TTL,
	}, routes, authenticator, sessions, logger, obs.Metrics)
	if err != nil {
		return nil, fmt.Errorf("failed to build route table: %w", err)
	}

	return obs.Middleware(router, router), nil
}
