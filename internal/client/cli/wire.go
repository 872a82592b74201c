package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/dmitrijs2005/parkclient/internal/buildinfo"
	"github.com/dmitrijs2005/parkclient/internal/client/client"
	"github.com/dmitrijs2005/parkclient/internal/client/config"
	"github.com/dmitrijs2005/parkclient/internal/client/credentials"
	"github.com/dmitrijs2005/parkclient/internal/client/events"
	"github.com/dmitrijs2005/parkclient/internal/client/session"
	"github.com/dmitrijs2005/parkclient/internal/client/storage"
	"github.com/dmitrijs2005/parkclient/internal/filex"
	"github.com/dmitrijs2005/parkclient/internal/logging"
	"github.com/dmitrijs2005/parkclient/internal/tracing"
	"github.com/prometheus/client_golang/prometheus"
)

// Bootstrap builds a ready-to-run App from cfg: local database, credential
// store, event bus, API client, session owner and, when enabled, tracing.
// The returned cleanup closes the database and flushes spans.
func Bootstrap(ctx context.Context, cfg *config.Config, opts ...Option) (*App, func(context.Context), error) {
	log := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stderr).With("role", string(cfg.Role))

	shutdownTracing, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    "park-" + string(cfg.Role) + "-client",
		ServiceVersion: buildinfo.Version,
		Role:           string(cfg.Role),
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SampleRate:     1.0,
		Enabled:        cfg.TracingEnabled,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("init tracing: %w", err)
	}

	dbPath, err := filex.EnsureParentDir(cfg.DBPath)
	if err != nil {
		_ = shutdownTracing(ctx)
		return nil, nil, fmt.Errorf("init database: %w", err)
	}
	db, err := storage.InitDatabase(ctx, dbPath)
	if err != nil {
		_ = shutdownTracing(ctx)
		return nil, nil, fmt.Errorf("init database: %w", err)
	}

	cleanup := func(ctx context.Context) {
		if err := db.Close(); err != nil {
			log.Warn(ctx, "close database", "error", err)
		}
		if err := shutdownTracing(ctx); err != nil {
			log.Warn(ctx, "shutdown tracing", "error", err)
		}
	}

	store := credentials.NewStore(db,
		credentials.WithTimeout(cfg.StoreTimeout),
		credentials.WithLogger(log),
	)
	bus := events.NewBus(log)

	reg := prometheus.NewRegistry()
	metrics := client.NewMetrics(reg)

	breaker := client.DefaultBreakerConfig()
	breaker.FailureRatio = cfg.BreakerFailureRatio
	breaker.MinRequests = cfg.BreakerMinRequests
	breaker.OpenTimeout = cfg.BreakerOpenTimeout

	api, err := client.New(client.Config{
		ServerURL: cfg.ServerURL,
		APIPrefix: cfg.APIPrefix,
		Role:      cfg.Role,
		Timeout:   cfg.RequestTimeout,
		Breaker:   breaker,
	}, store, bus,
		client.WithLogger(log),
		client.WithMetrics(metrics),
	)
	if err != nil {
		cleanup(ctx)
		return nil, nil, err
	}

	owner := session.NewOwner(store, api, bus,
		session.WithStartupValidation(cfg.ValidateOnStartup),
		session.WithLogger(log),
	)

	opts = append([]Option{
		WithLogger(log),
		WithGatherer(reg),
		WithServerURL(cfg.ServerURL),
		WithOnlineCheckInterval(cfg.OnlineCheckInterval),
	}, opts...)

	return NewApp(cfg.Role, owner, api, opts...), cleanup, nil
}
