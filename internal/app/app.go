// Package app wires the store, session, history log and catalog together.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"Inventario/internal/auth"
	"Inventario/internal/catalog"
	"Inventario/internal/config"
	"Inventario/internal/gateway"
	"Inventario/internal/history"
	"Inventario/internal/kv"
	"Inventario/pkg/kit"
)

type Options struct {
	// Registry, when set, receives the history audit counter.
	Registry *prometheus.Registry
	// Now overrides the history clock.
	Now func() time.Time
}

type App struct {
	Config  config.Config
	Store   kv.Store
	Users   *auth.Users
	Session *auth.Session
	History *history.Log
	Catalog *catalog.Repository
	Tokens  *auth.TokenMaker

	log *zap.Logger
}

// Open connects the configured store and seeds any missing state.
func Open(ctx context.Context, cfg config.Config, log *zap.Logger, opts Options) (*App, error) {
	if log == nil {
		log = zap.NewNop()
	}

	loc, err := cfg.LoadLocation()
	if err != nil {
		return nil, err
	}

	store, err := kv.Open(ctx, cfg.Store.Driver, cfg.Store.DSN)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Store.Driver, err)
	}

	histOpts := []history.Option{history.WithLocation(loc)}
	if opts.Now != nil {
		histOpts = append(histOpts, history.WithClock(opts.Now))
	}
	if opts.Registry != nil {
		histOpts = append(histOpts, history.WithRecorder(kit.NewAuditMetrics(opts.Registry)))
	}

	users := auth.NewUsers(store, log.Named("auth"))
	session := &auth.Session{Users: users}
	hist := history.NewLog(store, log.Named("history"), histOpts...)
	repo := catalog.NewRepository(store, hist, session, log.Named("catalog"))

	a := &App{
		Config:  cfg,
		Store:   store,
		Users:   users,
		Session: session,
		History: hist,
		Catalog: repo,
		Tokens:  auth.NewTokenMaker(cfg.JWTSecret),
		log:     log,
	}

	if err := errors.Join(users.Init(ctx), hist.Init(ctx), repo.Init(ctx)); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("seed store: %w", err)
	}

	log.Info("store ready",
		zap.String("driver", cfg.Store.Driver),
		zap.String("location", loc.String()),
	)
	return a, nil
}

func (a *App) GatewayDeps() gateway.Deps {
	return gateway.Deps{
		Store:    a.Store,
		Users:    a.Users,
		Catalog:  a.Catalog,
		History:  a.History,
		Tokens:   a.Tokens,
		TokenTTL: a.Config.TokenTTL,
	}
}

func (a *App) Close() error {
	if err := a.Store.Close(); err != nil {
		a.log.Warn("close store failed", zap.Error(err))
		return err
	}
	return nil
}
