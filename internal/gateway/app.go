// Package gateway is the single HTTP surface: auth endpoints are public,
// catalog and history endpoints require a bearer token whose subject becomes
// the acting user.
package gateway

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"Inventario/internal/auth"
	"Inventario/internal/catalog"
	"Inventario/internal/history"
	"Inventario/internal/kv"
	"Inventario/pkg/kit"
)

type HTTPDeps struct {
	Log      *zap.Logger
	Service  string
	Registry *prometheus.Registry

	MetricsEnabled bool
	MetricsToken   string
}

type Deps struct {
	Store    kv.Store
	Users    *auth.Users
	Catalog  *catalog.Repository
	History  *history.Log
	Tokens   *auth.TokenMaker
	TokenTTL time.Duration
}

const readyTimeout = 2 * time.Second

func NewHandler(deps Deps, httpDeps HTTPDeps) (http.Handler, error) {
	if deps.Store == nil || deps.Users == nil || deps.Catalog == nil || deps.History == nil || deps.Tokens == nil {
		return nil, errors.New("gateway: missing dependency")
	}

	log := httpDeps.Log
	if log == nil {
		log = zap.NewNop()
		httpDeps.Log = log
	}

	authSrv := &auth.Server{Log: log, Users: deps.Users, JWT: deps.Tokens, TokenTTL: deps.TokenTTL}
	catalogSrv := &catalog.Server{Catalog: deps.Catalog, Log: log}
	historySrv := &history.Server{History: deps.History, Log: log}

	r := chi.NewRouter()
	setupMiddleware(r, httpDeps)
	setupMetrics(r, httpDeps)

	r.Get("/healthz", healthz)
	r.Get("/readyz", readyz(deps.Store, log))

	r.Mount("/auth", authSrv.Routes())

	r.Group(func(pr chi.Router) {
		pr.Use(AuthJWT(deps.Tokens))
		pr.Mount("/products", catalogSrv.Routes())
		pr.Mount("/history", historySrv.Routes())
	})

	return r, nil
}

func setupMiddleware(r *chi.Mux, deps HTTPDeps) {
	r.Use(chimw.RequestID)
	r.Use(kit.Logging(deps.Log))
	r.Use(kit.Recoverer(deps.Log))
}

func setupMetrics(r *chi.Mux, deps HTTPDeps) {
	if deps.Registry == nil {
		return
	}

	metrics := kit.NewMetrics(deps.Registry)
	r.Use(metrics.Middleware(deps.Service, kit.RoutePattern))

	if !deps.MetricsEnabled {
		return
	}

	r.With(kit.MetricsAuth(deps.MetricsToken)).
		Handle("/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
}

func healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func readyz(store kv.Store, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()

		if err := store.Ping(ctx); err != nil {
			log.Warn("readyz failed: store", zap.Error(err))
			kit.WriteError(w, r, http.StatusServiceUnavailable, "store not ready", nil)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}
