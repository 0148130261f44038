package main

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ucsb-cs156-s23/team02-s23-7pm-1/internal/auth"
	"github.com/ucsb-cs156-s23/team02-s23-7pm-1/internal/authz"
	"github.com/ucsb-cs156-s23/team02-s23-7pm-1/internal/cache"
	"github.com/ucsb-cs156-s23/team02-s23-7pm-1/internal/config"
	"github.com/ucsb-cs156-s23/team02-s23-7pm-1/internal/frontend"
	"github.com/ucsb-cs156-s23/team02-s23-7pm-1/internal/handler"
	"github.com/ucsb-cs156-s23/team02-s23-7pm-1/internal/metrics"
	"github.com/ucsb-cs156-s23/team02-s23-7pm-1/internal/middleware"
	"github.com/ucsb-cs156-s23/team02-s23-7pm-1/internal/model"
	"github.com/ucsb-cs156-s23/team02-s23-7pm-1/internal/repository"
	"github.com/ucsb-cs156-s23/team02-s23-7pm-1/internal/service"
)

// deps are the long-lived components the router is built from.
type deps struct {
	cfg      *config.Config
	logger   *slog.Logger
	repo     *repository.Repository
	cache    *cache.Cache
	recorder *metrics.InMemoryRecorder
	sessions *auth.Sessions
	google   *auth.GoogleLogin // nil when login is disabled
	frontend http.Handler
}

// resource is one CRUD collection mounted under /api/{path}.
type resource struct {
	path   string
	routes func(chi.Router)
}

func buildResource[T any, PT interface {
	*T
	model.Entity
	model.FormBinder
}](d deps, path string, table repository.Table[T]) (resource, error) {
	var store repository.Store[T]
	if d.cfg.StoreDriver == config.StoreDriverMemory {
		mem, err := repository.NewMemory[T, PT](table)
		if err != nil {
			return resource{}, fmt.Errorf("memory store %s: %w", table.Name, err)
		}
		store = mem
	} else {
		store = repository.NewPostgres[T, PT](d.repo.Pool(), table)
	}

	svc := service.NewEntities[T, PT](table.Entity, store, d.recorder, d.logger)
	return resource{path: path, routes: handler.NewResource[T, PT](svc, d.logger).Routes}, nil
}

func buildResources(d deps) ([]resource, error) {
	builders := []func(deps) (resource, error){
		func(d deps) (resource, error) { return buildResource[model.Major](d, "majors", repository.MajorsTable) },
		func(d deps) (resource, error) { return buildResource[model.Park](d, "parks", repository.ParksTable) },
		func(d deps) (resource, error) { return buildResource[model.Phone](d, "phones", repository.PhonesTable) },
		func(d deps) (resource, error) {
			return buildResource[model.Restaurant](d, "restaurants", repository.RestaurantsTable)
		},
		func(d deps) (resource, error) { return buildResource[model.School](d, "schools", repository.SchoolsTable) },
		func(d deps) (resource, error) {
			return buildResource[model.UCSBDate](d, "ucsbdates", repository.UCSBDatesTable)
		},
		func(d deps) (resource, error) {
			return buildResource[model.UCSBDiningCommons](d, "ucsbdiningcommons", repository.UCSBDiningCommonsTable)
		},
	}

	resources := make([]resource, 0, len(builders))
	for _, build := range builders {
		res, err := build(d)
		if err != nil {
			return nil, err
		}
		resources = append(resources, res)
	}
	return resources, nil
}

// newRouter configures the chi router with all routes and middleware.
func newRouter(d deps) (*chi.Mux, error) {
	cfg, logger := d.cfg, d.logger

	resources, err := buildResources(d)
	if err != nil {
		return nil, err
	}
	paths := make([]string, 0, len(resources))
	for _, res := range resources {
		paths = append(paths, res.path)
	}
	enforcer, err := authz.NewEnforcer(paths)
	if err != nil {
		return nil, err
	}

	accounts := service.NewAccounts(service.AccountsConfig{
		Users:        d.repo,
		Keys:         d.repo,
		Cache:        d.cache,
		Recorder:     d.recorder,
		Logger:       logger,
		IsAdminEmail: cfg.IsAdminEmail,
		KeyEnv:       keyEnv(cfg),
	})

	h := handler.New()
	health := handler.NewHealthHandler(d.repo, d.cache)
	if cfg.StoreDriver == config.StoreDriverMemory {
		// Entities live in memory; Postgres still holds users and keys.
		logger.Warn("memory_store_enabled", slog.String("reason", "entities are lost on restart"))
	}
	users := handler.NewUserHandler(accounts, logger)
	apiKeys := handler.NewAPIKeyHandler(accounts, logger)
	loginURL := ""
	if d.google != nil {
		loginURL = handler.LoginPath
	}
	system := handler.NewSystemHandler(loginURL, cfg.SourceRepo, cfg.AppEnv)
	metricsHandler := handler.NewMetricsHandler(d.recorder)

	loginCfg := handler.LoginConfig{
		Accounts:     accounts,
		Sessions:     d.sessions,
		Revoker:      d.cache,
		Recorder:     d.recorder,
		Logger:       logger,
		CookieName:   cfg.SessionCookieName,
		CookieSecure: cfg.SessionCookieSecure,
	}
	if d.google != nil {
		loginCfg.Flow = d.google
	}
	login := handler.NewLoginHandler(loginCfg)

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = cfg.GetCORSAllowedOrigins()

	rateLimitCfg := middleware.RateLimitConfig{
		Logger:       logger,
		Limiter:      d.cache,
		APIEnabled:   cfg.RateLimitAPIEnabled,
		LoginEnabled: cfg.RateLimitLoginEnabled,
		LoginRPS:     cfg.RateLimitLoginRPS,
		LoginBurst:   cfg.RateLimitLoginBurst,
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recoverer(logger))
	r.Use(middleware.Security(middleware.SecurityConfig{
		IsDevelopment: cfg.IsDevelopment(),
		APIPrefixes:   middleware.DefaultAPIPrefixes,
	}))
	r.Use(middleware.CORS(corsCfg))
	r.Use(middleware.MaxBodySize(cfg.MaxRequestBodySize))
	r.Use(middleware.Authenticate(middleware.AuthConfig{
		Logger:     logger,
		Keys:       d.repo,
		Cache:      d.cache,
		Sessions:   d.sessions,
		CookieName: cfg.SessionCookieName,
	}))

	r.Get("/healthz", health.Healthz)
	r.Get("/readyz", health.Readyz)
	r.Get("/metrics", metricsHandler.Metrics)

	if d.google != nil {
		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimitLogin(rateLimitCfg))
			r.Get(handler.LoginPath, login.Begin)
			r.Get(handler.CallbackPath, login.Callback)
		})
	}
	r.Post(handler.LogoutPath, login.Logout)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Authorize(logger, enforcer))
		r.Use(middleware.RateLimitAPI(rateLimitCfg))

		r.Get("/systemInfo", system.SystemInfo)
		r.Get("/currentUser", users.CurrentUser)
		r.Get("/admin/users", users.ListUsers)
		r.Get("/admin/users/{id}", users.GetUser)
		r.Route("/apikeys", apiKeys.Routes)
		for _, res := range resources {
			r.Route("/"+res.path, res.routes)
		}
	})

	r.NotFound(frontend.Fallback(d.frontend, middleware.DefaultAPIPrefixes, http.HandlerFunc(h.NotFound)))
	r.MethodNotAllowed(h.MethodNotAllowed)

	return r, nil
}

// keyEnv picks the API key environment tag for cfg.
func keyEnv(cfg *config.Config) string {
	if cfg.IsProduction() {
		return auth.EnvLive
	}
	return auth.EnvTest
}
