package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/xavierca1/lead-inbox/internal/infra/http/handlers"
	mw "github.com/xavierca1/lead-inbox/internal/infra/http/middleware"
)

type routerDeps struct {
	Lead   *handlers.LeadHandler
	Admin  *handlers.AdminHandler
	Ops    *handlers.OpsHandler
	Health *handlers.HealthHandler

	AdminToken     string
	AllowedOrigins []string
	SlowRequest    time.Duration
}

func newRouter(d routerDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(mw.AccessLog(d.SlowRequest))
	r.Use(middleware.Recoverer)
	r.Use(mw.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: d.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		MaxAge:         300,
	}))

	r.Get("/health", d.Health.Handle)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/submit", d.Lead.Submit)

		r.Get("/ping", d.Ops.Ping)
		r.Get("/version", d.Ops.Version)
		r.Get("/debug", d.Ops.Debug)

		r.Group(func(r chi.Router) {
			r.Use(mw.AdminAuth(d.AdminToken))
			r.Get("/netcheck", d.Ops.NetCheck)
			r.Get("/admin/export", d.Admin.Export)
			r.Get("/admin/list", d.Admin.List)
		})
	})

	return r
}
