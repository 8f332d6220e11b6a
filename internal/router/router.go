// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package router sets up all HTTP routes and middleware chains for the
// taxonomy service.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"taxonomy/internal/handlers"
	"taxonomy/internal/middleware"
)

// New creates and returns the configured Chi router with all middleware
// and route groups wired up.
func New(categories *handlers.Categories) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)

	r.Get("/health", healthHandler)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/categories", func(r chi.Router) {
		r.Use(middleware.APIHeaders)
		r.Use(middleware.SerializeWrites())

		r.Get("/", categories.List)
		r.Post("/", categories.Create)
		r.Get("/menu", categories.Menu)
		r.Get("/roots", categories.Roots)
		r.Get("/history", categories.History)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", categories.Get)
			r.Delete("/", categories.Delete)
			r.Get("/children", categories.Children)
			r.Get("/breadcrumbs", categories.Breadcrumbs)
			r.Get("/tree", categories.Tree)
			r.Get("/history", categories.History)
			r.Post("/move", categories.Move)
			r.Post("/restore", categories.Restore)
			r.Post("/recompute", categories.Recompute)
		})
	})

	return r
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
