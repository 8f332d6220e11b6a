// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package main is the entry point for the taxonomy service.
// It loads configuration, connects to services, sets up routing, and starts
// the HTTP server with graceful shutdown support.
package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"taxonomy/internal/cache"
	"taxonomy/internal/config"
	"taxonomy/internal/database"
	"taxonomy/internal/handlers"
	"taxonomy/internal/hierarchy"
	"taxonomy/internal/router"
	"taxonomy/internal/store"
)

// categoryBackend is what both store implementations offer.
type categoryBackend interface {
	hierarchy.NodeStore
	handlers.CategoryReader
}

// historyBackend is what both mutation log implementations offer.
type historyBackend interface {
	hierarchy.MutationLog
	handlers.MutationHistory
}

// menuBackend is what both menu cache implementations offer.
type menuBackend interface {
	handlers.MenuCache
	hierarchy.TreeCache
}

func main() {
	// Load configuration from environment variables.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Structured logger: JSON in production, text otherwise.
	var handler slog.Handler
	if cfg.Env == "production" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
	slog.SetDefault(slog.New(handler))

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
		"store", cfg.StoreBackend,
		"cache", cfg.CacheBackend,
	)

	// Category store and mutation log.
	var (
		backend categoryBackend
		history historyBackend
	)
	switch cfg.StoreBackend {
	case "postgres":
		db, err := openDatabase(cfg)
		if err != nil {
			slog.Error("failed to prepare database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		backend = store.NewCategoryStore(db)
		history = store.NewMutationLogStore(db)
	default:
		slog.Warn("using in-memory category store, data is lost on restart")
		backend = store.NewMemoryStore()
		history = store.NewMemoryMutationLog(1000)
	}

	// Breadcrumb and menu caches.
	var (
		crumbs hierarchy.BreadcrumbCache
		menus  menuBackend
	)
	switch cfg.CacheBackend {
	case "valkey":
		valkeyClient, err := cache.ConnectValkey(cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword, cfg.ValkeyDB)
		if err != nil {
			slog.Error("failed to connect to valkey", "error", err)
			os.Exit(1)
		}
		defer valkeyClient.Close()
		crumbs = cache.NewBreadcrumbCache(valkeyClient, cfg.BreadcrumbTTL)
		menus = cache.NewMenuCache(valkeyClient, cfg.MenuTTL)
	default:
		crumbs = cache.NewMemoryBreadcrumbCache(cfg.BreadcrumbTTL)
		menus = cache.NewMemoryMenuCache(cfg.MenuTTL)
	}

	eng := hierarchy.New(backend,
		hierarchy.WithBreadcrumbCache(crumbs),
		hierarchy.WithTreeCache(menus),
		hierarchy.WithMutationLog(history),
		hierarchy.WithSeparator(cfg.PathSeparator),
	)

	categories := handlers.NewCategories(eng, backend, menus, handlers.Options{
		MenuLevels: cfg.MenuLevels,
		TenantID:   cfg.TenantID,
		MenuKey:    cache.MenuKey,
		History:    history,
	})

	r := router.New(categories)

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start the server in a goroutine so we can listen for shutdown signals.
	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown: wait for SIGINT or SIGTERM, then drain connections.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig)

	// Give active requests up to 30 seconds to complete. A cascade that is
	// cut short here can be finished later through the recompute endpoint.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}

// openDatabase connects to PostgreSQL, applies migrations and, in
// development, seeds a sample taxonomy.
func openDatabase(cfg *config.Config) (*sql.DB, error) {
	db, err := database.Connect(cfg.DSN())
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	if cfg.IsDev() {
		if err := database.Seed(db); err != nil {
			db.Close()
			return nil, err
		}
	}
	return db, nil
}
