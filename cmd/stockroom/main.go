// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package main is the entry point for the stockroom server.
// It loads configuration, opens the category store, connects to Valkey,
// sets up routing, and starts the HTTP server with graceful shutdown support.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stockroom/internal/cache"
	"stockroom/internal/catalog"
	"stockroom/internal/config"
	"stockroom/internal/database"
	"stockroom/internal/handlers"
	"stockroom/internal/kvstore"
	"stockroom/internal/middleware"
	"stockroom/internal/router"
	"stockroom/internal/seed"
	"stockroom/internal/session"
	"stockroom/internal/store"
)

// userStore is what login and seeding need from either backend.
type userStore interface {
	handlers.UserStore
	seed.Users
}

// backend is the opened storage for the configured STORE_BACKEND.
type backend struct {
	ping       router.Pinger
	nodes      catalog.NodeStore
	users      userStore
	components seed.Components
	close      func() error
}

func main() {
	// Load configuration from environment variables.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Structured logger: JSON in production, text in development.
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	var handler slog.Handler = slog.NewJSONHandler(os.Stdout, opts)
	if cfg.IsDev() {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
		"store", cfg.StoreBackend,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	be, err := openBackend(ctx, cfg, logger)
	if err != nil {
		slog.Error("failed to open store", "backend", cfg.StoreBackend, "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := be.close(); err != nil {
			slog.Error("failed to close store", "error", err)
		}
	}()

	svc := catalog.NewService(be.nodes, logger)

	// Seed development data (no-op if data already exists).
	if cfg.IsDev() {
		if err := seed.Run(ctx, be.users, svc, be.components); err != nil {
			slog.Error("failed to seed store", "error", err)
			os.Exit(1)
		}
	}

	// Connect to Valkey (sessions and the tree cache).
	valkeyClient, err := cache.ConnectValkey(ctx, cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword)
	if err != nil {
		slog.Error("failed to connect to valkey", "error", err)
		os.Exit(1)
	}
	defer valkeyClient.Close()

	// In non-development environments, mark cookies as Secure (HTTPS-only).
	secureCookies := !cfg.IsDev()
	sessionStore := session.NewStore(valkeyClient, secureCookies)
	treeCache := cache.NewTreeCache(valkeyClient, cfg.CacheTTL)

	// Drop views cached by a previous process; the store may have changed.
	treeCache.Invalidate(ctx)

	loginLimiter := middleware.NewRateLimiter(cfg.LoginRateLimit, time.Minute)
	defer loginLimiter.Stop()

	r := router.New(router.Deps{
		Store:         be.ping,
		Sessions:      sessionStore,
		LoginLimiter:  loginLimiter,
		SecureCookies: secureCookies,
		Auth:          handlers.NewAuth(sessionStore, be.users),
		Categories:    handlers.NewCategories(svc, treeCache),
	})

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
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutdown signal received")

	// Give active requests up to 30 seconds to complete.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		return
	}

	slog.Info("server stopped gracefully")
}

// openBackend opens PostgreSQL or BadgerDB depending on cfg.StoreBackend.
// The badger value log collector runs until ctx is done.
func openBackend(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*backend, error) {
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		db, err := database.Connect(ctx, cfg.DSN())
		if err != nil {
			return nil, err
		}
		if err := database.Migrate(db); err != nil {
			db.Close()
			return nil, err
		}
		categories := store.NewCategoryStore(db)
		return &backend{
			ping:       categories,
			nodes:      categories,
			users:      store.NewUserStore(db),
			components: store.NewComponentStore(db),
			close:      db.Close,
		}, nil

	case config.BackendBadger:
		kcfg := kvstore.DefaultConfig(cfg.BadgerPath)
		kcfg.InMemory = cfg.BadgerInMemory
		kcfg.Logger = logger.With("component", "badger")
		kv, err := kvstore.Open(kcfg)
		if err != nil {
			return nil, err
		}
		kv.StartGC(ctx)
		slog.Info("badger store opened", "path", cfg.BadgerPath, "in_memory", cfg.BadgerInMemory)
		return &backend{ping: kv, nodes: kv, users: kv, components: kv, close: kv.Close}, nil
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
}
