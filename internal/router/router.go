// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package router sets up all HTTP routes and middleware chains for the
// stockroom API. Reads need a session; writes to the category tree need
// an admin session.
package router

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"stockroom/internal/handlers"
	"stockroom/internal/middleware"
)

// Pinger reports whether a backing service is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps holds everything the router wires into routes.
type Deps struct {
	Store         Pinger
	Sessions      middleware.SessionLoader
	LoginLimiter  *middleware.RateLimiter
	SecureCookies bool
	Auth          *handlers.Auth
	Categories    *handlers.Categories
}

// New creates and returns the configured Chi router with all middleware
// and route groups wired up.
func New(d Deps) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(chimw.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)
	r.Use(middleware.LoadSession(d.Sessions))

	// Health check: no auth, no CSRF.
	r.Get("/health", healthHandler)
	if d.Store != nil {
		r.Get("/ready", readyHandler(d.Store))
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			if d.LoginLimiter != nil {
				r.With(d.LoginLimiter.Middleware).Post("/login", d.Auth.Login)
			} else {
				r.Post("/login", d.Auth.Login)
			}
			r.Post("/logout", d.Auth.Logout)
			r.With(middleware.RequireAuth).Get("/me", d.Auth.Me)
		})

		r.Route("/categories", func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Use(middleware.NewCSRF(d.SecureCookies))

			cats := d.Categories
			r.Get("/", cats.List)
			r.Get("/roots", cats.Roots)
			r.Get("/hierarchy", cats.Hierarchy)
			r.Get("/flat", cats.Flat)
			r.Get("/{id}", cats.Get)
			r.Get("/{id}/children", cats.Children)
			r.Get("/{id}/path", cats.Path)

			// Tree changes, admin only.
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAdmin)
				r.Get("/{id}/can-delete", cats.CanDelete)
				r.Post("/", cats.Create)
				r.Put("/{id}", cats.Update)
				r.Patch("/{id}/name", cats.Rename)
				r.Patch("/{id}/parent", cats.Reparent)
				r.Delete("/{id}", cats.Delete)
			})
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

// readyHandler reports 503 while the category store is unreachable.
func readyHandler(store Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		w.Header().Set("Content-Type", "application/json")
		if err := store.Ping(ctx); err != nil {
			slog.Warn("readiness check failed", "error", err)
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}
}
