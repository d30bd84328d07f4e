// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// handler_test.go provides shared test infrastructure for handler tests.
// The catalog runs on the in-memory badger store; sessions and the tree
// cache are in-process fakes.
package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"

	"stockroom/internal/catalog"
	"stockroom/internal/kvstore"
	"stockroom/internal/middleware"
	"stockroom/internal/models"
	"stockroom/internal/session"
)

// memCache is an in-process TreeCache. beforeSet, when set, runs at the
// start of Set to stand in for a mutation that races a tree build.
type memCache struct {
	mu          sync.Mutex
	gen         int64
	entries     map[string][]byte
	invalidated int
	beforeSet   func()
}

func newMemCache() *memCache {
	return &memCache{entries: make(map[string][]byte)}
}

func (c *memCache) Generation(context.Context) (int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen, true
}

func (c *memCache) Get(_ context.Context, gen int64, key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return nil, false
	}
	v, ok := c.entries[key]
	return v, ok
}

func (c *memCache) Set(_ context.Context, gen int64, key string, payload []byte) {
	if hook := c.beforeSet; hook != nil {
		c.beforeSet = nil
		hook()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return
	}
	c.entries[key] = payload
}

func (c *memCache) Invalidate(context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.entries = make(map[string][]byte)
	c.invalidated++
}

// cached returns the view stored for key in the current generation.
func (c *memCache) cached(key string) ([]byte, bool) {
	gen, _ := c.Generation(context.Background())
	return c.Get(context.Background(), gen, key)
}

// fakeSessions records created and destroyed sessions.
type fakeSessions struct {
	created   []*session.Data
	destroyed int
	err       error
}

func (f *fakeSessions) Create(_ context.Context, w http.ResponseWriter, data *session.Data) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.created = append(f.created, data)
	http.SetCookie(w, &http.Cookie{Name: session.CookieName, Value: "test-session"})
	return "test-session", nil
}

func (f *fakeSessions) Destroy(_ context.Context, w http.ResponseWriter, _ *http.Request) error {
	f.destroyed++
	http.SetCookie(w, &http.Cookie{Name: session.CookieName, MaxAge: -1})
	return f.err
}

// testEnv holds all dependencies for handler tests.
type testEnv struct {
	store    *kvstore.Store
	svc      *catalog.Service
	cache    *memCache
	sessions *fakeSessions
	router   chi.Router
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	kv, err := kvstore.Open(kvstore.InMemoryConfig())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { kv.Close() })

	env := &testEnv{
		store:    kv,
		svc:      catalog.NewService(kv, discardLogger()),
		cache:    newMemCache(),
		sessions: &fakeSessions{},
	}

	cats := NewCategories(env.svc, env.cache)
	auth := NewAuth(env.sessions, kv)

	r := chi.NewRouter()
	r.Post("/api/auth/login", auth.Login)
	r.Post("/api/auth/logout", auth.Logout)
	r.Get("/api/auth/me", auth.Me)
	r.Route("/api/categories", func(r chi.Router) {
		r.Get("/", cats.List)
		r.Post("/", cats.Create)
		r.Get("/roots", cats.Roots)
		r.Get("/hierarchy", cats.Hierarchy)
		r.Get("/flat", cats.Flat)
		r.Get("/{id}", cats.Get)
		r.Put("/{id}", cats.Update)
		r.Delete("/{id}", cats.Delete)
		r.Get("/{id}/children", cats.Children)
		r.Get("/{id}/path", cats.Path)
		r.Get("/{id}/can-delete", cats.CanDelete)
		r.Patch("/{id}/name", cats.Rename)
		r.Patch("/{id}/parent", cats.Reparent)
	})
	env.router = r
	return env
}

// do sends a request with an optional JSON body. sess, when set, is placed
// in the request context the way LoadSession would.
func (env *testEnv) do(t *testing.T, method, path, body string, sess *session.Data) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if sess != nil {
		req = req.WithContext(middleware.WithSession(req.Context(), sess))
	}
	rr := httptest.NewRecorder()
	env.router.ServeHTTP(rr, req)
	return rr
}

// create adds a category through the API and returns it.
func (env *testEnv) create(t *testing.T, name string, parentID *int64) models.Category {
	t.Helper()
	payload := map[string]any{"name": name, "parent_id": parentID}
	var buf bytes.Buffer
	json.NewEncoder(&buf).Encode(payload)

	rr := env.do(t, http.MethodPost, "/api/categories", buf.String(), nil)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create %q: status %d, body %s", name, rr.Code, rr.Body.String())
	}
	var c models.Category
	decode(t, rr, &c)
	return c
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) errorDetail {
	t.Helper()
	var body errorBody
	decode(t, rr, &body)
	return body.Error
}

func ptr(id int64) *int64 { return &id }
