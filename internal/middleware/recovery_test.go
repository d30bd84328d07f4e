// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	chimw "github.com/go-chi/chi/v5/middleware"
)

func TestRecovererAnswersWithEnvelope(t *testing.T) {
	panics := []struct {
		name  string
		value any
	}{
		{"string", "nil parent dereference"},
		{"error", errors.New("store closed")},
		{"int", 42},
	}

	for _, p := range panics {
		t.Run(p.name, func(t *testing.T) {
			logs := captureLogs(t)
			handler := chimw.RequestID(Recoverer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				panic(p.value)
			})))

			req := httptest.NewRequest(http.MethodDelete, "/api/categories/3", nil)
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if rr.Code != http.StatusInternalServerError {
				t.Fatalf("status: got %d, want 500", rr.Code)
			}
			if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type: got %q, want application/json", ct)
			}
			if kind := decodeErrorKind(t, rr); kind != "internal" {
				t.Errorf("kind: got %q, want internal", kind)
			}

			rec := findRecord(t, logs(), "panic recovered")
			if rec["level"] != "ERROR" {
				t.Errorf("level: got %v, want ERROR", rec["level"])
			}
			if id, _ := rec["request_id"].(string); id == "" {
				t.Error("request_id missing from panic record")
			}
			if stack, _ := rec["stack"].(string); stack == "" {
				t.Error("stack missing from panic record")
			}
		})
	}
}

func TestRecovererPassesThrough(t *testing.T) {
	handler := Recoverer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":1}`))
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/categories", nil))

	if rr.Code != http.StatusCreated || rr.Body.String() != `{"id":1}` {
		t.Errorf("got %d %s, want 201 {\"id\":1}", rr.Code, rr.Body.String())
	}
}
