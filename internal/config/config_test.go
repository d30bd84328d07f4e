// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package config

import (
	"log/slog"
	"strings"
	"testing"
	"time"
)

// clearEnv sets every variable Load reads to "", which envOrDefault treats
// as unset. t.Setenv restores the previous values after the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"APP_HOST", "APP_PORT", "APP_ENV", "LOG_LEVEL", "STORE_BACKEND",
		"POSTGRES_HOST", "POSTGRES_PORT", "POSTGRES_USER", "POSTGRES_PASSWORD", "POSTGRES_DB",
		"BADGER_PATH", "BADGER_IN_MEMORY",
		"VALKEY_HOST", "VALKEY_PORT", "VALKEY_PASSWORD",
		"CACHE_TTL", "LOGIN_RATE_LIMIT",
	} {
		t.Setenv(key, "")
	}
}

// TestLoad_Defaults verifies that Load returns sensible development defaults
// when no environment variables are set.
func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	defaults := map[string]string{
		"Host":         cfg.Host,
		"Port":         cfg.Port,
		"Env":          cfg.Env,
		"StoreBackend": cfg.StoreBackend,
		"DBUser":       cfg.DBUser,
		"DBName":       cfg.DBName,
		"BadgerPath":   cfg.BadgerPath,
		"ValkeyPort":   cfg.ValkeyPort,
	}
	want := map[string]string{
		"Host":         "0.0.0.0",
		"Port":         "8080",
		"Env":          "development",
		"StoreBackend": BackendPostgres,
		"DBUser":       "stockroom",
		"DBName":       "stockroom",
		"BadgerPath":   "data/badger",
		"ValkeyPort":   "6379",
	}
	for field, got := range defaults {
		if got != want[field] {
			t.Errorf("%s = %q, want %q", field, got, want[field])
		}
	}

	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("LogLevel = %v, want INFO", cfg.LogLevel)
	}
	if cfg.CacheTTL != 5*time.Minute {
		t.Errorf("CacheTTL = %v, want 5m", cfg.CacheTTL)
	}
	if cfg.LoginRateLimit != 10 {
		t.Errorf("LoginRateLimit = %d, want 10", cfg.LoginRateLimit)
	}
	if cfg.BadgerInMemory {
		t.Error("BadgerInMemory should default to false")
	}
	if !cfg.IsDev() {
		t.Error("expected development mode by default")
	}
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("STORE_BACKEND", "Badger")
	t.Setenv("BADGER_IN_MEMORY", "true")
	t.Setenv("CACHE_TTL", "30s")
	t.Setenv("LOGIN_RATE_LIMIT", "3")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr() != "0.0.0.0:9090" {
		t.Errorf("Addr = %q", cfg.Addr())
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("LogLevel = %v", cfg.LogLevel)
	}
	if cfg.StoreBackend != BackendBadger || !cfg.BadgerInMemory {
		t.Errorf("backend = %q, in-memory = %v", cfg.StoreBackend, cfg.BadgerInMemory)
	}
	if cfg.CacheTTL != 30*time.Second || cfg.LoginRateLimit != 3 {
		t.Errorf("CacheTTL = %v, LoginRateLimit = %d", cfg.CacheTTL, cfg.LoginRateLimit)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{"bad log level", map[string]string{"LOG_LEVEL": "loud"}, "LOG_LEVEL"},
		{"bad ttl", map[string]string{"CACHE_TTL": "soon"}, "CACHE_TTL"},
		{"bad rate", map[string]string{"LOGIN_RATE_LIMIT": "many"}, "LOGIN_RATE_LIMIT"},
		{"zero rate", map[string]string{"LOGIN_RATE_LIMIT": "0"}, "LOGIN_RATE_LIMIT"},
		{"bad backend", map[string]string{"STORE_BACKEND": "sqlite"}, "STORE_BACKEND"},
		{"bad bool", map[string]string{"BADGER_IN_MEMORY": "maybe"}, "BADGER_IN_MEMORY"},
		{"prod default password", map[string]string{"APP_ENV": "production"}, "POSTGRES_PASSWORD"},
		{"prod in-memory badger", map[string]string{
			"APP_ENV":           "production",
			"POSTGRES_PASSWORD": "s3cret",
			"STORE_BACKEND":     "badger",
			"BADGER_IN_MEMORY":  "true",
		}, "BADGER_IN_MEMORY"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %s", err, tt.wantErr)
			}
		})
	}
}

func TestDSN(t *testing.T) {
	cfg := &Config{DBUser: "u", DBPassword: "p", DBHost: "h", DBPort: "1", DBName: "d"}
	if got, want := cfg.DSN(), "postgres://u:p@h:1/d?sslmode=disable"; got != want {
		t.Errorf("DSN = %q, want %q", got, want)
	}
}
