package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/estrellaangel/VolleyTech/internal/cache"
	"github.com/estrellaangel/VolleyTech/internal/config"
	"github.com/estrellaangel/VolleyTech/internal/identity"
	"github.com/estrellaangel/VolleyTech/internal/testutil"
)

func TestHandleHealth(t *testing.T) {
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	a := &app{
		database: testutil.NewTestDB(t),
		redis:    cache.NewRedisKVFromClient(client),
	}
	handler := handleHealth(a)

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("healthy status = %d, want %d", rec.Code, http.StatusOK)
	}

	server.Close()
	rec = httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status with redis down = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
}

func TestHandleHealthDatabaseClosed(t *testing.T) {
	database := testutil.NewTestDB(t)
	a := &app{database: database}
	if err := database.Close(); err != nil {
		t.Fatalf("close db: %v", err)
	}

	rec := httptest.NewRecorder()
	handleHealth(a)(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status with closed db = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
}

func TestNewAppMemoryProfiles(t *testing.T) {
	cfg, err := config.Parse([]byte("app:\n  name: volleytech\n  port: 8080\ndatabase:\n  driver: sqlite\nprofiles:\n  backend: memory\n"))
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	cfg.Database.Filename = filepath.Join(t.TempDir(), "app.db")
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}

	ctx := context.Background()
	a, err := newApp(ctx, cfg)
	if err != nil {
		t.Fatalf("newApp: %v", err)
	}
	t.Cleanup(a.Close)

	if a.redis != nil {
		t.Fatal("memory backend should not connect to redis")
	}
	first, err := a.profiles.GetOrCreate(ctx, identity.SourceBalltime, "team_001")
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	again, found, err := a.profiles.Load(ctx, identity.SourceBalltime, "team_001")
	if err != nil || !found || again.MappingProfileID != first.MappingProfileID {
		t.Fatalf("Load() = %+v, %v, %v", again, found, err)
	}
	if err := a.ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}
}
