package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/filmorate/backend/internal/config"
	"github.com/filmorate/backend/internal/feed"
	"github.com/filmorate/backend/internal/handlers"
)

type fakePool struct{}

func (fakePool) Acquire(context.Context) (*pgxpool.Conn, error) {
	return nil, errors.New("not implemented")
}

func (fakePool) Close() {}

func TestBuildDependencies(t *testing.T) {
	cfg := config.Config{
		CORSOrigins: []string{"https://filmorate.example.com"},
		RateLimit:   config.RateLimit{Requests: 10, Window: time.Second, Burst: 5, TTL: time.Minute},
	}

	deps := buildDependencies(fakePool{}, cfg, slog.Default(), feed.Discard{})

	if deps.Films == nil {
		t.Fatal("expected film service to be configured")
	}
	if deps.Users == nil {
		t.Fatal("expected user service to be configured")
	}
	if deps.Reviews == nil {
		t.Fatal("expected review service to be configured")
	}
	if deps.Catalog == nil {
		t.Fatal("expected catalog service to be configured")
	}
	if deps.Feed == nil {
		t.Fatal("expected feed service to be configured")
	}
	if deps.Limiter == nil {
		t.Fatal("expected rate limiter to be configured")
	}
	if err := deps.HealthCheck(context.Background()); err == nil {
		t.Fatal("expected health check to fail without a database")
	}

	router := handlers.NewRouter(deps)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 from health endpoint, got %d", rec.Code)
	}
}

func TestRunRejectsUnknownCommands(t *testing.T) {
	if err := Run(context.Background(), nil); err == nil {
		t.Fatal("expected error without a command")
	}
	if err := Run(context.Background(), []string{"rewind"}); err == nil {
		t.Fatal("expected error for unknown command")
	}
}
