package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHealthHandlerHandle(t *testing.T) {
	cases := []struct {
		name   string
		check  func(context.Context) error
		status int
		body   string
	}{
		{name: "no check configured", status: http.StatusOK, body: "ok"},
		{name: "database reachable", check: func(context.Context) error { return nil }, status: http.StatusOK, body: "ok"},
		{name: "database down", check: func(context.Context) error { return errors.New("connection refused") }, status: http.StatusServiceUnavailable, body: "unavailable"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			HealthHandler{Check: tc.check}.Handle(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

			if rec.Code != tc.status {
				t.Fatalf("expected status %d got %d", tc.status, rec.Code)
			}
			if got := rec.Header().Get("Content-Type"); got != "application/json" {
				t.Fatalf("expected json content type got %s", got)
			}
			if !strings.Contains(rec.Body.String(), tc.body) {
				t.Fatalf("expected body to mention %q, got %s", tc.body, rec.Body.String())
			}
			if strings.Contains(rec.Body.String(), "connection refused") {
				t.Fatal("health response must not leak the underlying error")
			}
		})
	}
}
