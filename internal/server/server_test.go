package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/binfleet/binfleet/internal/auth"
	"github.com/binfleet/binfleet/internal/handler"
	"github.com/binfleet/binfleet/internal/model"
	"github.com/binfleet/binfleet/internal/session"
	"github.com/binfleet/binfleet/internal/store"
)

// newTestServer wires a full server onto an in-memory store, exactly as
// the serve command does.
func newTestServer(t *testing.T) (*Server, *store.Store) {
	t.Helper()

	st, err := store.NewMemory()
	if err != nil {
		t.Fatalf("store.NewMemory: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sessions := session.NewManager(st, session.Config{
		Validity:          30 * 24 * time.Hour,
		EphemeralValidity: 12 * time.Hour,
	}, logger)

	cfg := DefaultConfig()
	cfg.BcryptCost = 4
	cfg.LoginRateLimit = 0 // rate limiting exercised separately
	srv := New(cfg, st, sessions, logger)
	return srv, st
}

func TestHealthEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest("GET", "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("healthz status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest("GET", "/readyz", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("readyz status = %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal readyz: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("readyz status = %q, want ok", body["status"])
	}
}

func TestRequestIDHeader(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest("GET", "/healthz", nil))
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("no X-Request-ID header on response")
	}
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	srv, _ := newTestServer(t)

	paths := []struct {
		method, path string
	}{
		{"GET", "/api/v1/bins"},
		{"POST", "/api/v1/bins"},
		{"GET", "/api/v1/janitors"},
		{"GET", "/api/v1/dashboard/stats"},
		{"GET", "/api/v1/me"},
		{"GET", "/api/v1/notifications"},
	}
	for _, p := range paths {
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(p.method, p.path, nil))
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s %s status = %d, want 401", p.method, p.path, rec.Code)
		}
	}
}

func TestLoginThroughFullStack(t *testing.T) {
	srv, st := newTestServer(t)

	hash, err := auth.HashPassword("supersecret", 4)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	admin := &model.Admin{FirstName: "Ada", LastName: "Root", Email: "ada@example.com", PasswordHash: hash}
	if err := st.CreateAdmin(context.Background(), admin); err != nil {
		t.Fatalf("CreateAdmin: %v", err)
	}

	body, _ := json.Marshal(map[string]string{"email": "ada@example.com", "password": "supersecret"})
	req := httptest.NewRequest("POST", "/api/v1/auth/admin/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d, body %s", rec.Code, rec.Body.String())
	}

	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == session.CookieName {
			cookie = c
		}
	}
	if cookie == nil {
		t.Fatal("no session cookie from full-stack login")
	}

	req = httptest.NewRequest("GET", "/api/v1/dashboard/stats", nil)
	req.AddCookie(&http.Cookie{Name: cookie.Name, Value: cookie.Value})
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("stats with session status = %d, body %s", rec.Code, rec.Body.String())
	}
}

func TestLoginRateLimit(t *testing.T) {
	srv, _ := newTestServer(t)
	srv.cfg.LoginRateLimit = 3
	srv.setupRouter()

	body := []byte(`{"email":"x@example.com","password":"wrong"}`)
	var last int
	for i := 0; i < 5; i++ {
		req := httptest.NewRequest("POST", "/api/v1/auth/admin/login", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.RemoteAddr = "198.51.100.7:4444"
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)
		last = rec.Code
	}
	if last != http.StatusTooManyRequests {
		t.Errorf("5th attempt status = %d, want 429", last)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Port != 8080 {
		t.Errorf("port = %d", cfg.Port)
	}
	if cfg.PersistentLogin != (handler.PersistentLogin{Janitor: true}) {
		t.Errorf("persistent login defaults = %+v", cfg.PersistentLogin)
	}
}
