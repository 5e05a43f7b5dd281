package handler

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

	"github.com/go-chi/chi/v5"

	"github.com/binfleet/binfleet/internal/auth"
	"github.com/binfleet/binfleet/internal/model"
	"github.com/binfleet/binfleet/internal/server/middleware"
	"github.com/binfleet/binfleet/internal/session"
	"github.com/binfleet/binfleet/internal/store"
)

// testBcryptCost keeps hashing fast in tests.
const testBcryptCost = 4

// testEnv holds shared state for handler integration tests: an in-memory
// store, a session manager, and a router with the auth middleware and the
// route guards mounted the way the server wires them.
type testEnv struct {
	store    *store.Store
	sessions *session.Manager
	router   chi.Router
}

func newTestEnv(t *testing.T) *testEnv {
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
		SecureCookie:      false,
	}, logger)

	persistent := PersistentLogin{Admin: false, Janitor: true}
	authHandler := NewAuthHandler(st, sessions, persistent, testBcryptCost, logger)
	binHandler := NewBinHandler(st, logger)
	janitorHandler := NewJanitorHandler(st, testBcryptCost, logger)
	collectionHandler := NewCollectionHandler(st, logger)
	notificationHandler := NewNotificationHandler(st, logger)
	reportHandler := NewReportHandler(st, logger)
	profileHandler := NewProfileHandler(st, testBcryptCost, logger)

	r := chi.NewRouter()
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Authenticate(sessions))

		r.Post("/auth/admin/login", authHandler.AdminLogin)
		r.Post("/auth/janitor/login", authHandler.JanitorLogin)
		r.Post("/auth/logout", authHandler.Logout)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin())

			r.Get("/bins", binHandler.List)
			r.Post("/bins", binHandler.Create)
			r.Get("/bins/{binID}", binHandler.Get)
			r.Put("/bins/{binID}", binHandler.Update)
			r.Delete("/bins/{binID}", binHandler.Delete)
			r.Post("/bins/{binID}/assign", binHandler.Assign)

			r.Get("/janitors", janitorHandler.List)
			r.Post("/janitors", janitorHandler.Create)
			r.Get("/janitors/{janitorID}", janitorHandler.Get)
			r.Put("/janitors/{janitorID}", janitorHandler.Update)
			r.Delete("/janitors/{janitorID}", janitorHandler.Delete)

			r.Get("/collections", collectionHandler.List)
			r.Get("/reports", reportHandler.List)
			r.Post("/reports", reportHandler.Create)
			r.Get("/dashboard/stats", reportHandler.DashboardStats)
		})
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireJanitor())

			r.Post("/bins/{binID}/collect", collectionHandler.Collect)
			r.Get("/me", profileHandler.Me)
			r.Put("/me", profileHandler.UpdateMe)
			r.Post("/me/password", profileHandler.ChangePassword)
			r.Get("/me/assignments", profileHandler.MyAssignments)
			r.Get("/me/collections", collectionHandler.Mine)
		})
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireLogin())

			r.Get("/notifications", notificationHandler.List)
			r.Post("/notifications/{notificationID}/read", notificationHandler.MarkRead)
		})
	})

	return &testEnv{store: st, sessions: sessions, router: r}
}

// seedAdmin creates an active admin with a bcrypt hash of password.
func (e *testEnv) seedAdmin(t *testing.T, email, password string) *model.Admin {
	t.Helper()
	hash, err := auth.HashPassword(password, testBcryptCost)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	admin := &model.Admin{
		FirstName:    "Ada",
		LastName:     "Root",
		Email:        email,
		PasswordHash: hash,
	}
	if err := e.store.CreateAdmin(context.Background(), admin); err != nil {
		t.Fatalf("CreateAdmin: %v", err)
	}
	return admin
}

// seedJanitor creates an active janitor with the given stored hash, which
// may be bcrypt or a legacy digest.
func (e *testEnv) seedJanitor(t *testing.T, email, storedHash string) *model.Janitor {
	t.Helper()
	j := &model.Janitor{
		FirstName:    "Jo",
		LastName:     "Kerb",
		Email:        email,
		PasswordHash: storedHash,
	}
	if err := e.store.CreateJanitor(context.Background(), j); err != nil {
		t.Fatalf("CreateJanitor: %v", err)
	}
	return j
}

// do runs a request through the router and returns the recorder.
func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

// postJSON builds a JSON POST request.
func postJSON(t *testing.T, path string, body interface{}) *http.Request {
	t.Helper()
	buf, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req := httptest.NewRequest("POST", path, bytes.NewReader(buf))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// login posts credentials to the given login path and returns the recorder.
func (e *testEnv) login(t *testing.T, path, email, password string) *httptest.ResponseRecorder {
	t.Helper()
	return e.do(postJSON(t, path, map[string]string{"email": email, "password": password}))
}

// decodeResponse unmarshals the uniform response envelope.
func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) model.APIResponse {
	t.Helper()
	var resp model.APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response %q: %v", rec.Body.String(), err)
	}
	return resp
}

// mustHash bcrypt-hashes a password at the test cost.
func mustHash(t *testing.T, password string) string {
	t.Helper()
	hash, err := auth.HashPassword(password, testBcryptCost)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	return hash
}

// sessionCookie returns the auth_token cookie from a response, or nil.
func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == session.CookieName {
			return c
		}
	}
	return nil
}
