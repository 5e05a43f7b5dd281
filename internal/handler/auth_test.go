package handler

import (
	"context"
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func TestAdminLogin(t *testing.T) {
	env := newTestEnv(t)
	env.seedAdmin(t, "ada@example.com", "supersecret")

	rec := env.login(t, "/api/v1/auth/admin/login", "ada@example.com", "supersecret")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	resp := decodeResponse(t, rec)
	if !resp.Success || resp.Redirect != "/admin/dashboard" {
		t.Errorf("response = %+v", resp)
	}

	// Admins are not on the remember-me list: browser-session cookie only.
	c := sessionCookie(rec)
	if c == nil {
		t.Fatal("no session cookie set")
	}
	if c.MaxAge != 0 {
		t.Errorf("admin cookie MaxAge = %d, want 0", c.MaxAge)
	}
}

func TestJanitorLoginPersistent(t *testing.T) {
	env := newTestEnv(t)
	hash := mustHash(t, "secret123")
	env.seedJanitor(t, "jo@example.com", hash)

	rec := env.login(t, "/api/v1/auth/janitor/login", "jo@example.com", "secret123")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	resp := decodeResponse(t, rec)
	if !resp.Success || resp.Redirect != "/janitor/dashboard" {
		t.Errorf("response = %+v", resp)
	}

	c := sessionCookie(rec)
	if c == nil {
		t.Fatal("no session cookie set")
	}
	if c.MaxAge <= 0 {
		t.Errorf("janitor cookie MaxAge = %d, want positive", c.MaxAge)
	}
}

func TestLoginFormEncoded(t *testing.T) {
	env := newTestEnv(t)
	env.seedAdmin(t, "ada@example.com", "supersecret")

	form := url.Values{"email": {" ada@example.com "}, "password": {"supersecret"}}
	req := httptest.NewRequest("POST", "/api/v1/auth/admin/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rec := env.do(req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
}

func TestLoginMissingFields(t *testing.T) {
	env := newTestEnv(t)

	rec := env.login(t, "/api/v1/auth/admin/login", "ada@example.com", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if decodeResponse(t, rec).Success {
		t.Error("success true on validation failure")
	}
}

// Rejections must not reveal whether the email exists, whether the
// password was wrong, or whether the account was deactivated: same status,
// byte-identical body.
func TestLoginRejectionsIndistinguishable(t *testing.T) {
	env := newTestEnv(t)
	env.seedAdmin(t, "ada@example.com", "supersecret")

	inactive := env.seedAdmin(t, "gone@example.com", "supersecret")
	if err := env.store.SetAdminStatus(context.Background(), inactive.ID, "inactive"); err != nil {
		t.Fatalf("SetAdminStatus: %v", err)
	}

	cases := []struct {
		name            string
		email, password string
	}{
		{"unknown email", "nobody@example.com", "supersecret"},
		{"wrong password", "ada@example.com", "wrong"},
		{"inactive account", "gone@example.com", "supersecret"},
	}

	var bodies []string
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := env.login(t, "/api/v1/auth/admin/login", tc.email, tc.password)
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d, want 401", rec.Code)
			}
			if sessionCookie(rec) != nil {
				t.Error("cookie set on rejected login")
			}
			bodies = append(bodies, rec.Body.String())
		})
	}
	for i := 1; i < len(bodies); i++ {
		if bodies[i] != bodies[0] {
			t.Errorf("rejection bodies differ: %q vs %q", bodies[0], bodies[i])
		}
	}
}

func TestLegacyMD5Migration(t *testing.T) {
	env := newTestEnv(t)
	sum := md5.Sum([]byte("secret123"))
	j := env.seedJanitor(t, "j@example.com", hex.EncodeToString(sum[:]))

	rec := env.login(t, "/api/v1/auth/janitor/login", "j@example.com", "secret123")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if !decodeResponse(t, rec).Success {
		t.Fatal("login against MD5 digest failed")
	}

	// The stored hash is upgraded in place.
	got, err := env.store.GetJanitor(context.Background(), j.ID)
	if err != nil {
		t.Fatalf("GetJanitor: %v", err)
	}
	if len(got.PasswordHash) == 32 {
		t.Fatal("stored hash still an MD5 digest after login")
	}
	if !strings.HasPrefix(got.PasswordHash, "$2") {
		t.Errorf("stored hash %q is not bcrypt-shaped", got.PasswordHash)
	}

	// Second login rides the migrated hash.
	rec2 := env.login(t, "/api/v1/auth/janitor/login", "j@example.com", "secret123")
	if rec2.Code != http.StatusOK {
		t.Fatalf("second login status = %d", rec2.Code)
	}
	after, _ := env.store.GetJanitor(context.Background(), j.ID)
	if after.PasswordHash != got.PasswordHash {
		t.Error("bcrypt hash rewritten on second login")
	}
}

func TestLegacySHA256Migration(t *testing.T) {
	env := newTestEnv(t)
	sum := sha256.Sum256([]byte("secret123"))
	j := env.seedJanitor(t, "j@example.com", hex.EncodeToString(sum[:]))

	rec := env.login(t, "/api/v1/auth/janitor/login", "j@example.com", "secret123")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	got, _ := env.store.GetJanitor(context.Background(), j.ID)
	if len(got.PasswordHash) == 64 {
		t.Error("stored hash still a SHA-256 digest after login")
	}
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t)
	env.seedJanitor(t, "jo@example.com", mustHash(t, "secret123"))

	rec := env.login(t, "/api/v1/auth/janitor/login", "jo@example.com", "secret123")
	c := sessionCookie(rec)
	if c == nil {
		t.Fatal("no session cookie after login")
	}

	// Authenticated before logout.
	req := httptest.NewRequest("GET", "/api/v1/me", nil)
	req.AddCookie(&http.Cookie{Name: c.Name, Value: c.Value})
	if got := env.do(req); got.Code != http.StatusOK {
		t.Fatalf("pre-logout /me status = %d", got.Code)
	}

	req = httptest.NewRequest("POST", "/api/v1/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: c.Name, Value: c.Value})
	out := env.do(req)
	if out.Code != http.StatusOK || !decodeResponse(t, out).Success {
		t.Fatalf("logout status = %d, body %s", out.Code, out.Body.String())
	}
	cleared := sessionCookie(out)
	if cleared == nil || cleared.MaxAge >= 0 {
		t.Error("logout did not clear the cookie")
	}

	// The old token is dead server-side, not just forgotten by the client.
	req = httptest.NewRequest("GET", "/api/v1/me", nil)
	req.AddCookie(&http.Cookie{Name: c.Name, Value: c.Value})
	if got := env.do(req); got.Code != http.StatusUnauthorized {
		t.Errorf("post-logout /me status = %d, want 401", got.Code)
	}
}

func TestLogoutWithoutSession(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(httptest.NewRequest("POST", "/api/v1/auth/logout", nil))
	if rec.Code != http.StatusOK || !decodeResponse(t, rec).Success {
		t.Errorf("anonymous logout status = %d, body %s", rec.Code, rec.Body.String())
	}
}

func TestRouteGuards(t *testing.T) {
	env := newTestEnv(t)
	env.seedJanitor(t, "jo@example.com", mustHash(t, "secret123"))

	janitorCookie := sessionCookie(env.login(t, "/api/v1/auth/janitor/login", "jo@example.com", "secret123"))
	if janitorCookie == nil {
		t.Fatal("no session cookie after login")
	}

	cases := []struct {
		name   string
		path   string
		cookie *http.Cookie
		want   int
	}{
		{"admin route anonymous", "/api/v1/dashboard/stats", nil, http.StatusUnauthorized},
		{"admin route as janitor", "/api/v1/dashboard/stats", janitorCookie, http.StatusUnauthorized},
		{"janitor route anonymous", "/api/v1/me", nil, http.StatusUnauthorized},
		{"janitor route as janitor", "/api/v1/me", janitorCookie, http.StatusOK},
		{"login-only route anonymous", "/api/v1/notifications", nil, http.StatusUnauthorized},
		{"login-only route as janitor", "/api/v1/notifications", janitorCookie, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tc.path, nil)
			if tc.cookie != nil {
				req.AddCookie(&http.Cookie{Name: tc.cookie.Name, Value: tc.cookie.Value})
			}
			rec := env.do(req)
			if rec.Code != tc.want {
				t.Errorf("status = %d, want %d", rec.Code, tc.want)
			}
			if tc.want == http.StatusUnauthorized {
				if body := strings.TrimSpace(rec.Body.String()); body != `{"success":false,"message":"Unauthorized"}` {
					t.Errorf("unauthorized body = %s", body)
				}
			}
		})
	}
}
