package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/Billy-Davies-2/adp-draft-board/internal/logger"
)

func init() {
	logger.Init()
}

func okHandler(w http.ResponseWriter, r *http.Request) {
	user := GetUser(r)
	if user == nil {
		http.Error(w, "no user", http.StatusInternalServerError)
		return
	}
	w.Write([]byte(user.Username))
}

func cookieFrom(t *testing.T, rec *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("cookie %s not set", name)
	return nil
}

func TestMockAuthFlow(t *testing.T) {
	m := NewMockAuth()

	// Anonymous page request redirects to login
	rec := httptest.NewRecorder()
	m.Middleware(okHandler)(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/auth/login" {
		t.Fatalf("anonymous page: %d %s", rec.Code, rec.Header().Get("Location"))
	}

	// Anonymous API request is rejected
	rec = httptest.NewRecorder()
	m.APIMiddleware(okHandler)(rec, httptest.NewRequest(http.MethodPost, "/api/board/toggle", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous api: %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	m.LoginHandler(rec, httptest.NewRequest(http.MethodGet, "/auth/login", nil))
	session := cookieFrom(t, rec, sessionCookie)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(session)
	rec = httptest.NewRecorder()
	m.APIMiddleware(RequireAdmin(okHandler))(rec, req)
	if rec.Code != http.StatusOK || rec.Body.String() != "devuser" {
		t.Fatalf("signed in: %d %q", rec.Code, rec.Body.String())
	}

	// Logout invalidates the session
	req = httptest.NewRequest(http.MethodGet, "/auth/logout", nil)
	req.AddCookie(session)
	m.LogoutHandler(httptest.NewRecorder(), req)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(session)
	rec = httptest.NewRecorder()
	m.APIMiddleware(okHandler)(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("after logout: %d", rec.Code)
	}
}

func TestRequireAdmin(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/documents", nil)
	req = req.WithContext(WithUser(req.Context(), &User{Username: "viewer", Groups: []string{"users"}}))

	rec := httptest.NewRecorder()
	RequireAdmin(okHandler)(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("non-admin: %d", rec.Code)
	}
}

func TestOIDCCallback(t *testing.T) {
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/application/o/token/":
			r.ParseForm()
			if r.Form.Get("code") != "good-code" {
				http.Error(w, "bad code", http.StatusBadRequest)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]any{
				"access_token": "access-123",
				"token_type":   "Bearer",
				"expires_in":   3600,
			})
		case "/application/o/userinfo/":
			if r.Header.Get("Authorization") != "Bearer access-123" {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			json.NewEncoder(w).Encode(map[string]any{
				"sub":                "u-1",
				"email":              "drafter@example.com",
				"preferred_username": "drafter",
				"groups":             []string{"users"},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	defer provider.Close()

	a := NewOIDCAuth(OIDCConfig{
		BaseURL:      provider.URL + "/",
		ClientID:     "board",
		ClientSecret: "secret",
		RedirectURL:  "http://localhost:3000/auth/callback",
	})

	rec := httptest.NewRecorder()
	a.LoginHandler(rec, httptest.NewRequest(http.MethodGet, "/auth/login", nil))
	state := cookieFrom(t, rec, stateCookie)

	loc, err := url.Parse(rec.Header().Get("Location"))
	if err != nil {
		t.Fatalf("bad redirect: %v", err)
	}
	if !strings.HasSuffix(loc.Path, "/application/o/authorize/") || loc.Query().Get("state") != state.Value {
		t.Fatalf("unexpected authorize redirect %s", loc)
	}

	// State mismatch is rejected
	req := httptest.NewRequest(http.MethodGet, "/auth/callback?state=other&code=good-code", nil)
	req.AddCookie(state)
	rec = httptest.NewRecorder()
	a.CallbackHandler(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("state mismatch: %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/auth/callback?state="+url.QueryEscape(state.Value)+"&code=good-code", nil)
	req.AddCookie(state)
	rec = httptest.NewRecorder()
	a.CallbackHandler(rec, req)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("callback: %d %s", rec.Code, rec.Body.String())
	}
	session := cookieFrom(t, rec, sessionCookie)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(session)
	rec = httptest.NewRecorder()
	a.Middleware(okHandler)(rec, req)
	if rec.Body.String() != "drafter" {
		t.Errorf("middleware user = %q", rec.Body.String())
	}
}
