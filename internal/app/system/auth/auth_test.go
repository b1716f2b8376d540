package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/slotdesk/slotdesk/internal/app/system/auth"
	"go.uber.org/zap"
)

func newManager(t *testing.T) *auth.SessionManager {
	t.Helper()
	sm, err := auth.NewSessionManager("test-session-key-for-testing-only", "test-session", "", false, zap.NewNop())
	if err != nil {
		t.Fatalf("NewSessionManager failed: %v", err)
	}
	return sm
}

func TestNewSessionManager_EmptyKey(t *testing.T) {
	_, err := auth.NewSessionManager("", "test-session", "", false, zap.NewNop())
	if err == nil {
		t.Fatal("expected error for empty session key")
	}
}

func TestSessionRoundTrip(t *testing.T) {
	sm := newManager(t)

	// Sign in and capture the cookie.
	signInRec := httptest.NewRecorder()
	signInReq := httptest.NewRequest("POST", "/login", nil)
	err := sm.SignIn(signInRec, signInReq, auth.SessionUser{
		ID: "abc123", Name: "Round Tripper", Email: "rt@example.com", Role: "user",
	})
	if err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}
	cookies := signInRec.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("expected a session cookie")
	}

	// A later request carrying the cookie gets the user injected.
	var got *auth.SessionUser
	handler := sm.LoadSessionUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = auth.CurrentUser(r)
	}))

	req := httptest.NewRequest("GET", "/anything", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if got == nil {
		t.Fatal("expected user in context")
	}
	if got.ID != "abc123" || got.Email != "rt@example.com" || got.Role != "user" {
		t.Errorf("session user: %+v", got)
	}
}

func TestLoadSessionUser_NoCookie(t *testing.T) {
	sm := newManager(t)

	var found bool
	handler := sm.LoadSessionUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, found = auth.CurrentUser(r)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))

	if found {
		t.Error("expected no user without a session cookie")
	}
}

func TestSignOut_ClearsSession(t *testing.T) {
	sm := newManager(t)

	signInRec := httptest.NewRecorder()
	if err := sm.SignIn(signInRec, httptest.NewRequest("POST", "/login", nil), auth.SessionUser{ID: "x", Role: "user"}); err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}

	outReq := httptest.NewRequest("POST", "/logout", nil)
	for _, c := range signInRec.Result().Cookies() {
		outReq.AddCookie(c)
	}
	outRec := httptest.NewRecorder()
	if err := sm.SignOut(outRec, outReq); err != nil {
		t.Fatalf("SignOut failed: %v", err)
	}

	var maxAge int
	for _, c := range outRec.Result().Cookies() {
		if c.Name == "test-session" {
			maxAge = c.MaxAge
		}
	}
	if maxAge >= 0 {
		t.Errorf("expected expired cookie, got MaxAge=%d", maxAge)
	}
}

func TestRequireSignedIn(t *testing.T) {
	sm := newManager(t)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// Without a user: 401.
	rec := httptest.NewRecorder()
	sm.RequireSignedIn(next).ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous: got %d, want 401", rec.Code)
	}

	// With a user: passes through.
	rec = httptest.NewRecorder()
	req := auth.WithTestUser(httptest.NewRequest("GET", "/", nil), &auth.SessionUser{ID: "x", Role: "user"})
	sm.RequireSignedIn(next).ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("signed in: got %d, want 200", rec.Code)
	}
}

func TestRequireRole(t *testing.T) {
	sm := newManager(t)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	adminOnly := sm.RequireRole("admin")(next)

	// Anonymous: 401.
	rec := httptest.NewRecorder()
	adminOnly.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous: got %d, want 401", rec.Code)
	}

	// Wrong role: 403.
	rec = httptest.NewRecorder()
	req := auth.WithTestUser(httptest.NewRequest("GET", "/", nil), &auth.SessionUser{ID: "x", Role: "user"})
	adminOnly.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("wrong role: got %d, want 403", rec.Code)
	}

	// Role matching is case-insensitive.
	rec = httptest.NewRecorder()
	req = auth.WithTestUser(httptest.NewRequest("GET", "/", nil), &auth.SessionUser{ID: "x", Role: "Admin"})
	adminOnly.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("admin: got %d, want 200", rec.Code)
	}

	// Multiple allowed roles.
	either := sm.RequireRole("user", "admin")(next)
	rec = httptest.NewRecorder()
	req = auth.WithTestUser(httptest.NewRequest("GET", "/", nil), &auth.SessionUser{ID: "x", Role: "user"})
	either.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("user on user|admin route: got %d, want 200", rec.Code)
	}
}
