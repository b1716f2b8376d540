package accounts_test

import (
	"net/http"
	"testing"

	"github.com/slotdesk/slotdesk/internal/app/features/accounts"
	"github.com/slotdesk/slotdesk/internal/app/system/auth"
	"github.com/slotdesk/slotdesk/internal/testutil"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*accounts.Handler, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()

	sessionMgr, err := auth.NewSessionManager("test-session-key-for-testing-only", "test-session", "", false, logger)
	if err != nil {
		t.Fatalf("NewSessionManager failed: %v", err)
	}

	handler := accounts.NewHandler(db, sessionMgr, logger)
	fixtures := testutil.NewFixtures(t, db)
	return handler, fixtures
}

func TestRegister_Success(t *testing.T) {
	handler, _ := newTestHandler(t)

	req := testutil.NewJSONRequest(t, "POST", "/api/auth/register", map[string]string{
		"name":     "New Student",
		"email":    "new@example.com",
		"password": "longenough",
	})
	rec := testutil.NewRecorder()
	handler.Register(rec.ResponseRecorder, req)

	rec.AssertStatus(t, http.StatusCreated)

	var resp struct {
		ID    string `json:"id"`
		Email string `json:"email"`
		Role  string `json:"role"`
	}
	rec.DecodeJSON(t, &resp)
	if resp.ID == "" {
		t.Error("expected an id in the response")
	}
	if resp.Email != "new@example.com" {
		t.Errorf("email: got %q", resp.Email)
	}
	if resp.Role != "user" {
		t.Errorf("role: got %q, want user", resp.Role)
	}

	// Signup starts a session.
	found := false
	for _, c := range rec.Result().Cookies() {
		if c.Name == "test-session" {
			found = true
		}
	}
	if !found {
		t.Error("expected session cookie after signup")
	}
}

func TestRegister_ShortPassword(t *testing.T) {
	handler, _ := newTestHandler(t)

	req := testutil.NewJSONRequest(t, "POST", "/api/auth/register", map[string]string{
		"name":     "New Student",
		"email":    "new@example.com",
		"password": "short",
	})
	rec := testutil.NewRecorder()
	handler.Register(rec.ResponseRecorder, req)

	rec.AssertStatus(t, http.StatusBadRequest)
	rec.AssertContains(t, "at least 8 characters")
}

func TestRegister_MissingFields(t *testing.T) {
	handler, _ := newTestHandler(t)

	req := testutil.NewJSONRequest(t, "POST", "/api/auth/register", map[string]string{
		"password": "longenough",
	})
	rec := testutil.NewRecorder()
	handler.Register(rec.ResponseRecorder, req)

	rec.AssertStatus(t, http.StatusBadRequest)
	rec.AssertContains(t, "name and email are required")
}

func TestLogin_Success(t *testing.T) {
	handler, _ := newTestHandler(t)

	// Register through the handler so the stored hash matches the password.
	regReq := testutil.NewJSONRequest(t, "POST", "/api/auth/register", map[string]string{
		"name":     "Login Target",
		"email":    "login@example.com",
		"password": "correct-horse",
	})
	regRec := testutil.NewRecorder()
	handler.Register(regRec.ResponseRecorder, regReq)
	regRec.AssertStatus(t, http.StatusCreated)

	req := testutil.NewJSONRequest(t, "POST", "/api/auth/login", map[string]string{
		"email":    "login@example.com",
		"password": "correct-horse",
	})
	rec := testutil.NewRecorder()
	handler.Login(rec.ResponseRecorder, req)

	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "login@example.com")
}

func TestLogin_WrongPassword(t *testing.T) {
	handler, _ := newTestHandler(t)

	regReq := testutil.NewJSONRequest(t, "POST", "/api/auth/register", map[string]string{
		"name":     "Login Target",
		"email":    "login@example.com",
		"password": "correct-horse",
	})
	regRec := testutil.NewRecorder()
	handler.Register(regRec.ResponseRecorder, regReq)

	req := testutil.NewJSONRequest(t, "POST", "/api/auth/login", map[string]string{
		"email":    "login@example.com",
		"password": "wrong-password",
	})
	rec := testutil.NewRecorder()
	handler.Login(rec.ResponseRecorder, req)

	rec.AssertStatus(t, http.StatusUnauthorized)
	rec.AssertContains(t, "invalid email or password")
}

func TestMe(t *testing.T) {
	handler, _ := newTestHandler(t)

	user := testutil.RegularUser()
	req := testutil.NewAuthenticatedRequest("GET", "/api/auth/me", user)
	rec := testutil.NewRecorder()
	handler.Me(rec.ResponseRecorder, req)

	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, user.Email)
}

func TestMe_Unauthenticated(t *testing.T) {
	handler, _ := newTestHandler(t)

	req := testutil.NewRequest("GET", "/api/auth/me")
	rec := testutil.NewRecorder()
	handler.Me(rec.ResponseRecorder, req)

	rec.AssertStatus(t, http.StatusUnauthorized)
}
