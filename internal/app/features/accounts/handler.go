// Package accounts serves the /api/auth endpoints: signup, login, logout,
// and session introspection.
package accounts

import (
	"context"
	"errors"
	"net/http"

	userstore "github.com/slotdesk/slotdesk/internal/app/store/users"
	"github.com/slotdesk/slotdesk/internal/app/system/auth"
	"github.com/slotdesk/slotdesk/internal/app/system/httpjson"
	"github.com/slotdesk/slotdesk/internal/app/system/timeouts"
	"github.com/slotdesk/slotdesk/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler holds the dependencies for the account endpoints.
type Handler struct {
	users    *userstore.Store
	sessions *auth.SessionManager
	log      *zap.Logger
}

// NewHandler constructs an accounts Handler.
func NewHandler(db *mongo.Database, sessions *auth.SessionManager, logger *zap.Logger) *Handler {
	return &Handler{
		users:    userstore.New(db),
		sessions: sessions,
		log:      logger,
	}
}

type registerRequest struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	StudentID string `json:"studentId,omitempty"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// userResponse is the identity shape returned by register, login, and me.
type userResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	StudentID string `json:"studentId,omitempty"`
}

func toUserResponse(u models.User) userResponse {
	return userResponse{
		ID:        u.ID.Hex(),
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		StudentID: u.StudentID,
	}
}

// Register handles POST /api/auth/register. New accounts always get the
// user role; admins are provisioned out of band.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" || req.Email == "" {
		httpjson.Error(w, http.StatusBadRequest, "name and email are required")
		return
	}
	if len(req.Password) < 8 {
		httpjson.Error(w, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	u, err := h.users.Create(ctx, req.Name, req.Email, req.Password, models.RoleUser, req.StudentID)
	switch {
	case errors.Is(err, userstore.ErrDuplicateEmail):
		httpjson.Error(w, http.StatusBadRequest, "an account with this email already exists")
		return
	case errors.Is(err, userstore.ErrDuplicateStudentID):
		httpjson.Error(w, http.StatusBadRequest, "an account with this student ID already exists")
		return
	case err != nil:
		h.log.Error("account creation failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not create account")
		return
	}

	if err := h.signIn(w, r, u); err != nil {
		h.log.Error("session start after signup failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not start session")
		return
	}
	httpjson.Write(w, http.StatusCreated, toUserResponse(u))
}

// Login handles POST /api/auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	u, err := h.users.Authenticate(ctx, req.Email, req.Password)
	if errors.Is(err, userstore.ErrInvalidCredentials) {
		httpjson.Error(w, http.StatusUnauthorized, "invalid email or password")
		return
	}
	if err != nil {
		h.log.Error("login failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not log in")
		return
	}

	if err := h.signIn(w, r, u); err != nil {
		h.log.Error("session start failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not start session")
		return
	}
	httpjson.Write(w, http.StatusOK, toUserResponse(u))
}

// Logout handles POST /api/auth/logout.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.SignOut(w, r); err != nil {
		h.log.Error("session clear failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not log out")
		return
	}
	httpjson.Write(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// Me handles GET /api/auth/me.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}
	httpjson.Write(w, http.StatusOK, userResponse{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
		Role:  u.Role,
	})
}

func (h *Handler) signIn(w http.ResponseWriter, r *http.Request, u models.User) error {
	return h.sessions.SignIn(w, r, auth.SessionUser{
		ID:    u.ID.Hex(),
		Name:  u.Name,
		Email: u.Email,
		Role:  u.Role,
	})
}
