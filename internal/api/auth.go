package api

import (
	"encoding/json"
	"net/http"
	"net/mail"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/feedr/feedr/internal/models"
	"github.com/feedr/feedr/internal/serverdb"
)

const minPasswordLen = 8

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Token    string          `json:"token,omitempty"`
	Identity models.Identity `json:"identity"`
}

func validCredentials(req *credentialsRequest) string {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return "invalid email address"
	}
	if len(req.Password) < minPasswordLen {
		return "password must be at least 8 characters"
	}
	return ""
}

// handleSignup registers an account and signs it in, returning a fresh token.
func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	if !s.config.AllowSignup {
		writeError(w, http.StatusForbidden, ErrCodeSignupDisabled, "signup is disabled on this server")
		return
	}

	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "invalid request body")
		return
	}
	if msg := validCredentials(&req); msg != "" {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, msg)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		logFor(r.Context()).Error("hash password", "err", err)
		writeError(w, http.StatusInternalServerError, ErrCodeInternal, "failed to create account")
		return
	}

	user, err := s.store.CreateUser(req.Email, string(hash))
	if err == serverdb.ErrEmailTaken {
		writeError(w, http.StatusConflict, ErrCodeEmailTaken, "email already registered")
		return
	}
	if err != nil {
		logFor(r.Context()).Error("create user", "err", err)
		writeError(w, http.StatusInternalServerError, ErrCodeInternal, "failed to create account")
		return
	}

	token, err := s.store.CreateToken(user.ID)
	if err != nil {
		logFor(r.Context()).Error("create token", "err", err)
		writeError(w, http.StatusInternalServerError, ErrCodeInternal, "failed to create session")
		return
	}

	logFor(r.Context()).Info("signup", "uid", user.ID)
	writeJSON(w, http.StatusCreated, sessionResponse{
		Token:    token,
		Identity: models.Identity{ID: user.ID, Email: user.Email},
	})
}

// handleLogin authenticates with email and password and issues a token.
// Unknown email and wrong password are indistinguishable to the caller.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "invalid request body")
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	user, err := s.store.GetUserByEmail(req.Email)
	if err != nil {
		logFor(r.Context()).Error("lookup user", "err", err)
		writeError(w, http.StatusInternalServerError, ErrCodeInternal, "failed to log in")
		return
	}
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		writeError(w, http.StatusUnauthorized, ErrCodeUnauthorized, "invalid email or password")
		return
	}

	token, err := s.store.CreateToken(user.ID)
	if err != nil {
		logFor(r.Context()).Error("create token", "err", err)
		writeError(w, http.StatusInternalServerError, ErrCodeInternal, "failed to create session")
		return
	}

	logFor(r.Context()).Info("login", "uid", user.ID)
	writeJSON(w, http.StatusOK, sessionResponse{
		Token:    token,
		Identity: models.Identity{ID: user.ID, Email: user.Email},
	})
}

// handleLogout revokes the presented token.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if err := s.store.RevokeToken(token); err != nil {
		logFor(r.Context()).Error("revoke token", "err", err)
		writeError(w, http.StatusInternalServerError, ErrCodeInternal, "failed to log out")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleSession returns the identity behind the presented token.
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r.Context())
	writeJSON(w, http.StatusOK, sessionResponse{
		Identity: models.Identity{ID: user.UserID, Email: user.Email},
	})
}

// handleCreateProfile provisions the caller's profile row. Creating an
// already-existing profile succeeds; the operation is idempotent.
func (s *Server) handleCreateProfile(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r.Context())

	var req struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "invalid request body")
		return
	}
	// A profile is always keyed by the authenticated identity.
	if req.ID != "" && req.ID != user.UserID {
		writeError(w, http.StatusForbidden, ErrCodeForbidden, "cannot create a profile for another user")
		return
	}

	if err := s.store.CreateProfile(user.UserID, user.Email); err != nil {
		logFor(r.Context()).Error("create profile", "err", err)
		writeError(w, http.StatusInternalServerError, ErrCodeInternal, "failed to create profile")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"id": user.UserID, "email": user.Email})
}
