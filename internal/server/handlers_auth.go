package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Grooty887/Tomorrow-tracker/internal/auth"
	"github.com/Grooty887/Tomorrow-tracker/internal/storage"
	logx "github.com/Grooty887/Tomorrow-tracker/pkg/logx"
)

const sessionCookie = "planner_session"

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := decodeJSON(r, &req); err != nil {
		s.writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		s.writeMessage(w, http.StatusBadRequest, "Username and password are required")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.log.Error("password hash failed", logx.Err(err))
		s.writeMessage(w, http.StatusInternalServerError, "Registration failed")
		return
	}

	u, err := s.deps.Store.CreateUser(r.Context(), req.Username, hash, req.Name, req.Email)
	if err != nil {
		if errors.Is(err, storage.ErrUsernameTaken) {
			s.writeMessage(w, http.StatusBadRequest, "Username already exists")
			return
		}
		s.log.Error("create user failed", logx.Err(err))
		s.writeMessage(w, http.StatusInternalServerError, "Registration failed")
		return
	}

	s.setSessionCookie(w, s.deps.Sessions.Create(u.ID))
	s.writeJSON(w, http.StatusCreated, u.Public())
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if !s.deps.Limiter.Allow(remoteKey(r)) {
		s.writeMessage(w, http.StatusTooManyRequests, "Too many login attempts")
		return
	}

	var req credentials
	if err := decodeJSON(r, &req); err != nil {
		s.writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	u, err := s.deps.Store.GetUserByUsername(r.Context(), req.Username)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.log.Error("user lookup failed", logx.Err(err))
		}
		s.writeMessage(w, http.StatusUnauthorized, "Authentication failed")
		return
	}
	ok, err := auth.ComparePassword(req.Password, u.Password)
	if err != nil {
		s.log.Error("password compare failed", logx.Int64("user_id", u.ID), logx.Err(err))
		s.writeMessage(w, http.StatusUnauthorized, "Authentication failed")
		return
	}
	if !ok {
		s.writeMessage(w, http.StatusUnauthorized, "Authentication failed")
		return
	}

	s.setSessionCookie(w, s.deps.Sessions.Create(u.ID))
	s.writeJSON(w, http.StatusOK, u.Public())
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(sessionCookie); err == nil {
		s.deps.Sessions.Destroy(c.Value)
	}
	s.clearSessionCookie(w)
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleCurrentUser(w http.ResponseWriter, r *http.Request, userID int64) {
	u, err := s.deps.Store.GetUser(r.Context(), userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.writeMessage(w, http.StatusUnauthorized, "Not authenticated")
			return
		}
		s.log.Error("user fetch failed", logx.Int64("user_id", userID), logx.Err(err))
		s.writeMessage(w, http.StatusInternalServerError, "Failed to fetch user")
		return
	}
	s.writeJSON(w, http.StatusOK, u.Public())
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request, userID int64) {
	var upd storage.UserUpdate
	if err := decodeJSON(r, &upd); err != nil {
		s.writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	u, err := s.deps.Store.UpdateUser(r.Context(), userID, upd)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			s.writeMessage(w, http.StatusNotFound, "User not found")
		case errors.Is(err, storage.ErrInvalidProfile):
			s.writeMessage(w, http.StatusBadRequest, err.Error())
		default:
			s.log.Error("profile update failed", logx.Int64("user_id", userID), logx.Err(err))
			s.writeMessage(w, http.StatusInternalServerError, "Failed to update profile")
		}
		return
	}
	s.writeJSON(w, http.StatusOK, u.Public())
}

// requireUser wraps a handler that needs an authenticated session.
func (s *Server) requireUser(h func(http.ResponseWriter, *http.Request, int64)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := s.sessionUser(r)
		if !ok {
			s.writeMessage(w, http.StatusUnauthorized, "Not authenticated")
			return
		}
		h(w, r, userID)
	}
}

// sessionUser resolves the session cookie, if any.
func (s *Server) sessionUser(r *http.Request) (int64, bool) {
	c, err := r.Cookie(sessionCookie)
	if err != nil {
		return 0, false
	}
	return s.deps.Sessions.Resolve(c.Value)
}

func (s *Server) setSessionCookie(w http.ResponseWriter, value string) {
	sameSite := http.SameSiteLaxMode
	if s.cfg.CookieSecure {
		sameSite = http.SameSiteStrictMode
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.cfg.CookieSecure,
		SameSite: sameSite,
		MaxAge:   int(s.deps.Sessions.TTL().Seconds()),
	})
}

func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}
