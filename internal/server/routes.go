package server

import (
	"net"
	"net/http"
	"time"

	logx "github.com/Grooty887/Tomorrow-tracker/pkg/logx"
)

// Handler builds the full route table. Exposed so tests can drive the API
// through httptest without binding a port.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Accounts and sessions.
	mux.HandleFunc("POST /api/register", s.handleRegister)
	mux.HandleFunc("POST /api/login", s.handleLogin)
	mux.HandleFunc("POST /api/logout", s.handleLogout)
	mux.HandleFunc("GET /api/user", s.requireUser(s.handleCurrentUser))
	mux.HandleFunc("GET /api/profile", s.requireUser(s.handleCurrentUser))
	mux.HandleFunc("PUT /api/profile", s.requireUser(s.handleUpdateProfile))

	// Planner entries. Literal segments win over {id}, so /today and
	// friends are routed before the wildcard.
	mux.HandleFunc("GET /api/schedules", s.handleListSchedules)
	mux.HandleFunc("POST /api/schedules", s.handleCreateSchedule)
	mux.HandleFunc("GET /api/schedules/today", s.handleTodaySchedules)
	mux.HandleFunc("GET /api/schedules/tomorrow", s.handleTomorrowSchedules)
	mux.HandleFunc("GET /api/schedules/upcoming", s.handleUpcomingSchedules)
	mux.HandleFunc("GET /api/schedules/{id}", s.handleGetSchedule)
	mux.HandleFunc("PUT /api/schedules/{id}", s.handleUpdateSchedule)
	mux.HandleFunc("DELETE /api/schedules/{id}", s.handleDeleteSchedule)

	mux.HandleFunc("GET /ws-notifications", s.handleNotificationsWS)

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return s.logRequests(mux)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Debug("request",
			logx.String("method", r.Method),
			logx.String("path", r.URL.Path),
			logx.Duration("dur", time.Since(start)),
		)
	})
}

// remoteKey is the rate-limit key for a request: the client IP without port.
func remoteKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
