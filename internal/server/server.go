// Package server exposes the planner over HTTP: a JSON API for accounts and
// schedule entries plus a websocket endpoint that streams notification
// events to connected clients.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/Grooty887/Tomorrow-tracker/internal/auth"
	"github.com/Grooty887/Tomorrow-tracker/internal/notify"
	"github.com/Grooty887/Tomorrow-tracker/internal/storage"
	logx "github.com/Grooty887/Tomorrow-tracker/pkg/logx"
)

// Config controls the HTTP listener.
type Config struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	// CookieSecure marks the session cookie Secure and SameSite=Strict.
	CookieSecure bool
}

func (c Config) withDefaults() Config {
	if strings.TrimSpace(c.Addr) == "" {
		c.Addr = ":8080"
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = 15 * time.Second
	}
	// WriteTimeout stays zero by default: the websocket endpoint holds its
	// response open indefinitely, so writes are bounded per frame instead.
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = 10 * time.Second
	}
	return c
}

// Deps are the collaborators the handlers need.
type Deps struct {
	Store    storage.Store
	Sessions *auth.Sessions
	Limiter  *auth.LoginLimiter
	Hub      *notify.Hub

	// Loc is the planner timezone used to resolve "today" and "tomorrow".
	Loc *time.Location

	// Now is swappable in tests.
	Now func() time.Time
}

type Server struct {
	cfg  Config
	deps Deps
	log  logx.Logger

	mu  sync.Mutex
	ln  net.Listener
	srv *http.Server
}

func New(cfg Config, deps Deps, log logx.Logger) *Server {
	if log.IsZero() {
		log = logx.Nop()
	}
	if deps.Loc == nil {
		deps.Loc = time.Local
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Server{
		cfg:  cfg.withDefaults(),
		deps: deps,
		log:  log.With(logx.String("svc", "http")),
	}
}

// Start binds the listener and serves in the background. It returns once the
// listener is bound so the caller knows the port is live.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.srv != nil {
		return nil
	}

	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	srv := &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}
	s.ln = ln
	s.srv = srv

	go func() {
		s.log.Info("http listening", logx.String("addr", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("http server exited", logx.Err(err))
		}
	}()
	return nil
}

// Addr reports the bound listen address, empty before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return ""
	}
	return s.ln.Addr().String()
}

// Stop drains in-flight requests up to the shutdown timeout.
func (s *Server) Stop(ctx context.Context) {
	s.mu.Lock()
	srv := s.srv
	s.srv = nil
	s.ln = nil
	s.mu.Unlock()
	if srv == nil {
		return
	}

	sctx, cancel := context.WithTimeout(ctx, s.cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		s.log.Warn("http shutdown incomplete", logx.Err(err))
		_ = srv.Close()
		return
	}
	s.log.Info("http stopped")
}
