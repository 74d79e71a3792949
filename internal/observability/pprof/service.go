// Package pprof runs an optional profiling HTTP server, separate from the
// API listener so profiling exposure never rides on the public port.
package pprof

import (
	"context"
	"errors"
	"net"
	"net/http"
	hpprof "net/http/pprof"
	"strings"
	"sync"
	"time"

	logx "github.com/Grooty887/Tomorrow-tracker/pkg/logx"
)

// Config controls the profiling server.
//
// Security:
//   - Prefer binding to localhost (default).
//   - A non-loopback address requires Token.
type Config struct {
	Enabled bool
	Addr    string
	Token   string
}

func (c Config) withDefaults() Config {
	if strings.TrimSpace(c.Addr) == "" {
		c.Addr = "127.0.0.1:6060"
	}
	return c
}

type Service struct {
	log logx.Logger

	mu  sync.Mutex
	cfg Config
	ln  net.Listener
	srv *http.Server
}

func New(cfg Config, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Service{cfg: cfg.withDefaults(), log: log.With(logx.String("svc", "pprof"))}
}

func (s *Service) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.Enabled
}

// Start binds and serves in the background. Idempotent; a disabled config
// is a no-op.
func (s *Service) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.startLocked()
}

func (s *Service) startLocked() error {
	if !s.cfg.Enabled || s.srv != nil {
		return nil
	}
	addr := s.cfg.Addr

	if s.cfg.Token == "" && !isLoopbackAddr(addr) {
		s.log.Error("refusing to start on non-loopback addr without token", logx.String("addr", addr))
		return errors.New("pprof: insecure bind")
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	wrap := func(h http.HandlerFunc) http.HandlerFunc { return s.withAuth(s.cfg.Token, h) }
	mux.HandleFunc("/debug/pprof/", wrap(hpprof.Index))
	mux.HandleFunc("/debug/pprof/cmdline", wrap(hpprof.Cmdline))
	mux.HandleFunc("/debug/pprof/profile", wrap(hpprof.Profile))
	mux.HandleFunc("/debug/pprof/symbol", wrap(hpprof.Symbol))
	mux.HandleFunc("/debug/pprof/trace", wrap(hpprof.Trace))

	srv := &http.Server{Handler: mux, ReadTimeout: 10 * time.Second}
	s.ln = ln
	s.srv = srv

	go func() {
		s.log.Info("pprof listening", logx.String("addr", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Warn("pprof server exited", logx.Err(err))
		}
	}()
	return nil
}

// Reconfigure applies cfg, starting, stopping or restarting the server as
// needed. Safe during hot-reload.
func (s *Service) Reconfigure(ctx context.Context, cfg Config) {
	cfg = cfg.withDefaults()

	s.mu.Lock()
	prev := s.cfg
	s.cfg = cfg
	running := s.srv != nil
	restart := running && (prev.Addr != cfg.Addr || prev.Token != cfg.Token)

	switch {
	case !cfg.Enabled && running:
		s.stopLocked(ctx)
	case cfg.Enabled && !running:
		_ = s.startLocked()
	case restart:
		s.stopLocked(ctx)
		_ = s.startLocked()
	}
	s.mu.Unlock()
}

func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	s.stopLocked(ctx)
	s.mu.Unlock()
}

func (s *Service) stopLocked(ctx context.Context) {
	if s.srv == nil {
		return
	}
	sctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	_ = s.srv.Shutdown(sctx)
	cancel()
	_ = s.srv.Close()
	s.srv = nil
	s.ln = nil
	s.log.Info("pprof stopped")
}

func (s *Service) withAuth(token string, h http.HandlerFunc) http.HandlerFunc {
	tok := strings.TrimSpace(token)
	if tok == "" {
		return h
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if ah := r.Header.Get("Authorization"); ah != "" {
			const p = "Bearer "
			if strings.HasPrefix(ah, p) && strings.TrimSpace(strings.TrimPrefix(ah, p)) == tok {
				h(w, r)
				return
			}
		}
		w.Header().Set("WWW-Authenticate", "Bearer")
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}
}

func isLoopbackAddr(addr string) bool {
	h, _, err := net.SplitHostPort(addr)
	if err != nil {
		return false
	}
	h = strings.TrimSpace(h)
	if h == "" {
		return false
	}
	if strings.EqualFold(h, "localhost") {
		return true
	}
	ip := net.ParseIP(h)
	return ip != nil && ip.IsLoopback()
}
