// Package app assembles the planner daemon: config, logging, storage, the
// notification scheduler, the subscriber hub and the HTTP server, plus the
// config hot-reload loop that keeps them in sync with the file on disk.
package app

import (
	"context"
	"strings"
	"time"

	"github.com/Grooty887/Tomorrow-tracker/internal/auth"
	"github.com/Grooty887/Tomorrow-tracker/internal/config"
	"github.com/Grooty887/Tomorrow-tracker/internal/notify"
	"github.com/Grooty887/Tomorrow-tracker/internal/observability/pprof"
	"github.com/Grooty887/Tomorrow-tracker/internal/scheduler"
	"github.com/Grooty887/Tomorrow-tracker/internal/server"
	"github.com/Grooty887/Tomorrow-tracker/internal/storage"
	logx "github.com/Grooty887/Tomorrow-tracker/pkg/logx"

	"golang.org/x/time/rate"
)

// fallbackSessionSecret keeps development setups working without any secret
// configured. Production deployments set SESSION_SECRET.
const fallbackSessionSecret = "schedule-app-secret-key"

// loginRatePerMin is the sustained allowance of login attempts per client.
const (
	loginRatePerMin = 10
	loginBurst      = 5
)

type App struct {
	cfgm   *config.Manager
	addr   string
	dbPath string

	log  logx.Logger
	logs *logx.Service

	store    storage.Store
	hub      *notify.Hub
	sessions *auth.Sessions
	sched    *scheduler.Service
	srv      *server.Server
	prof     *pprof.Service

	cancel context.CancelFunc
	done   chan struct{}
}

func New(cfgPath string) (*App, error) {
	cfgm := config.NewManager(cfgPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, err
	}

	logSvc, log := logx.New(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	})
	log = log.With(logx.String("comp", "app"))
	cfgm.SetLogger(log.With(logx.String("comp", "config")))

	busy, _ := config.ParseDurationOrDefault("database.busy_timeout", cfg.Database.BusyTimeout, 0)
	store, err := storage.Open(storage.Config{
		Path:        cfg.Database.Path,
		BusyTimeout: busy,
	}, log.With(logx.String("comp", "storage")))
	if err != nil {
		_ = logSvc.Close()
		return nil, err
	}

	secret := cfg.SessionSecret()
	if secret == "" {
		log.Warn("no session secret configured; using built-in development secret")
		secret = fallbackSessionSecret
	}

	hub := notify.NewHub(log.With(logx.String("comp", "hub")))
	sessions := auth.NewSessions(secret, cfg.SessionTTL(), log)
	sched := scheduler.New(scheduler.Config{
		Lead:     cfg.Lead(),
		Location: cfg.Location(),
	}, store, hub, log.With(logx.String("comp", "scheduler")))

	// Every committed schedule mutation triggers a reconcile.
	store.SetMutationHook(sched.OnMutation)

	readTO, _ := config.ParseDurationOrDefault("server.read_timeout", cfg.Server.ReadTimeout, 10*time.Second)
	writeTO, _ := config.ParseDurationOrDefault("server.write_timeout", cfg.Server.WriteTimeout, 0)
	shutTO, _ := config.ParseDurationOrDefault("server.shutdown_timeout", cfg.Server.ShutdownTimeout, 5*time.Second)

	srv := server.New(server.Config{
		Addr:            cfg.ServerAddr(),
		ReadTimeout:     readTO,
		WriteTimeout:    writeTO,
		ShutdownTimeout: shutTO,
		CookieSecure:    cfg.Session.CookieSecure,
	}, server.Deps{
		Store:    store,
		Sessions: sessions,
		Limiter:  auth.NewLoginLimiter(rate.Limit(loginRatePerMin)/60, loginBurst),
		Hub:      hub,
		Loc:      cfg.Location(),
	}, log)

	prof := pprof.New(pprof.Config{
		Enabled: cfg.Pprof.Enabled,
		Addr:    cfg.Pprof.Addr,
		Token:   cfg.Pprof.Token,
	}, log)

	return &App{
		cfgm:     cfgm,
		addr:     cfg.ServerAddr(),
		dbPath:   strings.TrimSpace(cfg.Database.Path),
		log:      log,
		logs:     logSvc,
		store:    store,
		hub:      hub,
		sessions: sessions,
		sched:    sched,
		srv:      srv,
		prof:     prof,
		done:     make(chan struct{}),
	}, nil
}

// Store exposes the wired store, mostly for the adduser command.
func (a *App) Store() storage.Store { return a.store }

// Start brings every component up and launches the reload loop. The returned
// error is fatal; a started app runs until Stop.
func (a *App) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	a.sessions.Start()
	a.sched.Start(ctx)
	if err := a.srv.Start(ctx); err != nil {
		cancel()
		a.sched.Stop()
		return err
	}
	if a.prof.Enabled() {
		if err := a.prof.Start(); err != nil {
			a.log.Warn("pprof start failed", logx.Err(err))
		}
	}

	go func() {
		if err := a.cfgm.Watch(ctx); err != nil && ctx.Err() == nil {
			a.log.Warn("config watcher stopped", logx.Err(err))
		}
	}()

	sub := a.cfgm.Subscribe(8)
	go func() {
		defer close(a.done)
		defer a.cfgm.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case cfg, ok := <-sub:
				if !ok {
					return
				}
				// Coalesce bursts: only the newest config matters.
				for {
					select {
					case newer := <-sub:
						if newer != nil {
							cfg = newer
						}
					default:
						goto APPLY
					}
				}
			APPLY:
				a.applyConfig(ctx, cfg)
			}
		}
	}()

	a.log.Info("planner started", logx.String("addr", a.srv.Addr()))
	return nil
}

// applyConfig pushes a hot-reloaded config into the live components.
// Listener address and database changes need a restart and only warn.
func (a *App) applyConfig(ctx context.Context, cfg *config.Config) {
	a.logs.Apply(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	})

	a.sched.Apply(ctx, scheduler.Config{
		Lead:     cfg.Lead(),
		Location: cfg.Location(),
	})

	a.prof.Reconfigure(ctx, pprof.Config{
		Enabled: cfg.Pprof.Enabled,
		Addr:    cfg.Pprof.Addr,
		Token:   cfg.Pprof.Token,
	})

	if addr := cfg.ServerAddr(); addr != a.addr {
		a.log.Warn("server.addr changed; restart required to take effect",
			logx.String("addr", addr))
	}
	if path := strings.TrimSpace(cfg.Database.Path); path != a.dbPath {
		a.log.Warn("database.path changed; restart required to take effect",
			logx.String("path", path))
	}

	a.log.Info("config reloaded")
}

// Stop tears components down in reverse order: server first so no new
// mutations arrive, then the scheduler, then storage.
func (a *App) Stop(ctx context.Context) {
	started := a.cancel != nil
	if started {
		a.cancel()
	}

	a.srv.Stop(ctx)
	a.prof.Stop(ctx)
	a.sched.Stop()
	a.hub.Close()
	a.sessions.Stop()
	if err := a.store.Close(); err != nil {
		a.log.Warn("storage close failed", logx.Err(err))
	}

	if started {
		select {
		case <-a.done:
		case <-time.After(2 * time.Second):
		}
	}

	a.log.Info("planner stopped")
	_ = a.logs.Close()
}
