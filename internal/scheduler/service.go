package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	logx "github.com/Grooty887/Tomorrow-tracker/pkg/logx"
)

func New(cfg Config, src EntrySource, hub Broadcaster, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Service{
		cfg:    cfg.withDefaults(),
		log:    log,
		src:    src,
		hub:    hub,
		timers: map[int64]*armedTimer{},
		now:    time.Now,
	}
}

// Start runs the initial reconcile and arms the daily midnight refresh.
// A failed initial reconcile is not fatal; the set is rebuilt on the next
// mutation or refresh.
func (s *Service) Start(ctx context.Context) {
	if err := s.Reconcile(ctx); err != nil {
		s.log.Warn("initial reconcile failed; will retry on next trigger", logx.Err(err))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped || s.c != nil {
		return
	}
	s.c = cron.New(cron.WithLocation(s.cfg.Location))
	// Midnight local time: entries dated "today" become eligible, yesterday's
	// leftovers are cleared.
	_, err := s.c.AddFunc("0 0 * * *", s.OnDailyRefresh)
	if err != nil {
		// The expression is a constant; this only fires if cron itself breaks.
		s.log.Error("daily refresh registration failed", logx.Err(err))
	}
	s.c.Start()
	s.log.Info("scheduler started",
		logx.Duration("lead", s.cfg.Lead),
		logx.String("tz", s.cfg.Location.String()),
		logx.Int("armed", len(s.timers)),
	)
}

// Stop cancels the daily refresh and every armed timer. Idempotent.
func (s *Service) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	c := s.c
	s.c = nil
	s.cancelAllLocked()
	s.mu.Unlock()

	if c != nil {
		<-c.Stop().Done()
	}
	s.log.Info("scheduler stopped")
}

// Apply updates the lead time or timezone at runtime and rebuilds the timer
// set so the change takes effect immediately.
func (s *Service) Apply(ctx context.Context, cfg Config) {
	cfg = cfg.withDefaults()

	s.mu.Lock()
	leadChanged := cfg.Lead != s.cfg.Lead
	tzChanged := cfg.Location.String() != s.cfg.Location.String()
	s.cfg = cfg

	var old *cron.Cron
	if tzChanged && s.c != nil && !s.stopped {
		// Re-anchor the midnight refresh to the new zone.
		old = s.c
		s.c = cron.New(cron.WithLocation(cfg.Location))
		_, _ = s.c.AddFunc("0 0 * * *", s.OnDailyRefresh)
		s.c.Start()
	}
	s.mu.Unlock()

	if old != nil {
		<-old.Stop().Done()
	}
	if leadChanged || tzChanged {
		s.log.Info("scheduler config applied",
			logx.Duration("lead", cfg.Lead),
			logx.String("tz", cfg.Location.String()),
		)
		if err := s.Reconcile(ctx); err != nil {
			s.log.Warn("reconcile after config change failed", logx.Err(err))
		}
	}
}
