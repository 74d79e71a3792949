package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/Grooty887/Tomorrow-tracker/internal/notify"
	"github.com/Grooty887/Tomorrow-tracker/internal/storage"
	logx "github.com/Grooty887/Tomorrow-tracker/pkg/logx"
)

// EntrySource is the slice of the store the scheduler reads. It is re-queried
// on every reconcile and on every fire, so the engine never trusts data it
// cached at arm time.
type EntrySource interface {
	SchedulesOn(ctx context.Context, date string) ([]storage.Schedule, error)
	GetSchedule(ctx context.Context, id int64) (storage.Schedule, error)
}

// Broadcaster delivers a fired event to all live listeners.
type Broadcaster interface {
	Broadcast(e notify.Event)
}

// Config controls the engine.
type Config struct {
	// Lead is how long before an entry's start its notification fires.
	// 0 means the 10-minute default.
	Lead time.Duration

	// Location is the timezone "today" and entry times are interpreted in.
	// nil means server-local.
	Location *time.Location
}

func (c Config) withDefaults() Config {
	if c.Lead <= 0 {
		c.Lead = 10 * time.Minute
	}
	if c.Location == nil {
		c.Location = time.Local
	}
	return c
}

// armedTimer is one pending one-shot notification.
//
// claimed resolves the cancel-vs-fire race: whichever side flips it first
// owns the timer, the loser no-ops. A fired or cancelled timer is removed
// from the set and never reused.
type armedTimer struct {
	entryID int64
	fireAt  time.Time
	timer   *time.Timer
	claimed atomic.Bool
}

type Service struct {
	// mu serializes Reconcile, OnMutation, OnDailyRefresh, timer fires, and
	// Stop. It is held across the store fetch inside reconcile so two
	// reconciliations can never interleave their cancel/arm phases.
	mu sync.Mutex

	cfg Config
	log logx.Logger
	src EntrySource
	hub Broadcaster

	timers  map[int64]*armedTimer
	c       *cron.Cron
	stopped bool

	// now is swappable in tests.
	now func() time.Time
}

// ArmedInfo describes one armed timer for introspection.
type ArmedInfo struct {
	EntryID int64
	FireAt  time.Time
}

// Snapshot is a point-in-time view of the engine, for logging and tests.
type Snapshot struct {
	Armed []ArmedInfo
	Lead  time.Duration
}
