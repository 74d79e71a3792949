package storage

import (
	"context"
	"errors"
	"strings"
	"time"

	logx "github.com/Grooty887/Tomorrow-tracker/pkg/logx"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrUsernameTaken  = errors.New("username already exists")
	ErrInvalidEntry   = errors.New("invalid schedule data")
	ErrInvalidProfile = errors.New("invalid profile data")
)

// Store is the persistence API used by the server and the scheduler.
//
// Schedule mutations call the registered mutation hook synchronously after
// the write commits (and only on success).
type Store interface {
	// Users
	CreateUser(ctx context.Context, username, passwordHash, name, email string) (User, error)
	GetUser(ctx context.Context, id int64) (User, error)
	GetUserByUsername(ctx context.Context, username string) (User, error)
	UpdateUser(ctx context.Context, id int64, upd UserUpdate) (User, error)

	// Schedules
	ListSchedules(ctx context.Context, userID int64) ([]Schedule, error)
	GetSchedule(ctx context.Context, id int64) (Schedule, error)
	CreateSchedule(ctx context.Context, n NewSchedule) (Schedule, error)
	UpdateSchedule(ctx context.Context, id int64, upd ScheduleUpdate) (Schedule, error)
	DeleteSchedule(ctx context.Context, id int64) error

	// SchedulesOn returns entries dated exactly date ("YYYY-MM-DD"),
	// sorted by time. UpcomingSchedules returns entries dated >= date,
	// sorted by date then time.
	SchedulesOn(ctx context.Context, date string) ([]Schedule, error)
	UpcomingSchedules(ctx context.Context, date string) ([]Schedule, error)

	// SetMutationHook registers fn to run after every successful schedule
	// create/update/delete. At most one hook; nil clears it.
	SetMutationHook(fn func())

	Close() error
}

// Config configures storage.
//
// Driver values:
//   - "sqlite" (default): SQLite database file
//   - "memory": process-local store, mostly for tests and demos
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// Open initializes the configured store.
func Open(cfg Config, log logx.Logger) (Store, error) {
	if log.IsZero() {
		log = logx.Nop()
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", "sqlite", "sqlite3":
		if strings.TrimSpace(cfg.Path) == "" {
			return nil, errors.New("storage path is required")
		}
		return openSQLite(cfg, log)
	case "memory":
		return NewMemory(), nil
	default:
		return nil, errors.New("unknown storage driver: " + cfg.Driver)
	}
}
