package storage

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// memStore keeps everything in maps. It honors the same validation and hook
// contract as the SQLite backend, which makes it a drop-in for tests.
type memStore struct {
	mu        sync.RWMutex
	users     map[int64]User
	schedules map[int64]Schedule
	nextUser  int64
	nextSched int64

	hookMu sync.RWMutex
	hook   func()
}

// NewMemory returns an empty in-memory store.
func NewMemory() Store {
	return &memStore{
		users:     map[int64]User{},
		schedules: map[int64]Schedule{},
		nextUser:  1,
		nextSched: 1,
	}
}

func (m *memStore) Close() error { return nil }

func (m *memStore) SetMutationHook(fn func()) {
	m.hookMu.Lock()
	m.hook = fn
	m.hookMu.Unlock()
}

func (m *memStore) fireHook() {
	m.hookMu.RLock()
	fn := m.hook
	m.hookMu.RUnlock()
	if fn != nil {
		fn()
	}
}

// ---- Users ----

func (m *memStore) CreateUser(_ context.Context, username, passwordHash, name, email string) (User, error) {
	username = strings.TrimSpace(username)
	if username == "" || passwordHash == "" {
		return User{}, fmt.Errorf("%w: username and password are required", ErrInvalidProfile)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			return User{}, ErrUsernameTaken
		}
	}
	u := User{
		ID:        m.nextUser,
		Username:  username,
		Password:  passwordHash,
		Name:      name,
		Email:     email,
		CreatedAt: time.Now().UTC(),
	}
	m.nextUser++
	m.users[u.ID] = u
	return u, nil
}

func (m *memStore) GetUser(_ context.Context, id int64) (User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (m *memStore) GetUserByUsername(_ context.Context, username string) (User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Username == username {
			return u, nil
		}
	}
	return User{}, ErrNotFound
}

func (m *memStore) UpdateUser(_ context.Context, id int64, upd UserUpdate) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	if upd.Name != nil {
		u.Name = *upd.Name
	}
	if upd.Email != nil {
		u.Email = *upd.Email
	}
	m.users[id] = u
	return u, nil
}

// ---- Schedules ----

func (m *memStore) CreateSchedule(_ context.Context, n NewSchedule) (Schedule, error) {
	if err := validateNewSchedule(n); err != nil {
		return Schedule{}, err
	}
	notify := true
	if n.Notify != nil {
		notify = *n.Notify
	}
	m.mu.Lock()
	sc := Schedule{
		ID: m.nextSched, Title: n.Title, Description: n.Description,
		Date: n.Date, Time: n.Time, Duration: n.Duration,
		Notify: notify, UserID: n.UserID,
	}
	m.nextSched++
	m.schedules[sc.ID] = sc
	m.mu.Unlock()

	m.fireHook()
	return sc, nil
}

func (m *memStore) GetSchedule(_ context.Context, id int64) (Schedule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sc, ok := m.schedules[id]
	if !ok {
		return Schedule{}, ErrNotFound
	}
	return sc, nil
}

func (m *memStore) UpdateSchedule(_ context.Context, id int64, upd ScheduleUpdate) (Schedule, error) {
	if err := validateScheduleUpdate(upd); err != nil {
		return Schedule{}, err
	}
	m.mu.Lock()
	sc, ok := m.schedules[id]
	if !ok {
		m.mu.Unlock()
		return Schedule{}, ErrNotFound
	}
	upd.apply(&sc)
	m.schedules[id] = sc
	m.mu.Unlock()

	m.fireHook()
	return sc, nil
}

func (m *memStore) DeleteSchedule(_ context.Context, id int64) error {
	m.mu.Lock()
	_, ok := m.schedules[id]
	if !ok {
		m.mu.Unlock()
		return ErrNotFound
	}
	delete(m.schedules, id)
	m.mu.Unlock()

	m.fireHook()
	return nil
}

func (m *memStore) ListSchedules(_ context.Context, userID int64) ([]Schedule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Schedule, 0, len(m.schedules))
	for _, sc := range m.schedules {
		if userID != 0 && sc.UserID != userID {
			continue
		}
		out = append(out, sc)
	}
	sortSchedules(out)
	return out, nil
}

func (m *memStore) SchedulesOn(_ context.Context, date string) ([]Schedule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Schedule, 0, 8)
	for _, sc := range m.schedules {
		if sc.Date == date {
			out = append(out, sc)
		}
	}
	sortSchedules(out)
	return out, nil
}

func (m *memStore) UpcomingSchedules(_ context.Context, date string) ([]Schedule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Schedule, 0, 8)
	for _, sc := range m.schedules {
		if sc.Date >= date {
			out = append(out, sc)
		}
	}
	sortSchedules(out)
	return out, nil
}

// sortSchedules orders by date, then time, then id. Date/time strings are
// zero-padded so lexicographic order is chronological.
func sortSchedules(s []Schedule) {
	sort.Slice(s, func(i, j int) bool {
		if s[i].Date != s[j].Date {
			return s[i].Date < s[j].Date
		}
		if s[i].Time != s[j].Time {
			return s[i].Time < s[j].Time
		}
		return s[i].ID < s[j].ID
	})
}
