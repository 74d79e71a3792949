package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	logx "github.com/Grooty887/Tomorrow-tracker/pkg/logx"
)

//go:embed migrations.sql
var migrationsFS embed.FS

type sqliteStore struct {
	db  *sql.DB
	log logx.Logger

	hookMu sync.RWMutex
	hook   func()
}

func openSQLite(cfg Config, log logx.Logger) (Store, error) {
	path := cfg.Path
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers a small number of concurrent writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	st := &sqliteStore{db: db, log: log}

	// Basic pragmas.
	if cfg.BusyTimeout > 0 {
		ms := cfg.BusyTimeout.Milliseconds()
		_, _ = db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", ms))
	}
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")
	_, _ = db.Exec("PRAGMA foreign_keys = ON")

	if err := st.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return st, nil
}

func (s *sqliteStore) migrate(ctx context.Context) error {
	b, err := migrationsFS.ReadFile("migrations.sql")
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, string(b))
	return err
}

func (s *sqliteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *sqliteStore) SetMutationHook(fn func()) {
	s.hookMu.Lock()
	s.hook = fn
	s.hookMu.Unlock()
}

func (s *sqliteStore) fireHook() {
	s.hookMu.RLock()
	fn := s.hook
	s.hookMu.RUnlock()
	if fn != nil {
		fn()
	}
}

// ---- Users ----

func (s *sqliteStore) CreateUser(ctx context.Context, username, passwordHash, name, email string) (User, error) {
	username = strings.TrimSpace(username)
	if username == "" || passwordHash == "" {
		return User{}, fmt.Errorf("%w: username and password are required", ErrInvalidProfile)
	}
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users(username, password, name, email, created_at) VALUES(?,?,?,?,?)`,
		username, passwordHash, nullStr(name), nullStr(email), now.Format(time.RFC3339Nano),
	)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "unique") {
			return User{}, ErrUsernameTaken
		}
		return User{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return User{}, err
	}
	return User{ID: id, Username: username, Password: passwordHash, Name: name, Email: email, CreatedAt: now}, nil
}

func (s *sqliteStore) GetUser(ctx context.Context, id int64) (User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx,
		`SELECT id, username, password, name, email, created_at FROM users WHERE id = ?`, id))
}

func (s *sqliteStore) GetUserByUsername(ctx context.Context, username string) (User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx,
		`SELECT id, username, password, name, email, created_at FROM users WHERE username = ?`, username))
}

func (s *sqliteStore) UpdateUser(ctx context.Context, id int64, upd UserUpdate) (User, error) {
	u, err := s.GetUser(ctx, id)
	if err != nil {
		return User{}, err
	}
	if upd.Name != nil {
		u.Name = *upd.Name
	}
	if upd.Email != nil {
		u.Email = *upd.Email
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE users SET name = ?, email = ? WHERE id = ?`,
		nullStr(u.Name), nullStr(u.Email), id,
	)
	if err != nil {
		return User{}, err
	}
	return u, nil
}

func (s *sqliteStore) scanUser(row *sql.Row) (User, error) {
	var (
		u           User
		name, email sql.NullString
		createdAt   string
	)
	err := row.Scan(&u.ID, &u.Username, &u.Password, &name, &email, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, err
	}
	u.Name = name.String
	u.Email = email.String
	if t, perr := time.Parse(time.RFC3339Nano, createdAt); perr == nil {
		u.CreatedAt = t
	}
	return u, nil
}

// ---- Schedules ----

const scheduleCols = `id, title, description, date, time, duration, notify, user_id`

func (s *sqliteStore) CreateSchedule(ctx context.Context, n NewSchedule) (Schedule, error) {
	if err := validateNewSchedule(n); err != nil {
		return Schedule{}, err
	}
	notify := true
	if n.Notify != nil {
		notify = *n.Notify
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO schedules(title, description, date, time, duration, notify, user_id) VALUES(?,?,?,?,?,?,?)`,
		n.Title, nullStr(n.Description), n.Date, n.Time, n.Duration, boolInt(notify), nullID(n.UserID),
	)
	if err != nil {
		return Schedule{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Schedule{}, err
	}
	out := Schedule{
		ID: id, Title: n.Title, Description: n.Description,
		Date: n.Date, Time: n.Time, Duration: n.Duration,
		Notify: notify, UserID: n.UserID,
	}
	s.fireHook()
	return out, nil
}

func (s *sqliteStore) GetSchedule(ctx context.Context, id int64) (Schedule, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+scheduleCols+` FROM schedules WHERE id = ?`, id)
	return scanSchedule(row)
}

func (s *sqliteStore) UpdateSchedule(ctx context.Context, id int64, upd ScheduleUpdate) (Schedule, error) {
	if err := validateScheduleUpdate(upd); err != nil {
		return Schedule{}, err
	}
	cur, err := s.GetSchedule(ctx, id)
	if err != nil {
		return Schedule{}, err
	}
	upd.apply(&cur)
	_, err = s.db.ExecContext(ctx,
		`UPDATE schedules SET title = ?, description = ?, date = ?, time = ?, duration = ?, notify = ? WHERE id = ?`,
		cur.Title, nullStr(cur.Description), cur.Date, cur.Time, cur.Duration, boolInt(cur.Notify), id,
	)
	if err != nil {
		return Schedule{}, err
	}
	s.fireHook()
	return cur, nil
}

func (s *sqliteStore) DeleteSchedule(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM schedules WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	s.fireHook()
	return nil
}

func (s *sqliteStore) ListSchedules(ctx context.Context, userID int64) ([]Schedule, error) {
	if userID != 0 {
		return s.querySchedules(ctx,
			`SELECT `+scheduleCols+` FROM schedules WHERE user_id = ? ORDER BY date, time, id`, userID)
	}
	return s.querySchedules(ctx,
		`SELECT `+scheduleCols+` FROM schedules ORDER BY date, time, id`)
}

func (s *sqliteStore) SchedulesOn(ctx context.Context, date string) ([]Schedule, error) {
	return s.querySchedules(ctx,
		`SELECT `+scheduleCols+` FROM schedules WHERE date = ? ORDER BY time, id`, date)
}

func (s *sqliteStore) UpcomingSchedules(ctx context.Context, date string) ([]Schedule, error) {
	return s.querySchedules(ctx,
		`SELECT `+scheduleCols+` FROM schedules WHERE date >= ? ORDER BY date, time, id`, date)
}

func (s *sqliteStore) querySchedules(ctx context.Context, q string, args ...any) ([]Schedule, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Schedule, 0, 16)
	for rows.Next() {
		sc, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSchedule(row rowScanner) (Schedule, error) {
	var (
		sc     Schedule
		desc   sql.NullString
		notify int
		userID sql.NullInt64
	)
	err := row.Scan(&sc.ID, &sc.Title, &desc, &sc.Date, &sc.Time, &sc.Duration, &notify, &userID)
	if errors.Is(err, sql.ErrNoRows) {
		return Schedule{}, ErrNotFound
	}
	if err != nil {
		return Schedule{}, err
	}
	sc.Description = desc.String
	sc.Notify = notify != 0
	sc.UserID = userID.Int64
	return sc, nil
}

func nullStr(v string) any {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	return v
}

func nullID(v int64) any {
	if v == 0 {
		return nil
	}
	return v
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
