package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"golang.org/x/time/rate"

	"github.com/Grooty887/Tomorrow-tracker/internal/auth"
	"github.com/Grooty887/Tomorrow-tracker/internal/notify"
	"github.com/Grooty887/Tomorrow-tracker/internal/storage"
	logx "github.com/Grooty887/Tomorrow-tracker/pkg/logx"
)

var testNow = time.Date(2026, time.August, 29, 12, 0, 0, 0, time.UTC)

type fixture struct {
	srv   *httptest.Server
	hub   *notify.Hub
	store storage.Store
}

func newFixture(t *testing.T, limiter *auth.LoginLimiter) *fixture {
	t.Helper()
	if limiter == nil {
		limiter = auth.NewLoginLimiter(rate.Inf, 1)
	}
	st := storage.NewMemory()
	hub := notify.NewHub(logx.Nop())
	sessions := auth.NewSessions("test-secret", time.Hour, logx.Nop())
	s := New(Config{}, Deps{
		Store:    st,
		Sessions: sessions,
		Limiter:  limiter,
		Hub:      hub,
		Loc:      time.UTC,
		Now:      func() time.Time { return testNow },
	}, logx.Nop())

	srv := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		srv.Close()
		hub.Close()
		sessions.Stop()
	})
	return &fixture{srv: srv, hub: hub, store: st}
}

func newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	return &http.Client{Jar: jar}
}

func doJSON(t *testing.T, c *http.Client, method, url string, body any) (*http.Response, []byte) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	var out bytes.Buffer
	if _, err := out.ReadFrom(resp.Body); err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, out.Bytes()
}

func register(t *testing.T, c *http.Client, base, username, password string) storage.User {
	t.Helper()
	resp, body := doJSON(t, c, http.MethodPost, base+"/api/register", credentials{
		Username: username, Password: password, Name: "Tester",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register: status %d, body %s", resp.StatusCode, body)
	}
	var u storage.User
	if err := json.Unmarshal(body, &u); err != nil {
		t.Fatalf("decode user: %v", err)
	}
	return u
}

func TestRegisterLoginAndCurrentUser(t *testing.T) {
	f := newFixture(t, nil)
	c := newClient(t)

	u := register(t, c, f.srv.URL, "alice", "hunter2")
	if u.Password != "" {
		t.Fatal("register response leaked password hash")
	}

	// Registration opened a session.
	resp, body := doJSON(t, c, http.MethodGet, f.srv.URL+"/api/user", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("/api/user after register: %d %s", resp.StatusCode, body)
	}

	// Duplicate username is rejected.
	resp, body = doJSON(t, c, http.MethodPost, f.srv.URL+"/api/register", credentials{Username: "alice", Password: "x"})
	if resp.StatusCode != http.StatusBadRequest || !strings.Contains(string(body), "Username already exists") {
		t.Fatalf("duplicate register: %d %s", resp.StatusCode, body)
	}

	// A fresh client must log in.
	c2 := newClient(t)
	resp, _ = doJSON(t, c2, http.MethodGet, f.srv.URL+"/api/user", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("/api/user unauthenticated: %d", resp.StatusCode)
	}
	resp, _ = doJSON(t, c2, http.MethodPost, f.srv.URL+"/api/login", credentials{Username: "alice", Password: "wrong"})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("login wrong password: %d", resp.StatusCode)
	}
	resp, body = doJSON(t, c2, http.MethodPost, f.srv.URL+"/api/login", credentials{Username: "alice", Password: "hunter2"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login: %d %s", resp.StatusCode, body)
	}
	if strings.Contains(string(body), `"password"`) {
		t.Fatalf("login response leaked password field: %s", body)
	}
	resp, _ = doJSON(t, c2, http.MethodGet, f.srv.URL+"/api/user", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("/api/user after login: %d", resp.StatusCode)
	}
}

func TestLogoutEndsSession(t *testing.T) {
	f := newFixture(t, nil)
	c := newClient(t)
	register(t, c, f.srv.URL, "alice", "hunter2")

	resp, _ := doJSON(t, c, http.MethodPost, f.srv.URL+"/api/logout", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("logout: %d", resp.StatusCode)
	}
	resp, _ = doJSON(t, c, http.MethodGet, f.srv.URL+"/api/user", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("/api/user after logout: %d", resp.StatusCode)
	}
}

func TestProfileUpdate(t *testing.T) {
	f := newFixture(t, nil)
	c := newClient(t)
	register(t, c, f.srv.URL, "alice", "hunter2")

	name := "Alice A."
	email := "alice@example.com"
	resp, body := doJSON(t, c, http.MethodPut, f.srv.URL+"/api/profile", storage.UserUpdate{Name: &name, Email: &email})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("profile update: %d %s", resp.StatusCode, body)
	}
	var u storage.User
	if err := json.Unmarshal(body, &u); err != nil {
		t.Fatal(err)
	}
	if u.Name != name || u.Email != email {
		t.Fatalf("profile = %q/%q, want %q/%q", u.Name, u.Email, name, email)
	}
}

func TestLoginRateLimited(t *testing.T) {
	f := newFixture(t, auth.NewLoginLimiter(rate.Every(time.Minute), 2))
	c := newClient(t)

	for i := 0; i < 2; i++ {
		resp, _ := doJSON(t, c, http.MethodPost, f.srv.URL+"/api/login", credentials{Username: "ghost", Password: "x"})
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("attempt %d: %d, want 401", i+1, resp.StatusCode)
		}
	}
	resp, body := doJSON(t, c, http.MethodPost, f.srv.URL+"/api/login", credentials{Username: "ghost", Password: "x"})
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("attempt past burst: %d %s, want 429", resp.StatusCode, body)
	}
}

func newEntry(date, tm string) storage.NewSchedule {
	return storage.NewSchedule{Title: "standup", Date: date, Time: tm, Duration: 15}
}

func TestScheduleCRUD(t *testing.T) {
	f := newFixture(t, nil)
	c := newClient(t)
	base := f.srv.URL

	resp, body := doJSON(t, c, http.MethodPost, base+"/api/schedules", newEntry("2026-08-29", "14:00"))
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create: %d %s", resp.StatusCode, body)
	}
	var sc storage.Schedule
	if err := json.Unmarshal(body, &sc); err != nil {
		t.Fatal(err)
	}
	if !sc.Notify {
		t.Fatal("notify should default to true")
	}

	// Invalid payloads.
	resp, _ = doJSON(t, c, http.MethodPost, base+"/api/schedules", newEntry("not-a-date", "14:00"))
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("create invalid date: %d", resp.StatusCode)
	}
	resp, body = doJSON(t, c, http.MethodGet, base+"/api/schedules/abc", nil)
	if resp.StatusCode != http.StatusBadRequest || !strings.Contains(string(body), "Invalid ID format") {
		t.Fatalf("bad id: %d %s", resp.StatusCode, body)
	}
	url := fmt.Sprintf("%s/api/schedules/%d", base, sc.ID)
	resp, body = doJSON(t, c, http.MethodGet, url, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get: %d %s", resp.StatusCode, body)
	}

	title := "standup (moved)"
	resp, body = doJSON(t, c, http.MethodPut, url, storage.ScheduleUpdate{Title: &title})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update: %d %s", resp.StatusCode, body)
	}
	var updated storage.Schedule
	if err := json.Unmarshal(body, &updated); err != nil {
		t.Fatal(err)
	}
	if updated.Title != title {
		t.Fatalf("title = %q, want %q", updated.Title, title)
	}

	resp, _ = doJSON(t, c, http.MethodDelete, url, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete: %d", resp.StatusCode)
	}
	resp, body = doJSON(t, c, http.MethodGet, url, nil)
	if resp.StatusCode != http.StatusNotFound || !strings.Contains(string(body), "Schedule not found") {
		t.Fatalf("get after delete: %d %s", resp.StatusCode, body)
	}
}

func TestScheduleDateViews(t *testing.T) {
	f := newFixture(t, nil)
	c := newClient(t)
	base := f.srv.URL

	for _, e := range []storage.NewSchedule{
		newEntry("2026-08-29", "09:00"), // today
		newEntry("2026-08-29", "15:00"), // today
		newEntry("2026-08-30", "10:00"), // tomorrow
		newEntry("2026-09-02", "11:00"), // later
		newEntry("2026-08-28", "08:00"), // yesterday
	} {
		if resp, body := doJSON(t, c, http.MethodPost, base+"/api/schedules", e); resp.StatusCode != http.StatusCreated {
			t.Fatalf("seed %v: %d %s", e, resp.StatusCode, body)
		}
	}

	count := func(path string) int {
		resp, body := doJSON(t, c, http.MethodGet, base+path, nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("%s: %d %s", path, resp.StatusCode, body)
		}
		var list []storage.Schedule
		if err := json.Unmarshal(body, &list); err != nil {
			t.Fatalf("%s: %v", path, err)
		}
		return len(list)
	}

	if n := count("/api/schedules/today"); n != 2 {
		t.Errorf("today = %d, want 2", n)
	}
	if n := count("/api/schedules/tomorrow"); n != 1 {
		t.Errorf("tomorrow = %d, want 1", n)
	}
	// Upcoming includes today but not the past.
	if n := count("/api/schedules/upcoming"); n != 4 {
		t.Errorf("upcoming = %d, want 4", n)
	}
	if n := count("/api/schedules"); n != 5 {
		t.Errorf("all = %d, want 5", n)
	}
}

func TestNotificationsWebSocket(t *testing.T) {
	f := newFixture(t, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsURL := "ws" + strings.TrimPrefix(f.srv.URL, "http") + "/ws-notifications"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	// Subscription registers asynchronously with the handler goroutine.
	deadline := time.Now().Add(2 * time.Second)
	for f.hub.Len() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("websocket client never subscribed")
		}
		time.Sleep(10 * time.Millisecond)
	}

	f.hub.Broadcast(notify.Event{ScheduleID: 7, Title: "standup", Time: "14:00"})

	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var msg struct {
		Type string       `json:"type"`
		Data notify.Event `json:"data"`
	}
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("decode %s: %v", data, err)
	}
	if msg.Type != "notification" || msg.Data.ScheduleID != 7 || msg.Data.Title != "standup" || msg.Data.Time != "14:00" {
		t.Fatalf("frame = %s", data)
	}
}
