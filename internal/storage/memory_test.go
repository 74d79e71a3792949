package storage

import (
	"context"
	"errors"
	"testing"
)

func newEntry(title, date, tm string) NewSchedule {
	return NewSchedule{Title: title, Date: date, Time: tm, Duration: 30}
}

func TestMemoryScheduleCRUD(t *testing.T) {
	ctx := context.Background()
	st := NewMemory()

	created, err := st.CreateSchedule(ctx, newEntry("standup", "2026-08-29", "09:30"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == 0 {
		t.Fatal("create: id not assigned")
	}
	if !created.Notify {
		t.Error("create: notify should default to true")
	}

	got, err := st.GetSchedule(ctx, created.ID)
	if err != nil || got.Title != "standup" {
		t.Fatalf("get: got %+v, err %v", got, err)
	}

	newTime := "10:00"
	upd, err := st.UpdateSchedule(ctx, created.ID, ScheduleUpdate{Time: &newTime})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if upd.Time != "10:00" || upd.Title != "standup" {
		t.Fatalf("update: partial update wrong: %+v", upd)
	}

	if err := st.DeleteSchedule(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := st.GetSchedule(ctx, created.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("get after delete: want ErrNotFound, got %v", err)
	}
	if err := st.DeleteSchedule(ctx, created.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("double delete: want ErrNotFound, got %v", err)
	}
}

func TestMemoryMutationHook(t *testing.T) {
	ctx := context.Background()
	st := NewMemory()

	calls := 0
	st.SetMutationHook(func() { calls++ })

	sc, _ := st.CreateSchedule(ctx, newEntry("a", "2026-08-29", "09:00"))
	title := "b"
	_, _ = st.UpdateSchedule(ctx, sc.ID, ScheduleUpdate{Title: &title})
	_ = st.DeleteSchedule(ctx, sc.ID)

	if calls != 3 {
		t.Fatalf("hook calls = %d, want 3", calls)
	}

	// Failed mutations must not fire the hook.
	_, _ = st.CreateSchedule(ctx, NewSchedule{Title: "", Date: "2026-08-29", Time: "09:00", Duration: 1})
	_ = st.DeleteSchedule(ctx, 12345)
	if calls != 3 {
		t.Fatalf("hook fired on failed mutation: calls = %d", calls)
	}
}

func TestMemoryQueriesSorted(t *testing.T) {
	ctx := context.Background()
	st := NewMemory()

	for _, n := range []NewSchedule{
		newEntry("later", "2026-08-30", "08:00"),
		newEntry("evening", "2026-08-29", "19:00"),
		newEntry("morning", "2026-08-29", "08:15"),
	} {
		if _, err := st.CreateSchedule(ctx, n); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	day, err := st.SchedulesOn(ctx, "2026-08-29")
	if err != nil {
		t.Fatalf("on: %v", err)
	}
	if len(day) != 2 || day[0].Title != "morning" || day[1].Title != "evening" {
		t.Fatalf("day query wrong: %+v", day)
	}

	up, err := st.UpcomingSchedules(ctx, "2026-08-29")
	if err != nil {
		t.Fatalf("upcoming: %v", err)
	}
	if len(up) != 3 || up[2].Title != "later" {
		t.Fatalf("upcoming query wrong: %+v", up)
	}
	if got, _ := st.UpcomingSchedules(ctx, "2026-08-31"); len(got) != 0 {
		t.Fatalf("upcoming past cutoff should be empty, got %+v", got)
	}
}

func TestMemoryUsers(t *testing.T) {
	ctx := context.Background()
	st := NewMemory()

	u, err := st.CreateUser(ctx, "sam", "hash", "Sam", "sam@example.com")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if _, err := st.CreateUser(ctx, "sam", "hash2", "", ""); !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("duplicate username: want ErrUsernameTaken, got %v", err)
	}

	byName, err := st.GetUserByUsername(ctx, "sam")
	if err != nil || byName.ID != u.ID {
		t.Fatalf("get by username: %+v, %v", byName, err)
	}

	name := "Sammy"
	upd, err := st.UpdateUser(ctx, u.ID, UserUpdate{Name: &name})
	if err != nil || upd.Name != "Sammy" || upd.Email != "sam@example.com" {
		t.Fatalf("update user: %+v, %v", upd, err)
	}

	if pub := upd.Public(); pub.Password != "" {
		t.Fatal("Public() must strip password")
	}
}
