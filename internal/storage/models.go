package storage

import "time"

// User is an account record. Password holds the scrypt hash, never plaintext;
// API layers must strip it before serializing a user.
type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Password  string    `json:"password,omitempty"`
	Name      string    `json:"name,omitempty"`
	Email     string    `json:"email,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Public returns a copy safe to serialize (password stripped).
func (u User) Public() User {
	u.Password = ""
	return u
}

// Schedule is a single planner entry: one date+time occurrence.
//
// Date is "YYYY-MM-DD" and Time is "HH:MM", both interpreted in the
// planner's configured timezone. Duration is minutes. The lexicographic
// order of Date/Time strings matches their chronological order, which the
// list queries rely on.
type Schedule struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	Duration    int    `json:"duration"`
	Notify      bool   `json:"notify"`
	UserID      int64  `json:"userId,omitempty"`
}

// NewSchedule carries the caller-supplied fields for a create.
type NewSchedule struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	Duration    int    `json:"duration"`
	Notify      *bool  `json:"notify,omitempty"` // nil means default true
	UserID      int64  `json:"userId,omitempty"`
}

// ScheduleUpdate is a partial update; nil fields are left untouched.
type ScheduleUpdate struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Date        *string `json:"date,omitempty"`
	Time        *string `json:"time,omitempty"`
	Duration    *int    `json:"duration,omitempty"`
	Notify      *bool   `json:"notify,omitempty"`
}

// UserUpdate is a partial profile update. Only name and email are editable.
type UserUpdate struct {
	Name  *string `json:"name,omitempty"`
	Email *string `json:"email,omitempty"`
}

func (u ScheduleUpdate) apply(s *Schedule) {
	if u.Title != nil {
		s.Title = *u.Title
	}
	if u.Description != nil {
		s.Description = *u.Description
	}
	if u.Date != nil {
		s.Date = *u.Date
	}
	if u.Time != nil {
		s.Time = *u.Time
	}
	if u.Duration != nil {
		s.Duration = *u.Duration
	}
	if u.Notify != nil {
		s.Notify = *u.Notify
	}
}
