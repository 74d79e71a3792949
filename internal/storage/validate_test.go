package storage

import (
	"errors"
	"testing"
)

func TestValidateDate(t *testing.T) {
	cases := []struct {
		in string
		ok bool
	}{
		{"2026-08-29", true},
		{"2026-01-01", true},
		{"2026-02-30", false}, // not a real day
		{"2026-8-29", false},  // missing zero padding
		{"29-08-2026", false},
		{"", false},
		{"tomorrow", false},
	}
	for _, c := range cases {
		err := ValidateDate(c.in)
		if c.ok && err != nil {
			t.Errorf("ValidateDate(%q) = %v, want nil", c.in, err)
		}
		if !c.ok && err == nil {
			t.Errorf("ValidateDate(%q) = nil, want error", c.in)
		}
		if !c.ok && err != nil && !errors.Is(err, ErrInvalidEntry) {
			t.Errorf("ValidateDate(%q) error not wrapped in ErrInvalidEntry: %v", c.in, err)
		}
	}
}

func TestValidateTime(t *testing.T) {
	cases := []struct {
		in string
		ok bool
	}{
		{"00:00", true},
		{"09:30", true},
		{"23:59", true},
		{"24:00", false},
		{"9:30", false}, // missing zero padding
		{"12:60", false},
		{"12:00:00", false},
		{"", false},
	}
	for _, c := range cases {
		err := ValidateTime(c.in)
		if c.ok && err != nil {
			t.Errorf("ValidateTime(%q) = %v, want nil", c.in, err)
		}
		if !c.ok && err == nil {
			t.Errorf("ValidateTime(%q) = nil, want error", c.in)
		}
	}
}

func TestValidateNewSchedule(t *testing.T) {
	good := NewSchedule{Title: "standup", Date: "2026-08-29", Time: "09:30", Duration: 15}
	if err := validateNewSchedule(good); err != nil {
		t.Fatalf("valid entry rejected: %v", err)
	}

	bad := []NewSchedule{
		{Title: "", Date: "2026-08-29", Time: "09:30", Duration: 15},
		{Title: "x", Date: "bad", Time: "09:30", Duration: 15},
		{Title: "x", Date: "2026-08-29", Time: "25:00", Duration: 15},
		{Title: "x", Date: "2026-08-29", Time: "09:30", Duration: 0},
		{Title: "x", Date: "2026-08-29", Time: "09:30", Duration: -30},
	}
	for i, n := range bad {
		if err := validateNewSchedule(n); err == nil {
			t.Errorf("case %d: invalid entry accepted: %+v", i, n)
		}
	}
}
