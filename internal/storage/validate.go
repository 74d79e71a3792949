package storage

import (
	"fmt"
	"strings"
	"time"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

// ValidateDate checks a "YYYY-MM-DD" calendar date.
func ValidateDate(s string) error {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return fmt.Errorf("%w: date %q (want YYYY-MM-DD)", ErrInvalidEntry, s)
	}
	// time.Parse normalizes e.g. 2026-02-30; reject anything that round-trips differently.
	if t.Format(dateLayout) != s {
		return fmt.Errorf("%w: date %q is not a real calendar date", ErrInvalidEntry, s)
	}
	return nil
}

// ValidateTime checks a 24h "HH:MM" time of day.
func ValidateTime(s string) error {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return fmt.Errorf("%w: time %q (want HH:MM)", ErrInvalidEntry, s)
	}
	if t.Format(timeLayout) != s {
		return fmt.Errorf("%w: time %q (want zero-padded HH:MM)", ErrInvalidEntry, s)
	}
	return nil
}

func validateNewSchedule(n NewSchedule) error {
	if strings.TrimSpace(n.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidEntry)
	}
	if err := ValidateDate(n.Date); err != nil {
		return err
	}
	if err := ValidateTime(n.Time); err != nil {
		return err
	}
	if n.Duration <= 0 {
		return fmt.Errorf("%w: duration must be a positive number of minutes", ErrInvalidEntry)
	}
	return nil
}

func validateScheduleUpdate(u ScheduleUpdate) error {
	if u.Title != nil && strings.TrimSpace(*u.Title) == "" {
		return fmt.Errorf("%w: title cannot be empty", ErrInvalidEntry)
	}
	if u.Date != nil {
		if err := ValidateDate(*u.Date); err != nil {
			return err
		}
	}
	if u.Time != nil {
		if err := ValidateTime(*u.Time); err != nil {
			return err
		}
	}
	if u.Duration != nil && *u.Duration <= 0 {
		return fmt.Errorf("%w: duration must be a positive number of minutes", ErrInvalidEntry)
	}
	return nil
}
