package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Grooty887/Tomorrow-tracker/internal/notify"
	"github.com/Grooty887/Tomorrow-tracker/internal/storage"
	logx "github.com/Grooty887/Tomorrow-tracker/pkg/logx"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

// Reconcile rebuilds the armed-timer set from today's entries.
//
// It is a full replace: every previously armed timer is cancelled, then
// timers are re-armed for each notify-enabled entry whose fire instant is
// still in the future. Entries already inside the lead window are skipped,
// never retroactively fired.
//
// If the store query fails the existing set is left untouched and the error
// is returned; the next mutation or daily refresh retries.
func (s *Service) Reconcile(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reconcileLocked(ctx)
}

func (s *Service) reconcileLocked(ctx context.Context) error {
	if s.stopped {
		return nil
	}
	cfg := s.cfg
	now := s.now()
	today := now.In(cfg.Location).Format(dateLayout)

	entries, err := s.src.SchedulesOn(ctx, today)
	if err != nil {
		s.log.Error("reconcile query failed; keeping current timers",
			logx.Err(err), logx.String("date", today))
		return fmt.Errorf("reconcile: %w", err)
	}

	s.cancelAllLocked()

	armed, skipped := 0, 0
	for _, e := range entries {
		if !e.Notify {
			continue
		}
		fireAt, err := fireTime(e.Date, e.Time, cfg.Location, cfg.Lead)
		if err != nil {
			// Store-side validation makes this unreachable for committed rows.
			s.log.Warn("entry with unparseable time skipped",
				logx.Int64("entry_id", e.ID), logx.Err(err))
			continue
		}
		if !fireAt.After(now) {
			skipped++
			continue
		}
		s.armLocked(e.ID, fireAt, now)
		armed++
	}
	s.log.Debug("reconciled",
		logx.String("date", today),
		logx.Int("entries", len(entries)),
		logx.Int("armed", armed),
		logx.Int("past_skipped", skipped),
	)
	return nil
}

// OnMutation is invoked by the store hook synchronously after every schedule
// create/update/delete commits.
func (s *Service) OnMutation() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = s.Reconcile(ctx) // errors already logged; retried on next trigger
}

// OnDailyRefresh fires at local midnight: entries dated today become
// eligible, and whatever was armed for yesterday is cleared.
func (s *Service) OnDailyRefresh() {
	s.log.Debug("daily refresh")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = s.Reconcile(ctx)
}

func (s *Service) armLocked(entryID int64, fireAt, now time.Time) {
	at := &armedTimer{entryID: entryID, fireAt: fireAt}
	at.timer = time.AfterFunc(fireAt.Sub(now), func() { s.fire(at) })
	s.timers[entryID] = at
}

// cancelAllLocked claims and stops every armed timer. A timer whose callback
// is concurrently waiting on s.mu will find itself claimed and no-op.
func (s *Service) cancelAllLocked() {
	for id, at := range s.timers {
		at.claimed.Store(true)
		at.timer.Stop()
		delete(s.timers, id)
	}
}

// fire runs in the timer goroutine when an armed instant arrives.
//
// The claim CAS happens under s.mu, so it is strictly ordered against
// cancelAllLocked: whichever runs first wins, and the loser is a no-op.
// Entry data is re-fetched so an edit or delete between arming and firing is
// honored (gone or notify=false means no broadcast).
func (s *Service) fire(at *armedTimer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	if !at.claimed.CompareAndSwap(false, true) {
		return
	}
	if cur, ok := s.timers[at.entryID]; ok && cur == at {
		delete(s.timers, at.entryID)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	e, err := s.src.GetSchedule(ctx, at.entryID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.log.Debug("entry gone before fire", logx.Int64("entry_id", at.entryID))
		} else {
			s.log.Warn("entry fetch at fire time failed", logx.Int64("entry_id", at.entryID), logx.Err(err))
		}
		return
	}
	if !e.Notify {
		s.log.Debug("notify disabled before fire", logx.Int64("entry_id", e.ID))
		return
	}

	s.hub.Broadcast(notify.Event{ScheduleID: e.ID, Title: e.Title, Time: e.Time})
	s.log.Info("notification fired",
		logx.Int64("entry_id", e.ID),
		logx.String("title", e.Title),
		logx.String("time", e.Time),
	)
}

// fireTime computes the absolute fire instant for an entry: its start minus
// lead, with proper calendar arithmetic (an entry at 00:05 with a 10-minute
// lead fires at 23:55 the previous day).
func fireTime(date, hhmm string, loc *time.Location, lead time.Duration) (time.Time, error) {
	d, err := time.ParseInLocation(dateLayout, date, loc)
	if err != nil {
		return time.Time{}, err
	}
	t, err := time.Parse(timeLayout, hhmm)
	if err != nil {
		return time.Time{}, err
	}
	start := time.Date(d.Year(), d.Month(), d.Day(), t.Hour(), t.Minute(), 0, 0, loc)
	return start.Add(-lead), nil
}
