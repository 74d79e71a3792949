package scheduler

import "sort"

// Snapshot returns a copy of the current armed-timer set, sorted by fire
// instant then entry id.
func (s *Service) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	armed := make([]ArmedInfo, 0, len(s.timers))
	for _, at := range s.timers {
		armed = append(armed, ArmedInfo{EntryID: at.entryID, FireAt: at.fireAt})
	}
	sort.Slice(armed, func(i, j int) bool {
		if !armed[i].FireAt.Equal(armed[j].FireAt) {
			return armed[i].FireAt.Before(armed[j].FireAt)
		}
		return armed[i].EntryID < armed[j].EntryID
	})
	return Snapshot{Armed: armed, Lead: s.cfg.Lead}
}

// Armed reports how many timers are currently armed.
func (s *Service) Armed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}
