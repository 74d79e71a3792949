// Package scheduler arms one-shot notification timers for today's planner
// entries and broadcasts an event when each timer fires.
//
// The engine keeps a single invariant: the armed-timer set always equals the
// notify-enabled entries dated today whose fire instant (start time minus the
// configured lead) is still in the future. It re-derives that set from the
// store after every schedule mutation and once per day at midnight, by
// cancelling everything and re-arming from scratch, so the timer set never
// depends on diffing against possibly stale state.
//
// All state transitions (reconcile, timer fire, daily refresh, stop) are
// serialized by one mutex, and each armed timer carries an atomic claimed
// flag so a cancel racing a fire resolves to at-most-one outcome.
package scheduler
