// Package storage persists users and schedule entries.
//
// It is the validation boundary for entry data: malformed dates, times, or
// durations are rejected here and never reach the notification scheduler.
// Mutations (create/update/delete of schedules) invoke the registered
// mutation hook synchronously after the write commits, so the scheduler can
// re-derive its timer set from current data.
package storage
