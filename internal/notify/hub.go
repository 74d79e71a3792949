package notify

import (
	"sync"
	"sync/atomic"

	logx "github.com/Grooty887/Tomorrow-tracker/pkg/logx"
)

// Hub tracks live notification listeners and fans events out to them.
//
// Contract:
//   - Broadcast MUST be non-blocking.
//   - Subscribers receive on buffered channels.
//   - A subscriber whose buffer is full is dropped (its channel closed),
//     exactly as if it had unsubscribed. Delivery to one subscriber never
//     blocks or fails delivery to the others.
type Hub struct {
	log logx.Logger

	mu   sync.Mutex
	subs map[uint64]chan Event
	seq  atomic.Uint64
}

func NewHub(log logx.Logger) *Hub {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Hub{log: log, subs: map[uint64]chan Event{}}
}

// Subscribe registers a listener and returns its event channel plus an
// unsubscribe func. Unsubscribing twice is a no-op. The channel is closed on
// unsubscribe (or when the hub drops a slow listener), so receivers should
// treat channel closure as "connection over".
func (h *Hub) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 8
	}
	ch := make(chan Event, buffer)
	id := h.seq.Add(1)

	h.mu.Lock()
	h.subs[id] = ch
	h.mu.Unlock()

	h.log.Debug("listener subscribed", logx.Int("listeners", h.Len()))

	var once sync.Once
	unsub := func() {
		once.Do(func() { h.drop(id) })
	}
	return ch, unsub
}

// Broadcast delivers e to every current subscriber. Fire-and-forget: no
// acknowledgement, no retry, no cross-subscriber ordering guarantee.
func (h *Hub) Broadcast(e Event) {
	h.mu.Lock()
	var full []uint64
	for id, ch := range h.subs {
		select {
		case ch <- e:
		default:
			// Listener can't keep up; treat it as gone.
			full = append(full, id)
		}
	}
	for _, id := range full {
		ch := h.subs[id]
		delete(h.subs, id)
		close(ch)
	}
	n := len(h.subs)
	h.mu.Unlock()

	if len(full) > 0 {
		h.log.Warn("dropped slow listeners", logx.Int("dropped", len(full)), logx.Int("listeners", n))
	}
	h.log.Debug("notification broadcast",
		logx.Int64("schedule_id", e.ScheduleID),
		logx.Int("listeners", n),
	)
}

// Len reports the number of live subscribers.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close drops every subscriber. Used on shutdown.
func (h *Hub) Close() {
	h.mu.Lock()
	for id, ch := range h.subs {
		delete(h.subs, id)
		close(ch)
	}
	h.mu.Unlock()
}

func (h *Hub) drop(id uint64) {
	h.mu.Lock()
	ch, ok := h.subs[id]
	if ok {
		delete(h.subs, id)
	}
	h.mu.Unlock()
	if ok {
		close(ch)
	}
}
