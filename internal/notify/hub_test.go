package notify

import (
	"testing"

	logx "github.com/Grooty887/Tomorrow-tracker/pkg/logx"
)

func TestHubFanOut(t *testing.T) {
	h := NewHub(logx.Nop())

	ch1, un1 := h.Subscribe(4)
	ch2, un2 := h.Subscribe(4)
	ch3, un3 := h.Subscribe(4)
	defer un1()
	defer un2()
	defer un3()

	e := Event{ScheduleID: 7, Title: "standup", Time: "09:30"}
	h.Broadcast(e)

	for i, ch := range []<-chan Event{ch1, ch2, ch3} {
		select {
		case got := <-ch:
			if got != e {
				t.Errorf("subscriber %d: got %+v, want %+v", i, got, e)
			}
		default:
			t.Errorf("subscriber %d: no event delivered", i)
		}
	}
}

func TestHubDropsSlowSubscriber(t *testing.T) {
	h := NewHub(logx.Nop())

	slow, _ := h.Subscribe(1)
	fast, unFast := h.Subscribe(4)
	defer unFast()

	h.Broadcast(Event{ScheduleID: 1})
	// slow's buffer is now full; this one overflows it.
	h.Broadcast(Event{ScheduleID: 2})

	if h.Len() != 1 {
		t.Fatalf("slow subscriber not dropped: len = %d", h.Len())
	}

	// fast subscriber saw both events.
	if e := <-fast; e.ScheduleID != 1 {
		t.Fatalf("fast first event = %+v", e)
	}
	if e := <-fast; e.ScheduleID != 2 {
		t.Fatalf("fast second event = %+v", e)
	}

	// slow's channel is closed after draining its single buffered event.
	<-slow
	if _, ok := <-slow; ok {
		t.Fatal("slow subscriber channel not closed")
	}
}

func TestHubUnsubscribeIdempotent(t *testing.T) {
	h := NewHub(logx.Nop())

	_, unsub := h.Subscribe(1)
	unsub()
	unsub() // must not panic or double-close

	if h.Len() != 0 {
		t.Fatalf("len = %d, want 0", h.Len())
	}
	// Broadcast to an empty hub is fine.
	h.Broadcast(Event{ScheduleID: 1})
}

func TestHubClose(t *testing.T) {
	h := NewHub(logx.Nop())
	ch, unsub := h.Subscribe(1)
	h.Close()
	if _, ok := <-ch; ok {
		t.Fatal("channel not closed by Close")
	}
	unsub() // no-op after Close
}
