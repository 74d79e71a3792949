package notify

// Event is the payload broadcast when an entry's notification fires.
// It is built from the entry's current data at fire time and never persisted.
type Event struct {
	ScheduleID int64  `json:"scheduleId"`
	Title      string `json:"title"`
	Time       string `json:"time"` // "HH:MM"
}

// Message is the wire envelope delivered to every subscriber.
type Message struct {
	Type string `json:"type"` // always "notification"
	Data Event  `json:"data"`
}

// Envelope wraps an event for transport.
func Envelope(e Event) Message {
	return Message{Type: "notification", Data: e}
}
