package widget

type EventType string

const (
	// EventState carries a snapshot after any mutation.
	EventState EventType = "state"
	// EventMessage means a message was appended; views scroll to it.
	EventMessage EventType = "message"
	// EventFocusInput is emitted on every transition into Open.
	EventFocusInput EventType = "focus_input"
)

type Event struct {
	Type      EventType `json:"type"`
	SessionID string    `json:"sessionId"`
	State     *Snapshot `json:"state,omitempty"`
	Message   *Message  `json:"message,omitempty"`
}

// Listener receives events in mutation order. It runs on the mutating
// goroutine and must not call back into the session's mutators.
type Listener interface {
	OnEvent(Event)
}

type ListenerFunc func(Event)

func (f ListenerFunc) OnEvent(e Event) {
	f(e)
}
