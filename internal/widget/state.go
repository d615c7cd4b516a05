package widget

import "fmt"

type State int

const (
	Closed State = iota
	ClosedWithGreeting
	Open
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case ClosedWithGreeting:
		return "closed_with_greeting"
	case Open:
		return "open"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Snapshot is a copy of the session's visible state.
type Snapshot struct {
	ID             string    `json:"id"`
	State          State     `json:"state"`
	IsOpen         bool      `json:"isOpen"`
	ShowGreeting   bool      `json:"showGreeting"`
	GreetingText   string    `json:"greetingText,omitempty"`
	IsLoading      bool      `json:"isLoading"`
	Draft          string    `json:"draft"`
	Messages       []Message `json:"messages"`
	QuickQuestions []string  `json:"quickQuestions"`
}
