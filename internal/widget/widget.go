// Package widget implements the embedded hostel assistant: greeting popup
// timing, open/closed visibility, the transcript and the send flow.
package widget

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"hostel-portal/internal/role"
	"hostel-portal/pkg/logger"
)

var (
	ErrEmptyDraft        = errors.New("draft is empty")
	ErrSendInFlight      = errors.New("a message is already being sent")
	ErrNotOpen           = errors.New("widget is not open")
	ErrUnmounted         = errors.New("widget session has been unmounted")
	ErrSuggestionsHidden = errors.New("quick questions are no longer offered")
)

const (
	DefaultGreetingDelay = 2 * time.Second
	DefaultGreetingTTL   = 10 * time.Second
	DefaultSendTimeout   = 30 * time.Second
	DefaultFallbackReply = "Sorry, I'm having trouble connecting right now. Please try again in a moment."
	GreetingPrompt       = "Need help? Ask me anything about the hostel!"
)

// Backend answers one chat message.
type Backend interface {
	Chat(ctx context.Context, message string) (string, error)
}

type BackendFunc func(ctx context.Context, message string) (string, error)

func (f BackendFunc) Chat(ctx context.Context, message string) (string, error) {
	return f(ctx, message)
}

type Options struct {
	ID         string
	Role       role.Role
	ViewerName string
	Backend    Backend
	Clock      Clock

	// Zero values select the defaults above. A negative GreetingDelay
	// disables the greeting popup.
	GreetingDelay time.Duration
	GreetingTTL   time.Duration
	SendTimeout   time.Duration
	FallbackReply string
}

type Session struct {
	id            string
	backend       Backend
	clock         Clock
	greetingTTL   time.Duration
	sendTimeout   time.Duration
	fallbackReply string
	quick         []string
	log           *logrus.Entry

	mu           sync.Mutex
	messages     []Message
	isOpen       bool
	showGreeting bool
	draft        string
	isLoading    bool
	unmounted    bool

	showTimer Timer
	hideTimer Timer
	timerGen  uint64

	listeners    map[int]Listener
	nextListener int
	outbox       []Event
	deliverMu    sync.Mutex
}

// New mounts a session: the transcript is seeded with the bot greeting and
// the greeting popup timer is armed.
func New(opts Options) *Session {
	if opts.Backend == nil {
		panic("widget: Options.Backend is required")
	}
	if opts.ID == "" {
		opts.ID = uuid.NewString()
	}
	if opts.Clock == nil {
		opts.Clock = RealClock()
	}
	if opts.GreetingDelay == 0 {
		opts.GreetingDelay = DefaultGreetingDelay
	}
	if opts.GreetingTTL <= 0 {
		opts.GreetingTTL = DefaultGreetingTTL
	}
	if opts.SendTimeout == 0 {
		opts.SendTimeout = DefaultSendTimeout
	}
	if strings.TrimSpace(opts.FallbackReply) == "" {
		opts.FallbackReply = DefaultFallbackReply
	}

	s := &Session{
		id:            opts.ID,
		backend:       opts.Backend,
		clock:         opts.Clock,
		greetingTTL:   opts.GreetingTTL,
		sendTimeout:   opts.SendTimeout,
		fallbackReply: opts.FallbackReply,
		quick:         role.QuickQuestions(opts.Role),
		listeners:     make(map[int]Listener),
		log: logger.WithFields(logger.Fields{
			"widget_session": opts.ID,
			"role":           opts.Role.String(),
		}),
	}
	s.messages = []Message{s.newMessage(SenderBot, greetingText(opts.ViewerName), false)}

	if opts.GreetingDelay > 0 {
		s.mu.Lock()
		gen := s.timerGen
		s.showTimer = s.clock.AfterFunc(opts.GreetingDelay, func() { s.onShowGreeting(gen) })
		s.mu.Unlock()
	}

	return s
}

func greetingText(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "Hi there! 👋 I'm your hostel assistant. How can I help you today?"
	}
	return fmt.Sprintf("Hi %s! 👋 I'm your hostel assistant. How can I help you today?", name)
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) newMessage(sender Sender, text string, isError bool) Message {
	return Message{
		ID:        uuid.NewString(),
		Role:      sender,
		Text:      text,
		Timestamp: s.clock.Now(),
		IsError:   isError,
	}
}

// Subscribe registers l and returns a function that removes it.
func (s *Session) Subscribe(l Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.unmounted {
		return func() {}
	}
	id := s.nextListener
	s.nextListener++
	s.listeners[id] = l

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		ID:             s.id,
		State:          s.stateLocked(),
		IsOpen:         s.isOpen,
		ShowGreeting:   s.showGreeting,
		IsLoading:      s.isLoading,
		Draft:          s.draft,
		Messages:       append([]Message(nil), s.messages...),
		QuickQuestions: s.quickQuestionsLocked(),
	}
	if s.showGreeting {
		snap.GreetingText = GreetingPrompt
	}
	return snap
}

func (s *Session) stateLocked() State {
	switch {
	case s.isOpen:
		return Open
	case s.showGreeting:
		return ClosedWithGreeting
	default:
		return Closed
	}
}

// QuickQuestions are offered only before the first exchange and while no
// send is in flight.
func (s *Session) QuickQuestions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.quickQuestionsLocked()
}

func (s *Session) quickQuestionsLocked() []string {
	if len(s.messages) != 1 || s.isLoading {
		return []string{}
	}
	return append([]string(nil), s.quick...)
}

// Open is the launcher click. It clears the greeting and cancels its timers.
func (s *Session) Open() error {
	s.mu.Lock()
	if s.unmounted {
		s.mu.Unlock()
		return ErrUnmounted
	}
	s.openLocked()
	s.mu.Unlock()

	s.drain()
	return nil
}

func (s *Session) Close() error {
	s.mu.Lock()
	if s.unmounted {
		s.mu.Unlock()
		return ErrUnmounted
	}
	s.closeLocked()
	s.mu.Unlock()

	s.drain()
	return nil
}

// Toggle flips visibility the way the floating launcher button does.
func (s *Session) Toggle() error {
	s.mu.Lock()
	if s.unmounted {
		s.mu.Unlock()
		return ErrUnmounted
	}
	if s.isOpen {
		s.closeLocked()
	} else {
		s.openLocked()
	}
	s.mu.Unlock()

	s.drain()
	return nil
}

func (s *Session) openLocked() {
	if s.isOpen {
		return
	}
	s.isOpen = true
	s.showGreeting = false
	s.cancelTimersLocked()
	s.emitStateLocked()
	s.outbox = append(s.outbox, Event{Type: EventFocusInput, SessionID: s.id})
}

func (s *Session) closeLocked() {
	if !s.isOpen {
		return
	}
	s.isOpen = false
	s.emitStateLocked()
}

// DismissGreeting hides the proactive prompt without opening the widget.
func (s *Session) DismissGreeting() error {
	s.mu.Lock()
	if s.unmounted {
		s.mu.Unlock()
		return ErrUnmounted
	}
	if !s.showGreeting {
		s.mu.Unlock()
		return nil
	}
	s.showGreeting = false
	s.cancelTimersLocked()
	s.emitStateLocked()
	s.mu.Unlock()

	s.drain()
	return nil
}

func (s *Session) SetDraft(text string) error {
	s.mu.Lock()
	if s.unmounted {
		s.mu.Unlock()
		return ErrUnmounted
	}
	if s.draft == text {
		s.mu.Unlock()
		return nil
	}
	s.draft = text
	s.emitStateLocked()
	s.mu.Unlock()

	s.drain()
	return nil
}

// Send submits the trimmed draft and blocks until the reply (or the fallback
// reply) has been appended. Rejections leave the session untouched and are
// reported as ErrNotOpen, ErrSendInFlight or ErrEmptyDraft. Backend failures
// are never returned; they become a bot message flagged IsError.
//
// The backend call ignores cancellation of ctx: a reply that resolves after
// the widget was closed is still appended to the transcript.
func (s *Session) Send(ctx context.Context) error {
	return s.send(ctx, sendRequest{})
}

// SendText sends text in place of the draft. The draft is only consumed
// when the send is accepted.
func (s *Session) SendText(ctx context.Context, text string) error {
	return s.send(ctx, sendRequest{text: &text})
}

// AskQuickQuestion sends q, provided suggestions are still on offer.
func (s *Session) AskQuickQuestion(ctx context.Context, q string) error {
	q = strings.TrimSpace(q)
	if q == "" {
		return ErrEmptyDraft
	}
	return s.send(ctx, sendRequest{text: &q, suggestion: true})
}

type sendRequest struct {
	text       *string
	suggestion bool
}

func (s *Session) send(ctx context.Context, req sendRequest) error {
	text, err := s.beginSend(req)
	if err != nil {
		return err
	}

	var reply *Message
	defer func() { s.endSend(reply) }()

	m := s.exchange(ctx, text)
	reply = &m
	return nil
}

// beginSend checks every gate before it touches the draft, so a rejected
// send changes nothing.
func (s *Session) beginSend(req sendRequest) (string, error) {
	s.mu.Lock()
	defer s.drain()
	defer s.mu.Unlock()

	switch {
	case s.unmounted:
		return "", ErrUnmounted
	case !s.isOpen:
		return "", ErrNotOpen
	case s.isLoading:
		return "", ErrSendInFlight
	case req.suggestion && len(s.messages) != 1:
		return "", ErrSuggestionsHidden
	}

	text := s.draft
	if req.text != nil {
		text = *req.text
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyDraft
	}

	s.appendLocked(s.newMessage(SenderUser, text, false))
	s.draft = ""
	s.isLoading = true
	s.emitStateLocked()
	return text, nil
}

func (s *Session) exchange(ctx context.Context, text string) Message {
	reqCtx := context.WithoutCancel(ctx)
	if s.sendTimeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(reqCtx, s.sendTimeout)
		defer cancel()
	}

	started := s.clock.Now()
	reply, err := s.callBackend(reqCtx, text)
	if err != nil {
		s.log.WithError(err).Warn("chat request failed, showing fallback reply")
		return s.newMessage(SenderBot, s.fallbackReply, true)
	}

	s.log.WithField("elapsed", s.clock.Now().Sub(started)).Debug("chat reply received")
	return s.newMessage(SenderBot, reply, false)
}

func (s *Session) callBackend(ctx context.Context, text string) (reply string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("chat backend panicked: %v", r)
		}
	}()

	reply, err = s.backend.Chat(ctx, text)
	if err == nil && strings.TrimSpace(reply) == "" {
		err = errors.New("empty reply")
	}
	return reply, err
}

// endSend always releases the in-flight flag.
func (s *Session) endSend(reply *Message) {
	s.mu.Lock()
	if reply != nil {
		s.appendLocked(*reply)
	}
	s.isLoading = false
	s.emitStateLocked()
	s.mu.Unlock()

	s.drain()
}

// Unmount tears the session down: timers are stopped and no further events
// are delivered.
func (s *Session) Unmount() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.unmounted {
		return
	}
	s.unmounted = true
	s.cancelTimersLocked()
	s.listeners = make(map[int]Listener)
	s.outbox = nil
}

func (s *Session) onShowGreeting(gen uint64) {
	s.mu.Lock()
	if s.unmounted || gen != s.timerGen || s.isOpen || s.showGreeting {
		s.mu.Unlock()
		return
	}
	s.showTimer = nil
	s.showGreeting = true
	s.hideTimer = s.clock.AfterFunc(s.greetingTTL, func() { s.onHideGreeting(gen) })
	s.emitStateLocked()
	s.mu.Unlock()

	s.drain()
}

func (s *Session) onHideGreeting(gen uint64) {
	s.mu.Lock()
	if s.unmounted || gen != s.timerGen || !s.showGreeting {
		s.mu.Unlock()
		return
	}
	s.hideTimer = nil
	s.showGreeting = false
	s.emitStateLocked()
	s.mu.Unlock()

	s.drain()
}

// cancelTimersLocked stops both greeting timers; bumping the generation
// makes any callback already past Stop a no-op.
func (s *Session) cancelTimersLocked() {
	if s.showTimer != nil {
		s.showTimer.Stop()
		s.showTimer = nil
	}
	if s.hideTimer != nil {
		s.hideTimer.Stop()
		s.hideTimer = nil
	}
	s.timerGen++
}

func (s *Session) appendLocked(m Message) {
	s.messages = append(s.messages, m)
	msg := m
	s.outbox = append(s.outbox, Event{Type: EventMessage, SessionID: s.id, Message: &msg})
}

func (s *Session) emitStateLocked() {
	snap := s.snapshotLocked()
	s.outbox = append(s.outbox, Event{Type: EventState, SessionID: s.id, State: &snap})
}

// drain delivers queued events outside s.mu. deliverMu keeps concurrent
// drains from reordering events.
func (s *Session) drain() {
	s.deliverMu.Lock()
	defer s.deliverMu.Unlock()

	for {
		s.mu.Lock()
		if len(s.outbox) == 0 || s.unmounted {
			s.outbox = nil
			s.mu.Unlock()
			return
		}
		events := s.outbox
		s.outbox = nil
		listeners := make([]Listener, 0, len(s.listeners))
		for id := 0; id < s.nextListener; id++ {
			if l, ok := s.listeners[id]; ok {
				listeners = append(listeners, l)
			}
		}
		s.mu.Unlock()

		for _, e := range events {
			for _, l := range listeners {
				l.OnEvent(e)
			}
		}
	}
}
