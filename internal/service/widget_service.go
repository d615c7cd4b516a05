package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"hostel-portal/internal/config"
	"hostel-portal/internal/session"
	"hostel-portal/internal/widget"
	"hostel-portal/pkg/logger"
)

var ErrWidgetNotFound = errors.New("widget session not found")

// ChatClient is the slice of the backend client the widget needs.
type ChatClient interface {
	Chat(ctx context.Context, token, message string) (string, error)
}

type widgetEntry struct {
	session   *widget.Session
	owner     string
	lastSeen  time.Time
	watchers  map[int]func()
	nextWatch int
}

// detachLocked hands back the stop funcs of every watcher so they can run
// once s.mu is released.
func (e *widgetEntry) detachLocked() []func() {
	stops := make([]func(), 0, len(e.watchers))
	for _, stop := range e.watchers {
		stops = append(stops, stop)
	}
	e.watchers = make(map[int]func())
	return stops
}

// teardown unmounts the session and closes its watcher channels.
func teardown(e *widgetEntry, stops []func()) {
	e.session.Unmount()
	for _, stop := range stops {
		stop()
	}
}

// WidgetService keeps one widget session per mount. Sessions belong to the
// viewer that mounted them and expire after an idle TTL.
type WidgetService struct {
	chat   ChatClient
	cfg    config.WidgetConfig
	ttl    time.Duration
	clock  widget.Clock
	bufLen int

	mu      sync.RWMutex
	entries map[string]*widgetEntry
}

func NewWidgetService(chat ChatClient, widgetCfg config.WidgetConfig, sessionCfg config.SessionConfig) *WidgetService {
	return &WidgetService{
		chat:    chat,
		cfg:     widgetCfg,
		ttl:     sessionCfg.TTL,
		clock:   widget.RealClock(),
		bufLen:  32,
		entries: make(map[string]*widgetEntry),
	}
}

// Mount creates a session for the viewer; the greeting timer starts now.
func (s *WidgetService) Mount(user session.User) *widget.Session {
	token := user.Token
	ws := widget.New(widget.Options{
		Role:       user.Role,
		ViewerName: user.DisplayName(),
		Clock:      s.clock,
		Backend: widget.BackendFunc(func(ctx context.Context, message string) (string, error) {
			return s.chat.Chat(ctx, token, message)
		}),
		GreetingDelay: s.cfg.GreetingDelay,
		GreetingTTL:   s.cfg.GreetingTTL,
		SendTimeout:   s.cfg.SendTimeout,
		FallbackReply: s.cfg.FallbackReply,
	})

	s.mu.Lock()
	s.entries[ws.ID()] = &widgetEntry{
		session:  ws,
		owner:    user.Key(),
		lastSeen: s.clock.Now(),
		watchers: make(map[int]func()),
	}
	total := len(s.entries)
	s.mu.Unlock()

	logger.WithFields(logger.Fields{
		"widget_session": ws.ID(),
		"viewer":         user.Key(),
		"active":         total,
	}).Info("widget mounted")
	return ws
}

// Get returns the viewer's session and marks it as recently used. Sessions
// owned by someone else are reported as not found.
func (s *WidgetService) Get(user session.User, id string) (*widget.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok || e.owner != user.Key() {
		return nil, ErrWidgetNotFound
	}
	e.lastSeen = s.clock.Now()
	return e.session, nil
}

func (s *WidgetService) Unmount(user session.User, id string) error {
	s.mu.Lock()
	e, ok := s.entries[id]
	if !ok || e.owner != user.Key() {
		s.mu.Unlock()
		return ErrWidgetNotFound
	}
	delete(s.entries, id)
	stops := e.detachLocked()
	s.mu.Unlock()

	teardown(e, stops)
	logger.Infof("widget unmounted: %s", id)
	return nil
}

// Watch streams the session's events. Slow consumers lose intermediate
// events; every state event carries a full snapshot so they catch up. The
// channel is closed by stop or when the session goes away.
func (s *WidgetService) Watch(user session.User, id string) (<-chan widget.Event, func(), error) {
	ws, err := s.Get(user, id)
	if err != nil {
		return nil, nil, err
	}

	ch := make(chan widget.Event, s.bufLen)
	var closeOnce sync.Once
	var chMu sync.Mutex
	closed := false

	unsubscribe := ws.Subscribe(widget.ListenerFunc(func(e widget.Event) {
		chMu.Lock()
		defer chMu.Unlock()
		if closed {
			return
		}
		select {
		case ch <- e:
		default:
			logger.Warnf("widget %s: dropping %s event for slow watcher", id, e.Type)
		}
	}))

	s.mu.Lock()
	e, ok := s.entries[id]
	if !ok || e.session != ws {
		s.mu.Unlock()
		unsubscribe()
		return nil, nil, ErrWidgetNotFound
	}
	watchID := e.nextWatch
	e.nextWatch++
	stop := func() {
		closeOnce.Do(func() {
			unsubscribe()
			s.dropWatcher(id, watchID)
			chMu.Lock()
			closed = true
			close(ch)
			chMu.Unlock()
		})
	}
	e.watchers[watchID] = stop
	e.lastSeen = s.clock.Now()
	s.mu.Unlock()

	return ch, stop, nil
}

func (s *WidgetService) dropWatcher(id string, watchID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[id]; ok {
		delete(e.watchers, watchID)
		e.lastSeen = s.clock.Now()
	}
}

func (s *WidgetService) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Sweep unmounts sessions idle since before now-TTL that nobody is watching.
func (s *WidgetService) Sweep(now time.Time) int {
	if s.ttl <= 0 {
		return 0
	}
	cutoff := now.Add(-s.ttl)

	var expired []*widgetEntry
	stops := make(map[*widgetEntry][]func())
	s.mu.Lock()
	for id, e := range s.entries {
		if len(e.watchers) == 0 && e.lastSeen.Before(cutoff) {
			expired = append(expired, e)
			stops[e] = e.detachLocked()
			delete(s.entries, id)
		}
	}
	s.mu.Unlock()

	for _, e := range expired {
		teardown(e, stops[e])
		logger.Infof("Cleaned up idle widget session: %s", e.session.ID())
	}
	return len(expired)
}

// Run sweeps idle sessions every interval until ctx is done, then unmounts
// everything that is left.
func (s *WidgetService) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.unmountAll()
			return
		case <-ticker.C:
			s.Sweep(s.clock.Now())
		}
	}
}

func (s *WidgetService) unmountAll() {
	s.mu.Lock()
	entries := s.entries
	s.entries = make(map[string]*widgetEntry)
	stops := make(map[*widgetEntry][]func(), len(entries))
	for _, e := range entries {
		stops[e] = e.detachLocked()
	}
	s.mu.Unlock()

	for _, e := range entries {
		teardown(e, stops[e])
	}
}
