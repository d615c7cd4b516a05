package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"hostel-portal/internal/config"
	"hostel-portal/internal/role"
	"hostel-portal/internal/session"
	"hostel-portal/internal/widget"
)

type fakeChat struct {
	reply  string
	err    error
	tokens []string
}

func (f *fakeChat) Chat(_ context.Context, token, message string) (string, error) {
	f.tokens = append(f.tokens, token)
	if f.err != nil {
		return "", f.err
	}
	return f.reply + message, nil
}

func newTestWidgetService(chat ChatClient) *WidgetService {
	return NewWidgetService(chat,
		config.WidgetConfig{GreetingDelay: -1, SendTimeout: time.Second},
		config.SessionConfig{TTL: time.Minute},
	)
}

var (
	alice = session.User{ID: "u1", Role: role.Student, Name: "Alice", Token: "tok-alice"}
	bob   = session.User{ID: "u2", Role: role.Staff, Name: "Bob", Token: "tok-bob"}
)

func TestWidgetServiceMountAndGet(t *testing.T) {
	svc := newTestWidgetService(&fakeChat{})

	ws := svc.Mount(alice)
	if svc.Count() != 1 {
		t.Fatalf("Count() = %d, want 1", svc.Count())
	}

	got, err := svc.Get(alice, ws.ID())
	if err != nil || got != ws {
		t.Fatalf("Get() = %v, %v; want mounted session", got, err)
	}

	if _, err := svc.Get(bob, ws.ID()); !errors.Is(err, ErrWidgetNotFound) {
		t.Fatalf("Get() by another viewer err = %v, want ErrWidgetNotFound", err)
	}
	if _, err := svc.Get(alice, "missing"); !errors.Is(err, ErrWidgetNotFound) {
		t.Fatalf("Get() missing err = %v, want ErrWidgetNotFound", err)
	}
}

func TestWidgetServiceForwardsViewerToken(t *testing.T) {
	chat := &fakeChat{reply: "echo: "}
	svc := newTestWidgetService(chat)
	ws := svc.Mount(alice)

	if err := ws.Open(); err != nil {
		t.Fatal(err)
	}
	if err := ws.SetDraft("hello"); err != nil {
		t.Fatal(err)
	}
	if err := ws.Send(context.Background()); err != nil {
		t.Fatal(err)
	}

	if len(chat.tokens) != 1 || chat.tokens[0] != "tok-alice" {
		t.Fatalf("tokens = %v, want [tok-alice]", chat.tokens)
	}
	msgs := ws.Snapshot().Messages
	if last := msgs[len(msgs)-1]; last.Text != "echo: hello" || last.IsError {
		t.Fatalf("last message = %+v", last)
	}
}

func TestWidgetServiceUnmount(t *testing.T) {
	svc := newTestWidgetService(&fakeChat{})
	ws := svc.Mount(alice)

	if err := svc.Unmount(bob, ws.ID()); !errors.Is(err, ErrWidgetNotFound) {
		t.Fatalf("Unmount() by another viewer err = %v", err)
	}
	if err := svc.Unmount(alice, ws.ID()); err != nil {
		t.Fatalf("Unmount() err = %v", err)
	}
	if svc.Count() != 0 {
		t.Fatalf("Count() = %d after unmount", svc.Count())
	}
	if err := ws.Open(); !errors.Is(err, widget.ErrUnmounted) {
		t.Fatalf("Open() after unmount err = %v, want ErrUnmounted", err)
	}
}

func TestWidgetServiceWatch(t *testing.T) {
	svc := newTestWidgetService(&fakeChat{})
	ws := svc.Mount(alice)

	events, stop, err := svc.Watch(alice, ws.ID())
	if err != nil {
		t.Fatal(err)
	}

	if err := ws.Open(); err != nil {
		t.Fatal(err)
	}

	var types []widget.EventType
	for len(types) < 2 {
		select {
		case e := <-events:
			types = append(types, e.Type)
		case <-time.After(time.Second):
			t.Fatalf("timed out, got %v", types)
		}
	}
	if types[0] != widget.EventState || types[1] != widget.EventFocusInput {
		t.Fatalf("event types = %v, want [state focus_input]", types)
	}

	stop()
	stop()
	if _, ok := <-events; ok {
		t.Fatal("channel still open after stop")
	}
	if err := ws.Close(); err != nil {
		t.Fatal(err)
	}

	if _, _, err := svc.Watch(bob, ws.ID()); !errors.Is(err, ErrWidgetNotFound) {
		t.Fatalf("Watch() by another viewer err = %v", err)
	}
}

func expectClosed(t *testing.T, events <-chan widget.Event) {
	t.Helper()
	deadline := time.After(500 * time.Millisecond)
	for {
		select {
		case _, ok := <-events:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("watch channel still open")
		}
	}
}

func TestWidgetServiceUnmountClosesWatchers(t *testing.T) {
	svc := newTestWidgetService(&fakeChat{})
	ws := svc.Mount(alice)

	first, stopFirst, err := svc.Watch(alice, ws.ID())
	if err != nil {
		t.Fatal(err)
	}
	second, stopSecond, err := svc.Watch(alice, ws.ID())
	if err != nil {
		t.Fatal(err)
	}

	if err := svc.Unmount(alice, ws.ID()); err != nil {
		t.Fatal(err)
	}
	expectClosed(t, first)
	expectClosed(t, second)

	stopFirst()
	stopSecond()
	if _, _, err := svc.Watch(alice, ws.ID()); !errors.Is(err, ErrWidgetNotFound) {
		t.Fatalf("Watch() after unmount err = %v, want ErrWidgetNotFound", err)
	}
}

func TestWidgetServiceShutdownClosesWatchers(t *testing.T) {
	svc := newTestWidgetService(&fakeChat{})
	ws := svc.Mount(alice)
	events, stop, err := svc.Watch(alice, ws.ID())
	if err != nil {
		t.Fatal(err)
	}
	defer stop()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	svc.Run(ctx, time.Hour)

	expectClosed(t, events)
}

func TestWidgetServiceSweep(t *testing.T) {
	svc := newTestWidgetService(&fakeChat{})
	idle := svc.Mount(alice)
	watched := svc.Mount(bob)

	_, stop, err := svc.Watch(bob, watched.ID())
	if err != nil {
		t.Fatal(err)
	}
	defer stop()

	later := time.Now().Add(2 * time.Minute)
	if n := svc.Sweep(later); n != 1 {
		t.Fatalf("Sweep() = %d, want 1", n)
	}
	if _, err := svc.Get(alice, idle.ID()); !errors.Is(err, ErrWidgetNotFound) {
		t.Fatalf("idle session survived sweep: %v", err)
	}
	if _, err := svc.Get(bob, watched.ID()); err != nil {
		t.Fatalf("watched session was swept: %v", err)
	}

	stop()
	if n := svc.Sweep(later.Add(2 * time.Minute)); n != 1 {
		t.Fatalf("Sweep() after stop = %d, want 1", n)
	}
}

func TestWidgetServiceRunUnmountsOnShutdown(t *testing.T) {
	svc := newTestWidgetService(&fakeChat{})
	ws := svc.Mount(alice)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.Run(ctx, time.Hour)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
	if svc.Count() != 0 {
		t.Fatalf("Count() = %d after shutdown", svc.Count())
	}
	if err := ws.Open(); !errors.Is(err, widget.ErrUnmounted) {
		t.Fatalf("Open() err = %v, want ErrUnmounted", err)
	}
}
