// Command chatcli runs the hostel assistant widget in a terminal, using the
// viewer record saved in the local store.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"

	"github.com/joho/godotenv"

	"hostel-portal/internal/client"
	"hostel-portal/internal/config"
	"hostel-portal/internal/role"
	"hostel-portal/internal/session"
	"hostel-portal/internal/storage"
	"hostel-portal/internal/widget"
	"hostel-portal/pkg/logger"
)

const help = `commands:
  /open           open the widget
  /close          close the widget
  /quick N        ask suggested question N
  /dismiss        hide the greeting popup
  /logout         forget the saved viewer
  /quit           exit
anything else is sent as a message (the widget opens first)`

func main() {
	var (
		configPath string
		token      string
		roleName   string
		name       string
	)
	flag.StringVar(&configPath, "config", "./configs/config.yaml", "path to the config file")
	flag.StringVar(&token, "token", "", "save this bearer token as the current viewer")
	flag.StringVar(&roleName, "role", "student", "role stored with -token")
	flag.StringVar(&name, "name", "", "display name stored with -token")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := logger.InitWithOutput(cfg.Log.Level, cfg.Log.Format, os.Stderr); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}

	store := storage.NewDiskStorage(cfg.Storage.LocalFile)
	if err := store.Init(); err != nil {
		logger.Fatalf("Failed to open local store: %v", err)
	}
	defer store.Close()

	if token != "" {
		u := session.User{ID: name, Role: role.Parse(roleName), Name: name, Token: token}
		if err := storage.SetJSON(store, cfg.Storage.SessionKey, u); err != nil {
			logger.Fatalf("Failed to save viewer: %v", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	user, err := session.NewStoreProvider(store, cfg.Storage.SessionKey).Current(ctx)
	if errors.Is(err, session.ErrNoSession) {
		fmt.Fprintln(os.Stderr, "No saved viewer; continuing as guest. Use -token to sign in.")
	} else if err != nil {
		logger.Fatalf("Failed to read viewer: %v", err)
	}

	api := client.New(cfg.Backend.BaseURL, cfg.Backend.Timeout)
	ws := widget.New(widget.Options{
		Role:       user.Role,
		ViewerName: user.DisplayName(),
		Backend: widget.BackendFunc(func(ctx context.Context, message string) (string, error) {
			return api.Chat(ctx, user.Token, message)
		}),
		GreetingDelay: cfg.Widget.GreetingDelay,
		GreetingTTL:   cfg.Widget.GreetingTTL,
		SendTimeout:   cfg.Widget.SendTimeout,
		FallbackReply: cfg.Widget.FallbackReply,
	})
	defer ws.Unmount()

	out := &printer{w: os.Stdout}
	ws.Subscribe(out)
	out.transcript(ws.Snapshot())
	fmt.Println(help)

	lines := make(chan string)
	go func() {
		sc := bufio.NewScanner(os.Stdin)
		for sc.Scan() {
			lines <- sc.Text()
		}
		close(lines)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			if quit := handleLine(ctx, ws, store, cfg.Storage.SessionKey, line); quit {
				return
			}
		}
	}
}

func handleLine(ctx context.Context, ws *widget.Session, store storage.Store, key, line string) bool {
	line = strings.TrimSpace(line)
	cmd, arg, _ := strings.Cut(line, " ")

	var err error
	switch cmd {
	case "":
		return false
	case "/quit", "/exit":
		return true
	case "/help":
		fmt.Println(help)
	case "/open":
		err = ws.Open()
	case "/close":
		err = ws.Close()
	case "/dismiss":
		err = ws.DismissGreeting()
	case "/logout":
		if err = store.Remove(key); err == nil || errors.Is(err, storage.ErrKeyNotFound) {
			fmt.Println("Signed out; restart to continue as guest.")
			err = nil
		}
	case "/quick":
		err = askQuick(ctx, ws, arg)
	default:
		if err = ws.Open(); err == nil {
			err = ws.SendText(ctx, line)
		}
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "! %v\n", err)
	}
	return false
}

func askQuick(ctx context.Context, ws *widget.Session, arg string) error {
	qs := ws.QuickQuestions()
	n, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil || n < 1 || n > len(qs) {
		if len(qs) == 0 {
			return widget.ErrSuggestionsHidden
		}
		return fmt.Errorf("pick a question between 1 and %d", len(qs))
	}
	if err := ws.Open(); err != nil {
		return err
	}
	return ws.AskQuickQuestion(ctx, qs[n-1])
}

// printer renders widget events as terminal lines.
type printer struct {
	mu           sync.Mutex
	w            io.Writer
	loading      bool
	showGreeting bool
}

func (p *printer) OnEvent(e widget.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch e.Type {
	case widget.EventMessage:
		p.message(*e.Message)
	case widget.EventState:
		s := e.State
		if s.ShowGreeting && !p.showGreeting {
			fmt.Fprintf(p.w, "💬 %s (type /open)\n", s.GreetingText)
		}
		if s.IsLoading && !p.loading {
			fmt.Fprintln(p.w, "… assistant is typing")
		}
		p.showGreeting = s.ShowGreeting
		p.loading = s.IsLoading
	}
}

func (p *printer) transcript(s widget.Snapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, m := range s.Messages {
		p.message(m)
	}
	for i, q := range s.QuickQuestions {
		fmt.Fprintf(p.w, "  [%d] %s\n", i+1, q)
	}
}

func (p *printer) message(m widget.Message) {
	who := "you"
	if m.Role == widget.SenderBot {
		who = "bot"
	}
	mark := ""
	if m.IsError {
		mark = " (!)"
	}
	fmt.Fprintf(p.w, "[%s] %s%s: %s\n", m.Timestamp.Format("15:04"), who, mark, m.Text)
}
