package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"hostel-portal/internal/model"
	"hostel-portal/internal/service"
	"hostel-portal/internal/utils"
	"hostel-portal/internal/widget"
	"hostel-portal/pkg/logger"
)

type WidgetHandler struct {
	widgets      *service.WidgetService
	pingInterval time.Duration
	upgrader     websocket.Upgrader
}

func NewWidgetHandler(widgets *service.WidgetService) *WidgetHandler {
	return &WidgetHandler{
		widgets:      widgets,
		pingInterval: 30 * time.Second,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

func (h *WidgetHandler) session(c *gin.Context) (*widget.Session, bool) {
	user, ok := mustViewer(c)
	if !ok {
		return nil, false
	}
	ws, err := h.widgets.Get(user, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return nil, false
	}
	return ws, true
}

func (h *WidgetHandler) Mount(c *gin.Context) {
	user, ok := mustViewer(c)
	if !ok {
		return
	}
	ws := h.widgets.Mount(user)
	c.JSON(http.StatusCreated, ws.Snapshot())
}

func (h *WidgetHandler) Get(c *gin.Context) {
	ws, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, ws.Snapshot())
}

func (h *WidgetHandler) Unmount(c *gin.Context) {
	user, ok := mustViewer(c)
	if !ok {
		return
	}
	if err := h.widgets.Unmount(user, c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// mutate runs fn against the session and answers with the new snapshot.
func (h *WidgetHandler) mutate(c *gin.Context, fn func(*widget.Session) error) {
	ws, ok := h.session(c)
	if !ok {
		return
	}
	if err := fn(ws); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ws.Snapshot())
}

func (h *WidgetHandler) Open(c *gin.Context) {
	h.mutate(c, (*widget.Session).Open)
}

func (h *WidgetHandler) Close(c *gin.Context) {
	h.mutate(c, (*widget.Session).Close)
}

func (h *WidgetHandler) Toggle(c *gin.Context) {
	h.mutate(c, (*widget.Session).Toggle)
}

func (h *WidgetHandler) DismissGreeting(c *gin.Context) {
	h.mutate(c, (*widget.Session).DismissGreeting)
}

func (h *WidgetHandler) SetDraft(c *gin.Context) {
	var req model.DraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.mutate(c, func(ws *widget.Session) error {
		return ws.SetDraft(req.Text)
	})
}

// Send blocks until the reply (or the fallback reply) is in the transcript.
// An optional message in the body is sent in place of the draft.
func (h *WidgetHandler) Send(c *gin.Context) {
	var req model.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.mutate(c, func(ws *widget.Session) error {
		if req.Message != "" {
			return ws.SendText(c.Request.Context(), req.Message)
		}
		return ws.Send(c.Request.Context())
	})
}

func (h *WidgetHandler) AskQuickQuestion(c *gin.Context) {
	var req model.QuickQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.mutate(c, func(ws *widget.Session) error {
		return ws.AskQuickQuestion(c.Request.Context(), req.Question)
	})
}

func (h *WidgetHandler) watch(c *gin.Context) (*widget.Session, <-chan widget.Event, func(), bool) {
	user, ok := mustViewer(c)
	if !ok {
		return nil, nil, nil, false
	}
	id := c.Param("id")
	ws, err := h.widgets.Get(user, id)
	if err != nil {
		writeError(c, err)
		return nil, nil, nil, false
	}
	events, stop, err := h.widgets.Watch(user, id)
	if err != nil {
		writeError(c, err)
		return nil, nil, nil, false
	}
	return ws, events, stop, true
}

// Events streams widget events as SSE, starting with the current state.
func (h *WidgetHandler) Events(c *gin.Context) {
	ws, events, stop, ok := h.watch(c)
	if !ok {
		return
	}
	defer stop()

	sse := utils.NewSSEWriter(c.Writer)
	c.Status(http.StatusOK)

	snap := ws.Snapshot()
	if err := sse.WriteJSON(string(widget.EventState), widget.Event{Type: widget.EventState, SessionID: ws.ID(), State: &snap}); err != nil {
		return
	}

	ping := time.NewTicker(h.pingInterval)
	defer ping.Stop()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ping.C:
			if err := sse.Ping(); err != nil {
				return
			}
		case e, ok := <-events:
			if !ok {
				return
			}
			if err := sse.WriteJSON(string(e.Type), e); err != nil {
				logger.Warnf("widget %s: sse write failed: %v", ws.ID(), err)
				return
			}
		}
	}
}

// WebSocket streams the same events as Events over a websocket. Inbound
// frames are ignored apart from close handling.
func (h *WidgetHandler) WebSocket(c *gin.Context) {
	ws, events, stop, ok := h.watch(c)
	if !ok {
		return
	}
	defer stop()

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warnf("widget %s: websocket upgrade failed: %v", ws.ID(), err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	readWait := 2 * h.pingInterval
	conn.SetReadDeadline(time.Now().Add(readWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(readWait))
		return nil
	})

	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					logger.Debugf("widget %s: websocket read error: %v", ws.ID(), err)
				}
				return
			}
		}
	}()

	snap := ws.Snapshot()
	if err := conn.WriteJSON(widget.Event{Type: widget.EventState, SessionID: ws.ID(), State: &snap}); err != nil {
		return
	}

	ping := time.NewTicker(h.pingInterval)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ping.C:
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case e, ok := <-events:
			if !ok {
				return
			}
			if err := conn.WriteJSON(e); err != nil {
				logger.Warnf("widget %s: websocket write failed: %v", ws.ID(), err)
				return
			}
		}
	}
}
