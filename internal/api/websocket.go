package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/inkboard/backend/internal/models"
	"github.com/inkboard/backend/internal/session"
	"github.com/inkboard/backend/internal/signal"
	"github.com/inkboard/backend/internal/surface"
	"github.com/inkboard/backend/internal/whiteboard"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// WebSocket message types for the board protocol
const (
	// Client -> Server messages
	MsgTypePointerDown   = "pointer:down"
	MsgTypePointerMove   = "pointer:move"
	MsgTypePointerUp     = "pointer:up"
	MsgTypePointerCancel = "pointer:cancel"
	MsgTypePointerLost   = "pointer:lost"
	MsgTypeWindowBlur    = "window:blur"
	MsgTypeMeasure       = "board:measure"
	MsgTypeToolSelect    = "tool:select"
	MsgTypeRevealSkip    = "reveal:skip"
	MsgTypeKeyDown       = "key:down"
	MsgTypePing          = "ping"

	// Server -> Client messages
	MsgTypeConnected   = "connected"
	MsgTypeFrame       = "frame"
	MsgTypeCommitted   = "committed"
	MsgTypeSkipHandled = "skip:handled"
	MsgTypeKeyAction   = "key:action"
	MsgTypeError       = "error"
	MsgTypePong        = "pong"
)

const (
	wsWriteWait   = 10 * time.Second
	wsOutboxDepth = 32
)

// WSMessage is the envelope of every WebSocket message
type WSMessage struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

// PointerPayload carries a pointer event and the live surface rect
type PointerPayload struct {
	Event surface.PointerEvent `json:"event"`
	Rect  surface.Rect         `json:"rect"`
}

// PointerEndPayload names the pointer that went up or away
type PointerEndPayload struct {
	PointerID int `json:"pointerId"`
}

// MeasurePayload is a live surface size
type MeasurePayload struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// ToolPayload selects a drawing tool
type ToolPayload struct {
	ToolID string `json:"toolId"`
	Color  string `json:"color"`
}

// KeyPayload is a key press with the scroll context needed to navigate
type KeyPayload struct {
	Event         signal.KeyEvent `json:"event"`
	ViewportWidth float64         `json:"viewportWidth"`
	ScrollY       float64         `json:"scrollY"`
	Slides        []signal.Slide  `json:"slides"`
}

// ConnectedPayload greets a new connection
type ConnectedPayload struct {
	BoardID  string `json:"boardId"`
	AnchorID string `json:"anchorId,omitempty"`
	Mobile   bool   `json:"mobile"`
}

// CommittedPayload announces a finished user stroke
type CommittedPayload struct {
	Path models.DrawPath `json:"path"`
}

// SkipPayload reports the outcome of a skip request
type SkipPayload struct {
	Skipped bool `json:"skipped"`
}

// WSErrorResponse is the payload of an error message
type WSErrorResponse struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// WebSocketHandler connects clients to board sessions
type WebSocketHandler struct {
	sessions *session.Manager
	upgrader websocket.Upgrader
	log      *zap.Logger

	// measureAttempts and measureInterval bound the polling for a surface
	// that reports no size yet.
	measureAttempts int
	measureInterval time.Duration
}

// NewWebSocketHandler creates a new WebSocket board handler
func NewWebSocketHandler(sessions *session.Manager, log *zap.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		sessions: sessions,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// Allow connections from dev server
				return true
			},
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 64 * 1024,
		},
		log:             log.Named("websocket"),
		measureAttempts: whiteboard.DefaultMaxMeasureAttempts,
		measureInterval: whiteboard.DefaultMeasureInterval,
	}
}

// wsConn serializes writes to one connection. gorilla/websocket allows a
// single concurrent writer only.
type wsConn struct {
	ws     *websocket.Conn
	outbox chan WSMessage
	// done closes when the reader is finished, stopped when the writer is.
	done    chan struct{}
	stopped chan struct{}
	log     *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc

	sizeMu    sync.Mutex
	size      models.BoardSize
	measuring atomic.Bool
}

func newWSConn(ws *websocket.Conn, log *zap.Logger) *wsConn {
	ctx, cancel := context.WithCancel(context.Background())
	return &wsConn{
		ws:      ws,
		outbox:  make(chan WSMessage, wsOutboxDepth),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
		log:     log,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// reportSize remembers the latest surface size seen in a client message.
func (c *wsConn) reportSize(width, height float64) {
	c.sizeMu.Lock()
	defer c.sizeMu.Unlock()
	c.size = models.BoardSize{Width: width, Height: height}
}

func (c *wsConn) reportedSize() (float64, float64) {
	c.sizeMu.Lock()
	defer c.sizeMu.Unlock()
	return c.size.Width, c.size.Height
}

func (c *wsConn) send(msgType string, payload interface{}) {
	msg := WSMessage{Type: msgType, Payload: mustJSON(payload), Timestamp: time.Now().UnixMilli()}
	select {
	case c.outbox <- msg:
	case <-c.done:
	case <-c.stopped:
	}
}

func (c *wsConn) sendError(message, code string) {
	c.send(MsgTypeError, WSErrorResponse{Message: message, Code: code})
}

// writeLoop owns the connection's write side until done closes.
func (c *wsConn) writeLoop(frames <-chan whiteboard.Frame) {
	defer close(c.stopped)
	for {
		var msg WSMessage
		select {
		case <-c.done:
			return
		case m := <-c.outbox:
			msg = m
		case f, ok := <-frames:
			if !ok {
				// session went away
				_ = c.ws.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "board closed"),
					time.Now().Add(wsWriteWait))
				c.ws.Close()
				return
			}
			msg = WSMessage{Type: MsgTypeFrame, Payload: mustJSON(f), Timestamp: time.Now().UnixMilli()}
		}

		_ = c.ws.SetWriteDeadline(time.Now().Add(wsWriteWait))
		if err := c.ws.WriteJSON(msg); err != nil {
			c.log.Debug("Failed to send message", zap.Error(err))
			c.ws.Close()
			return
		}
	}
}

// HandleWebSocket upgrades the connection and runs the board protocol
func (wsh *WebSocketHandler) HandleWebSocket(c echo.Context) error {
	id := c.Param("id")
	s, err := wsh.sessions.Get(id)
	if err != nil {
		return boardError(id, err)
	}

	ws, err := wsh.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer ws.Close()

	log := wsh.log.With(zap.String("session", shortID(s.ID)))
	log.Info("Client connected")

	frames, unsubscribe := s.Subscribe()
	defer unsubscribe()

	conn := newWSConn(ws, log)
	go conn.writeLoop(frames)
	defer func() {
		conn.cancel()
		close(conn.done)
		<-conn.stopped
	}()

	conn.send(MsgTypeConnected, ConnectedPayload{BoardID: s.ID, AnchorID: s.AnchorID, Mobile: s.Board.IsMobile()})
	s.Publish()

	for {
		var msg WSMessage
		if err := ws.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("Connection error", zap.Error(err))
			}
			break
		}
		wsh.sessions.Touch(s.ID)
		wsh.dispatch(conn, s, msg)
	}

	log.Info("Client disconnected")
	return nil
}

// dispatch applies one client message to the board. Messages are handled
// in read order.
func (wsh *WebSocketHandler) dispatch(conn *wsConn, s *session.BoardSession, msg WSMessage) {
	switch msg.Type {
	case MsgTypePing:
		conn.send(MsgTypePong, nil)

	case MsgTypePointerDown, MsgTypePointerMove:
		var p PointerPayload
		if !decodePayload(conn, msg, &p) {
			return
		}
		if p.Rect.Width > 0 && p.Rect.Height > 0 {
			conn.reportSize(p.Rect.Width, p.Rect.Height)
		}
		var changed bool
		if msg.Type == MsgTypePointerDown {
			changed = s.Board.PointerDown(p.Event, p.Rect)
		} else {
			changed = s.Board.PointerMove(p.Event, p.Rect)
		}
		if changed {
			s.Publish()
		}

	case MsgTypePointerUp, MsgTypePointerCancel, MsgTypePointerLost:
		var p PointerEndPayload
		if !decodePayload(conn, msg, &p) {
			return
		}
		var path *models.DrawPath
		var committed bool
		switch msg.Type {
		case MsgTypePointerUp:
			path, committed = s.Board.PointerUp(p.PointerID)
		case MsgTypePointerCancel:
			path, committed = s.Board.PointerCancel(p.PointerID)
		default:
			path, committed = s.Board.LostCapture(p.PointerID)
		}
		wsh.finishStroke(conn, s, path, committed)

	case MsgTypeWindowBlur:
		path, committed := s.Board.Blur()
		wsh.finishStroke(conn, s, path, committed)

	case MsgTypeMeasure:
		var p MeasurePayload
		if !decodePayload(conn, msg, &p) {
			return
		}
		conn.reportSize(p.Width, p.Height)
		if !measureBoard(s, p.Width, p.Height) {
			if _, locked := s.Board.LayoutSize(); !locked {
				wsh.retryMeasure(conn, s)
			}
		}

	case MsgTypeToolSelect:
		var p ToolPayload
		if !decodePayload(conn, msg, &p) {
			return
		}
		path, committed := s.Board.SelectTool(p.ToolID, p.Color)
		wsh.finishStroke(conn, s, path, committed)

	case MsgTypeRevealSkip:
		skipped := s.Skip()
		conn.send(MsgTypeSkipHandled, SkipPayload{Skipped: skipped})
		s.Publish()

	case MsgTypeKeyDown:
		var p KeyPayload
		if !decodePayload(conn, msg, &p) {
			return
		}
		action := s.Navigator.HandleKey(p.Event, p.ViewportWidth, p.ScrollY, p.Slides)
		conn.send(MsgTypeKeyAction, action)
		if action.Skipped {
			s.Publish()
		}

	default:
		conn.sendError("Unknown message type: "+msg.Type, "INVALID_TYPE")
	}
}

// retryMeasure polls the sizes the client reports until the board becomes
// measurable. A surface that is not laid out yet reports zero, and a later
// measure or pointer message usually carries the real size.
func (wsh *WebSocketHandler) retryMeasure(conn *wsConn, s *session.BoardSession) {
	if !conn.measuring.CompareAndSwap(false, true) {
		return
	}
	go func() {
		defer conn.measuring.Store(false)
		ok, err := s.Board.MeasureWithRetry(conn.ctx, conn.reportedSize, wsh.measureAttempts, wsh.measureInterval)
		if err != nil {
			return
		}
		if !ok {
			conn.log.Warn("Board surface never became measurable", zap.Int("attempts", wsh.measureAttempts))
			conn.sendError("Board surface has no size", "NOT_MEASURABLE")
			return
		}
		s.StartPlayback()
		s.Publish()
	}()
}

// finishStroke reports a committed stroke and repaints, since a live
// stroke may have been discarded without committing.
func (wsh *WebSocketHandler) finishStroke(conn *wsConn, s *session.BoardSession, path *models.DrawPath, committed bool) {
	if committed && path != nil {
		conn.send(MsgTypeCommitted, CommittedPayload{Path: *path})
	}
	s.Publish()
}

func decodePayload(conn *wsConn, msg WSMessage, v interface{}) bool {
	if err := json.Unmarshal(msg.Payload, v); err != nil {
		conn.sendError("Invalid "+msg.Type+" payload: "+err.Error(), "INVALID_PAYLOAD")
		return false
	}
	return true
}

func mustJSON(v interface{}) json.RawMessage {
	if v == nil {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return []byte("{}")
	}
	return data
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
