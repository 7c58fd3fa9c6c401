// handlers_board.go - Board session handlers
package api

import (
	"bytes"
	"net/http"
	"strconv"
	"time"

	"github.com/inkboard/backend/internal/models"
	"github.com/inkboard/backend/internal/playback"
	"github.com/inkboard/backend/internal/reveal"
	"github.com/inkboard/backend/internal/session"
	"github.com/inkboard/backend/internal/signal"
	"github.com/inkboard/backend/internal/whiteboard"
	"github.com/labstack/echo/v4"
	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"
)

// BoardHandlerImpl implements the BoardHandler interface
type BoardHandlerImpl struct {
	sessions *session.Manager
	scenes   SceneProvider
	log      *zap.Logger
}

// NewBoardHandler creates a new board handler
func NewBoardHandler(sessions *session.Manager, scenes SceneProvider, log *zap.Logger) BoardHandler {
	return &BoardHandlerImpl{sessions: sessions, scenes: scenes, log: log}
}

type gateStatus struct {
	AnchorID   string `json:"anchorId"`
	InProgress bool   `json:"inProgress"`
	Skipped    bool   `json:"skipped"`
}

type viewportStatus struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Locked bool    `json:"locked"`
}

type boardResponse struct {
	ID             string            `json:"id"`
	AnchorID       string            `json:"anchorId,omitempty"`
	Mobile         bool              `json:"mobile"`
	ToolID         string            `json:"toolId,omitempty"`
	DrawingEnabled bool              `json:"drawingEnabled"`
	LiveSize       models.BoardSize  `json:"liveSize"`
	LayoutSize     models.BoardSize  `json:"layoutSize"`
	LayoutLocked   bool              `json:"layoutLocked"`
	Viewport       viewportStatus    `json:"viewport"`
	Rows           []reveal.RowState `json:"rows"`
	Playing        bool              `json:"playing"`
	Playback       playback.State    `json:"playback"`
	Gate           gateStatus        `json:"gate"`
	Subscribers    int               `json:"subscribers"`
	CreatedAt      time.Time         `json:"createdAt"`
	LastAccessed   time.Time         `json:"lastAccessed"`
}

func newBoardResponse(s *session.BoardSession) boardResponse {
	layout, locked := s.Board.LayoutSize()
	return boardResponse{
		ID:             s.ID,
		AnchorID:       s.AnchorID,
		Mobile:         s.Board.IsMobile(),
		ToolID:         s.Board.ToolID(),
		DrawingEnabled: s.Board.DrawingEnabled(),
		LiveSize:       s.Board.LiveSize(),
		LayoutSize:     layout,
		LayoutLocked:   locked,
		Viewport: viewportStatus{
			Width:  s.Viewport.Width(),
			Height: s.Viewport.Height(),
			Locked: s.Viewport.Locked(),
		},
		Rows:           s.Rows.Rows(),
		Playing:        s.Playing(),
		Playback:       s.Board.Playback(),
		Gate: gateStatus{
			AnchorID:   s.Gate.AnchorID(),
			InProgress: s.Gate.InProgress(),
			Skipped:    s.Gate.Skipped(),
		},
		Subscribers:  s.SubscriberCount(),
		CreatedAt:    s.CreatedAt,
		LastAccessed: s.LastAccessed(),
	}
}

// measureBoard records a surface size and starts playback once the
// surface is measurable.
func measureBoard(s *session.BoardSession, width, height float64) bool {
	ok := s.Board.Measure(width, height)
	if ok {
		s.StartPlayback()
	}
	s.Publish()
	return ok
}

func (h *BoardHandlerImpl) boardSession(c echo.Context) (*session.BoardSession, error) {
	id := c.Param("id")
	s, err := h.sessions.Get(id)
	if err != nil {
		return nil, boardError(id, err)
	}
	h.sessions.Touch(id)
	return s, nil
}

// HandleCreateBoard creates a board for a scene section
func (h *BoardHandlerImpl) HandleCreateBoard(c echo.Context) error {
	var req createBoardRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}
	if err := req.validate(); err != nil {
		return err
	}

	opts := session.CreateOptions{
		AnchorID:            req.AnchorID,
		ViewportWidth:       req.ViewportWidth,
		ViewportHeight:      req.ViewportHeight,
		LargeViewportHeight: req.LargeViewportHeight,
		ToolID:              req.ToolID,
		Color:               req.Color,
	}
	if sc := h.scenes.Scene(); sc != nil {
		sec, ok := sc.Section(req.AnchorID)
		if !ok {
			return NewNotFoundError("section", req.AnchorID)
		}
		opts.AnchorID = sec.AnchorID
		opts.Presets = sec.Presets
		opts.IntroDurationMs = sc.IntroDurationMs(sec.AnchorID)
		opts.Slide = sec.Slide
		opts.RowDurationMs = sc.RowDurationMs
	} else if req.AnchorID != "" {
		return NewNotFoundError("section", req.AnchorID)
	}

	s, err := h.sessions.Create(opts)
	if err != nil {
		return boardError("", err)
	}
	if req.Width > 0 && req.Height > 0 {
		measureBoard(s, req.Width, req.Height)
	}

	return c.JSON(http.StatusCreated, newBoardResponse(s))
}

// HandleListBoards returns every live board, most recently used first
func (h *BoardHandlerImpl) HandleListBoards(c echo.Context) error {
	list := h.sessions.List()
	out := make([]boardResponse, 0, len(list))
	for _, s := range list {
		out = append(out, newBoardResponse(s))
	}
	return c.JSON(http.StatusOK, out)
}

// HandleGetBoard returns the state of one board
func (h *BoardHandlerImpl) HandleGetBoard(c echo.Context) error {
	s, err := h.boardSession(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newBoardResponse(s))
}

// HandleDeleteBoard stops and removes a board
func (h *BoardHandlerImpl) HandleDeleteBoard(c echo.Context) error {
	id := c.Param("id")
	if err := h.sessions.Delete(id); err != nil {
		return boardError(id, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// HandleMeasure reports the live surface size
func (h *BoardHandlerImpl) HandleMeasure(c echo.Context) error {
	s, err := h.boardSession(c)
	if err != nil {
		return err
	}
	var req measureRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}

	measurable := measureBoard(s, req.Width, req.Height)
	layout, locked := s.Board.LayoutSize()
	return c.JSON(http.StatusOK, map[string]interface{}{
		"measurable":   measurable,
		"liveSize":     s.Board.LiveSize(),
		"layoutSize":   layout,
		"layoutLocked": locked,
		"transform":    s.Board.Metrics().Transform(),
	})
}

// HandleSkip finishes the board's entrance
func (h *BoardHandlerImpl) HandleSkip(c echo.Context) error {
	s, err := h.boardSession(c)
	if err != nil {
		return err
	}
	skipped := s.Skip()
	s.Publish()
	return c.JSON(http.StatusOK, map[string]interface{}{
		"skipped":  skipped,
		"playback": s.Board.Playback(),
	})
}

// HandleSelectTool switches the drawing tool
func (h *BoardHandlerImpl) HandleSelectTool(c echo.Context) error {
	s, err := h.boardSession(c)
	if err != nil {
		return err
	}
	var req selectToolRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}

	committed, _ := s.Board.SelectTool(req.ToolID, req.Color)
	s.Publish()
	return c.JSON(http.StatusOK, map[string]interface{}{
		"toolId":         s.Board.ToolID(),
		"drawingEnabled": s.Board.DrawingEnabled(),
		"committed":      committed,
	})
}

// HandleKey decides how a navigation key press is handled
func (h *BoardHandlerImpl) HandleKey(c echo.Context) error {
	s, err := h.boardSession(c)
	if err != nil {
		return err
	}
	var req keyRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}

	action := s.Navigator.HandleKey(req.Event, req.ViewportWidth, req.ScrollY, req.Slides)
	if action.Skipped {
		s.Publish()
	}
	return c.JSON(http.StatusOK, action)
}

// frame renders the board now, or at ?t= milliseconds into playback.
func (h *BoardHandlerImpl) frame(c echo.Context) (whiteboard.Frame, error) {
	s, err := h.boardSession(c)
	if err != nil {
		return whiteboard.Frame{}, err
	}
	v := c.QueryParam("t")
	if v == "" {
		return s.Board.Render(), nil
	}
	t, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return whiteboard.Frame{}, NewValidationError("t")
	}
	return s.Board.RenderAt(t), nil
}

// HandleGetFrame returns the rendered frame as JSON
func (h *BoardHandlerImpl) HandleGetFrame(c echo.Context) error {
	f, err := h.frame(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, f)
}

// HandleGetFrameSVG returns the rendered frame as standalone SVG markup
func (h *BoardHandlerImpl) HandleGetFrameSVG(c echo.Context) error {
	f, err := h.frame(c)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := whiteboard.WriteSVG(&buf, f); err != nil {
		return NewInternalError("failed to render svg", err)
	}
	return c.Blob(http.StatusOK, "image/svg+xml", buf.Bytes())
}

// HandleGetFrameMsgpack returns the rendered frame in MessagePack format
func (h *BoardHandlerImpl) HandleGetFrameMsgpack(c echo.Context) error {
	f, err := h.frame(c)
	if err != nil {
		return err
	}
	data, err := msgpack.Marshal(f)
	if err != nil {
		return NewInternalError("failed to encode msgpack", err)
	}
	return c.Blob(http.StatusOK, "application/msgpack", data)
}

// Request types

type createBoardRequest struct {
	AnchorID            string  `json:"anchorId"`
	ViewportWidth       float64 `json:"viewportWidth"`
	ViewportHeight      float64 `json:"viewportHeight"`
	LargeViewportHeight float64 `json:"largeViewportHeight"`
	ToolID              string  `json:"toolId"`
	Color               string  `json:"color"`
	// Width and Height optionally measure the surface right away.
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (r *createBoardRequest) validate() error {
	if r.ViewportWidth < 0 {
		return NewValidationError("viewportWidth")
	}
	if r.Width < 0 {
		return NewValidationError("width")
	}
	if r.Height < 0 {
		return NewValidationError("height")
	}
	return nil
}

type measureRequest struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type selectToolRequest struct {
	ToolID string `json:"toolId"`
	Color  string `json:"color"`
}

type keyRequest struct {
	Event         signal.KeyEvent `json:"event"`
	ViewportWidth float64         `json:"viewportWidth"`
	ScrollY       float64         `json:"scrollY"`
	Slides        []signal.Slide  `json:"slides"`
}
