// routes.go - Route registration helpers
// This file provides a clean way to register all API routes
package api

import (
	"github.com/inkboard/backend/internal/session"
	"github.com/inkboard/backend/internal/storage"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Dependencies holds all handler dependencies
type Dependencies struct {
	Store      storage.PresetStore
	SessionMgr *session.Manager
	Scenes     SceneProvider
	Log        *zap.Logger
	Version    string
	// AllowPresetWrites enables upload and delete of drawing assets
	AllowPresetWrites bool
}

// Handlers holds all handler instances
type Handlers struct {
	Health    HealthHandler
	Preset    PresetHandler
	Scene     SceneHandler
	Board     BoardHandler
	WebSocket *WebSocketHandler

	allowPresetWrites bool
}

// NewHandlers creates all handler instances
func NewHandlers(deps *Dependencies) *Handlers {
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &Handlers{
		Health:            NewHealthHandler(deps.Version, deps.SessionMgr, deps.Scenes),
		Preset:            NewPresetHandler(deps.Store, deps.Scenes, log.Named("presets")),
		Scene:             NewSceneHandler(deps.Scenes),
		Board:             NewBoardHandler(deps.SessionMgr, deps.Scenes, log.Named("boards")),
		WebSocket:         NewWebSocketHandler(deps.SessionMgr, log),
		allowPresetWrites: deps.AllowPresetWrites,
	}
}

// RegisterRoutes registers all API routes with the Echo instance
func RegisterRoutes(e *echo.Echo, handlers *Handlers) {
	api := e.Group("/api")

	// Health check
	api.GET("/health", handlers.Health.HandleHealth)

	// Drawing assets
	presets := api.Group("/presets")
	presets.GET("", handlers.Preset.HandleListPresets)
	presets.GET("/:id", handlers.Preset.HandleGetPreset)
	presets.GET("/:id/intro", handlers.Preset.HandlePresetIntro)
	if handlers.allowPresetWrites {
		presets.POST("/:id", handlers.Preset.HandleSavePreset)
		presets.DELETE("/:id", handlers.Preset.HandleDeletePreset)
	}

	// Scene
	api.GET("/scene", handlers.Scene.HandleGetScene)

	// Board sessions
	boards := api.Group("/boards")
	boards.POST("", handlers.Board.HandleCreateBoard)
	boards.GET("", handlers.Board.HandleListBoards)
	boards.GET("/:id", handlers.Board.HandleGetBoard)
	boards.DELETE("/:id", handlers.Board.HandleDeleteBoard)
	boards.POST("/:id/measure", handlers.Board.HandleMeasure)
	boards.POST("/:id/skip", handlers.Board.HandleSkip)
	boards.POST("/:id/tool", handlers.Board.HandleSelectTool)
	boards.POST("/:id/key", handlers.Board.HandleKey)
	boards.GET("/:id/frame", handlers.Board.HandleGetFrame)
	boards.GET("/:id/frame.svg", handlers.Board.HandleGetFrameSVG)
	boards.GET("/:id/frame/msgpack", handlers.Board.HandleGetFrameMsgpack)

	RegisterWebSocketRoutes(e, handlers)
}

// RegisterWebSocketRoutes registers WebSocket routes
func RegisterWebSocketRoutes(e *echo.Echo, handlers *Handlers) {
	e.GET("/api/ws/boards/:id", handlers.WebSocket.HandleWebSocket)
}

// SetupMiddleware configures common middleware
func SetupMiddleware(e *echo.Echo, development bool, log *zap.Logger) {
	e.HTTPErrorHandler = ErrorHandler(development, log)
}
