// interfaces.go - Handler interface definitions for clean separation of concerns
package api

import (
	"github.com/inkboard/backend/internal/scene"
	"github.com/labstack/echo/v4"
)

// HealthHandler handles health check operations
type HealthHandler interface {
	HandleHealth(c echo.Context) error
}

// PresetHandler handles drawing asset operations
type PresetHandler interface {
	HandleListPresets(c echo.Context) error
	HandleGetPreset(c echo.Context) error
	HandleSavePreset(c echo.Context) error
	HandleDeletePreset(c echo.Context) error
	HandlePresetIntro(c echo.Context) error
}

// SceneHandler exposes the loaded scene
type SceneHandler interface {
	HandleGetScene(c echo.Context) error
}

// BoardHandler handles board session operations
type BoardHandler interface {
	HandleCreateBoard(c echo.Context) error
	HandleListBoards(c echo.Context) error
	HandleGetBoard(c echo.Context) error
	HandleDeleteBoard(c echo.Context) error
	HandleMeasure(c echo.Context) error
	HandleSkip(c echo.Context) error
	HandleSelectTool(c echo.Context) error
	HandleKey(c echo.Context) error
	HandleGetFrame(c echo.Context) error
	HandleGetFrameSVG(c echo.Context) error
	HandleGetFrameMsgpack(c echo.Context) error
}

// SceneProvider returns the current scene. It may return nil when no
// scene is configured.
type SceneProvider interface {
	Scene() *scene.Scene
}

var _ SceneProvider = (*scene.Holder)(nil)
