// handlers_health.go - Health check handlers
package api

import (
	"net/http"

	"github.com/inkboard/backend/internal/session"
	"github.com/labstack/echo/v4"
)

// HealthHandlerImpl implements the HealthHandler interface
type HealthHandlerImpl struct {
	version  string
	sessions *session.Manager
	scenes   SceneProvider
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(version string, sessions *session.Manager, scenes SceneProvider) HealthHandler {
	return &HealthHandlerImpl{
		version:  version,
		sessions: sessions,
		scenes:   scenes,
	}
}

// HandleHealth returns server health status
func (h *HealthHandlerImpl) HandleHealth(c echo.Context) error {
	resp := map[string]interface{}{
		"status":  "ok",
		"version": h.version,
	}
	if h.sessions != nil {
		resp["boards"] = h.sessions.Count()
	}
	if h.scenes != nil {
		resp["sceneLoaded"] = h.scenes.Scene() != nil
	}
	return c.JSON(http.StatusOK, resp)
}
