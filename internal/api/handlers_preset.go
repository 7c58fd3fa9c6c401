// handlers_preset.go - Drawing asset handlers
package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/inkboard/backend/internal/models"
	"github.com/inkboard/backend/internal/playback"
	"github.com/inkboard/backend/internal/storage"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const defaultPresetListLimit = 100

// PresetHandlerImpl implements the PresetHandler interface
type PresetHandlerImpl struct {
	store  storage.PresetStore
	scenes SceneProvider
	log    *zap.Logger
}

// NewPresetHandler creates a new preset handler
func NewPresetHandler(store storage.PresetStore, scenes SceneProvider, log *zap.Logger) PresetHandler {
	return &PresetHandlerImpl{store: store, scenes: scenes, log: log}
}

// HandleListPresets returns stored assets, most recently updated first
func (h *PresetHandlerImpl) HandleListPresets(c echo.Context) error {
	limit := defaultPresetListLimit
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return NewValidationError("limit")
		}
		limit = n
	}

	list, err := h.store.List(limit)
	if err != nil {
		return NewInternalError("failed to list presets", err)
	}
	return c.JSON(http.StatusOK, list)
}

// HandleGetPreset returns one drawing asset
func (h *PresetHandlerImpl) HandleGetPreset(c echo.Context) error {
	id := c.Param("id")
	d, err := h.store.Get(id)
	if err != nil {
		return presetError(id, err)
	}
	return c.JSON(http.StatusOK, d)
}

// HandleSavePreset stores the request body as a drawing asset
func (h *PresetHandlerImpl) HandleSavePreset(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return NewValidationError("id")
	}

	info, err := h.store.Save(id, c.Request().Body)
	if err != nil {
		return presetError(id, err)
	}

	h.log.Info("Preset saved",
		zap.String("preset", id),
		zap.Int("strokes", info.StrokeCount),
		zap.Int("points", info.PointCount))
	return c.JSON(http.StatusCreated, info)
}

// HandleDeletePreset removes a drawing asset the loaded scene does not use
func (h *PresetHandlerImpl) HandleDeletePreset(c echo.Context) error {
	id := c.Param("id")
	if sc := h.scenes.Scene(); sc != nil {
		if users := sc.UsersOf(id); len(users) > 0 {
			return NewConflictError("preset " + id + " is used by section " + strings.Join(users, ", "))
		}
	}
	if err := h.store.Delete(id); err != nil {
		return presetError(id, err)
	}
	h.log.Info("Preset deleted", zap.String("preset", id))
	return c.NoContent(http.StatusNoContent)
}

// HandlePresetIntro estimates how long the asset takes to reveal. Timing
// fields may be overridden with query parameters of the same name.
func (h *PresetHandlerImpl) HandlePresetIntro(c echo.Context) error {
	id := c.Param("id")
	d, err := h.store.Get(id)
	if err != nil {
		return presetError(id, err)
	}

	timing := &models.TimingConfig{}
	fields := []struct {
		name string
		dst  **float64
	}{
		{"pointDurationMs", &timing.PointDurationMs},
		{"minDurationMs", &timing.MinDurationMs},
		{"maxDurationMs", &timing.MaxDurationMs},
		{"easeRampRatio", &timing.EaseRampRatio},
		{"delayMs", &timing.DelayMs},
	}
	for _, f := range fields {
		v := c.QueryParam(f.name)
		if v == "" {
			continue
		}
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return NewValidationError(f.name)
		}
		*f.dst = &n
	}

	cfg := models.PresetConfig{ID: id, Data: d, Timing: timing}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"id":              id,
		"drawablePoints":  playback.DrawablePointCount(d),
		"timing":          playback.ResolveTimingConfig(timing),
		"introDurationMs": playback.EstimateIntroDurationMs(cfg),
	})
}
