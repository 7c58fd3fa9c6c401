// handlers_scene.go - Scene handlers
package api

import (
	"net/http"

	"github.com/inkboard/backend/internal/reveal"
	"github.com/labstack/echo/v4"
)

// SceneHandlerImpl implements the SceneHandler interface
type SceneHandlerImpl struct {
	scenes SceneProvider
}

// NewSceneHandler creates a new scene handler
func NewSceneHandler(scenes SceneProvider) SceneHandler {
	return &SceneHandlerImpl{scenes: scenes}
}

type sectionSummary struct {
	AnchorID        string             `json:"anchorId"`
	Next            string             `json:"next,omitempty"`
	Slide           reveal.SlideConfig `json:"slide"`
	Presets         []string           `json:"presets"`
	IntroDurationMs float64            `json:"introDurationMs"`
}

// HandleGetScene returns the sections of the current scene without their
// drawing data
func (h *SceneHandlerImpl) HandleGetScene(c echo.Context) error {
	sc := h.scenes.Scene()
	if sc == nil {
		return NewServiceUnavailableError("no scene loaded")
	}

	sections := make([]sectionSummary, 0, len(sc.Sections))
	for _, sec := range sc.Sections {
		ids := make([]string, 0, len(sec.Presets))
		for _, p := range sec.Presets {
			ids = append(ids, p.ID)
		}
		sections = append(sections, sectionSummary{
			AnchorID:        sec.AnchorID,
			Next:            sc.Next(sec.AnchorID),
			Slide:           sec.Slide,
			Presets:         ids,
			IntroDurationMs: sc.IntroDurationMs(sec.AnchorID),
		})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"rowDurationMs": sc.RowDurationMs,
		"sections":      sections,
	})
}
