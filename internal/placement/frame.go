// Package placement maps normalized drawings onto a board and keeps the
// locked layout geometry that all live drawing is expressed in.
package placement

import (
	"math"

	"github.com/inkboard/backend/internal/models"
)

// Frame is the pixel rectangle a preset is drawn into.
type Frame struct {
	OriginX float64 `json:"originX"`
	OriginY float64 `json:"originY"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
}

const (
	minAspectRatio = 0.1
	maxAspectRatio = 10
)

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// ResolveFrame centers a preset horizontally on the board at the configured
// vertical offset and height. It returns false when nothing can be drawn.
func ResolveFrame(board models.BoardSize, isMobile bool, preset *models.DrawingPreset, p models.PlacementConfig) (Frame, bool) {
	if preset == nil || !finite(preset.AspectRatio) {
		return Frame{}, false
	}

	boardW := math.Max(board.Width, 1)
	boardH := math.Max(board.Height, 1)
	heightPct := math.Max(0, p.HeightPct.Resolve(isMobile))
	targetH := boardH * heightPct / 100
	if !(targetH > 0) {
		return Frame{}, false
	}

	targetW := targetH * clamp(preset.AspectRatio, minAspectRatio, maxAspectRatio)
	return Frame{
		OriginX: (boardW - targetW) / 2,
		OriginY: boardH * p.YPct.Resolve(isMobile) / 100,
		Width:   targetW,
		Height:  targetH,
	}, true
}

// MapPoints projects normalized strokes into the frame. Strokes with fewer
// than two points are dropped and pressure is clamped to [0, 1].
func MapPoints(preset *models.DrawingPreset, f Frame) []models.Stroke {
	if preset == nil {
		return nil
	}

	groups := make([]models.Stroke, 0, len(preset.Strokes))
	for _, s := range preset.Strokes {
		if len(s) <= 1 {
			continue
		}
		mapped := make(models.Stroke, len(s))
		for i, p := range s {
			mapped[i] = models.Point{
				X:        f.OriginX + p.X*f.Width,
				Y:        f.OriginY + p.Y*f.Height,
				Pressure: clamp(p.Pressure, 0, 1),
			}
		}
		groups = append(groups, mapped)
	}
	return groups
}

// BuildPointGroups resolves the frame and maps the preset into it.
func BuildPointGroups(board models.BoardSize, isMobile bool, preset *models.DrawingPreset, p models.PlacementConfig) []models.Stroke {
	if preset == nil || len(preset.Strokes) == 0 {
		return nil
	}
	f, ok := ResolveFrame(board, isMobile, preset, p)
	if !ok {
		return nil
	}
	return MapPoints(preset, f)
}

// CountPoints sums the points across groups.
func CountPoints(groups []models.Stroke) int {
	total := 0
	for _, g := range groups {
		total += len(g)
	}
	return total
}

// IsMobile classifies a layout viewport width against the breakpoint.
func IsMobile(viewportWidth, breakpoint float64) bool {
	return viewportWidth <= breakpoint
}
