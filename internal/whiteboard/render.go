package whiteboard

import (
	"github.com/inkboard/backend/internal/models"
	"github.com/inkboard/backend/internal/playback"
	"github.com/inkboard/backend/internal/stroke"
)

// Layer names, back to front.
const (
	LayerPresets   = "presets"
	LayerCommitted = "committed"
	LayerLive      = "live"
)

// LiveStrokeID names the path of the stroke in progress.
const LiveStrokeID = "live"

// Layer is one stacking level of a rendered frame.
type Layer struct {
	Name string `json:"name" msgpack:"name"`
	// Presets is only set on the presets layer.
	Presets []models.PresetLayer `json:"presets,omitempty" msgpack:"presets,omitempty"`
	Paths   []models.DrawPath    `json:"paths,omitempty" msgpack:"paths,omitempty"`
}

// Frame is everything a client needs to paint the board once.
type Frame struct {
	Width     float64 `json:"width" msgpack:"width"`
	Height    float64 `json:"height" msgpack:"height"`
	Transform string  `json:"transform,omitempty" msgpack:"transform,omitempty"`
	Layers    []Layer `json:"layers" msgpack:"layers"`
	Running   bool    `json:"running" msgpack:"running"`
}

// Render draws the current state. Presets with nothing visible are left
// out; the committed and live layers are always present.
func (b *Board) Render() Frame {
	return b.render(b.scheduler)
}

// RenderAt renders the board as it looks elapsedMs after playback starts,
// without touching the live playback. Play-once memory is not applied.
func (b *Board) RenderAt(elapsedMs float64) Frame {
	b.mu.RLock()
	tracks := tracksOf(b.layouts)
	b.mu.RUnlock()

	s := playback.NewScheduler()
	s.Reset(tracks)
	s.Step(0)
	s.Step(max(elapsedMs, 0))
	return b.render(s)
}

func (b *Board) render(s *playback.Scheduler) Frame {
	b.mu.RLock()
	layouts := b.layouts
	live := b.live
	metrics := b.metricsLocked()
	b.mu.RUnlock()

	presets := make([]models.PresetLayer, 0, len(layouts))
	for _, l := range layouts {
		paths := stroke.BuildPathsFromPointProgress(l.PointGroups, s.Visible(l.ID), l.Style)
		if len(paths) == 0 {
			continue
		}
		presets = append(presets, models.PresetLayer{
			ID:          l.ID,
			FillColor:   l.FillColor,
			FillOpacity: l.FillOpacity,
			Paths:       paths,
		})
	}

	var livePaths []models.DrawPath
	if ls, d, ok := b.surface.Live(); ok && d != "" {
		livePaths = []models.DrawPath{{ID: LiveStrokeID, D: d, Color: ls.Color, FillOpacity: ls.FillOpacity}}
	}

	return Frame{
		Width:     live.Width,
		Height:    live.Height,
		Transform: metrics.Transform(),
		Layers: []Layer{
			{Name: LayerPresets, Presets: presets},
			{Name: LayerCommitted, Paths: b.surface.Committed()},
			{Name: LayerLive, Paths: livePaths},
		},
		Running: s.Running(),
	}
}

// Layer returns the named layer of the frame.
func (f Frame) Layer(name string) (Layer, bool) {
	for _, l := range f.Layers {
		if l.Name == name {
			return l, true
		}
	}
	return Layer{}, false
}
