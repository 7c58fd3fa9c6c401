// Package whiteboard composes placement, playback, stroke rendering and
// live pointer input into one board.
package whiteboard

import (
	"reflect"
	"sync"

	"github.com/inkboard/backend/internal/models"
	"github.com/inkboard/backend/internal/placement"
	"github.com/inkboard/backend/internal/playback"
	"github.com/inkboard/backend/internal/stroke"
	"github.com/inkboard/backend/internal/surface"
)

// Defaults for board geometry.
const (
	DefaultMobileBreakpoint    = 768.0
	DefaultLayoutAspectRatio   = 16.0 / 10.0
	DefaultLayoutViewportWidth = 1200.0
	DefaultMaxMeasureAttempts  = 240
)

// Options configures a Board.
type Options struct {
	Presets []models.PresetConfig
	// LayoutViewportWidth classifies the board as mobile or desktop once,
	// at creation. Zero uses DefaultLayoutViewportWidth.
	LayoutViewportWidth float64
	MobileBreakpoint    float64
	LayoutAspectRatio   float64
	MinStrokeDistance   float64
	DefaultMarkerColor  string
	NewID               func() string
}

// Layout is a preset prepared for the locked board size.
type Layout struct {
	ID          string
	PointGroups []models.Stroke
	TotalPoints int
	Style       stroke.Options
	Timing      models.ResolvedTiming
	FillColor   string
	FillOpacity float64
}

// Board is one whiteboard instance.
type Board struct {
	mu sync.RWMutex

	isMobile bool
	aspect   float64

	presets []models.PresetConfig
	live    models.BoardSize
	locked  *models.BoardSize

	layouts    []Layout
	layoutSize models.BoardSize
	hasLayouts bool

	scheduler *playback.Scheduler
	surface   *surface.Surface
}

// New creates a board and prepares its presets against an unmeasured size.
func New(opts Options) *Board {
	if opts.LayoutViewportWidth <= 0 {
		opts.LayoutViewportWidth = DefaultLayoutViewportWidth
	}
	if opts.MobileBreakpoint <= 0 {
		opts.MobileBreakpoint = DefaultMobileBreakpoint
	}
	if opts.LayoutAspectRatio <= 0 {
		opts.LayoutAspectRatio = DefaultLayoutAspectRatio
	}

	mobile := placement.IsMobile(opts.LayoutViewportWidth, opts.MobileBreakpoint)
	b := &Board{
		isMobile:  mobile,
		aspect:    opts.LayoutAspectRatio,
		presets:   UniquePresets(opts.Presets),
		scheduler: playback.NewScheduler(),
		surface: surface.New(surface.Options{
			Mobile:            mobile,
			MinStrokeDistance: opts.MinStrokeDistance,
			DefaultColor:      opts.DefaultMarkerColor,
			NewID:             opts.NewID,
		}),
	}

	b.mu.Lock()
	b.refreshLayoutsLocked(true)
	b.mu.Unlock()
	return b
}

// UniquePresets drops presets without an id and later duplicates of an id.
func UniquePresets(presets []models.PresetConfig) []models.PresetConfig {
	seen := make(map[string]bool, len(presets))
	out := make([]models.PresetConfig, 0, len(presets))
	for _, p := range presets {
		if p.ID == "" || seen[p.ID] {
			continue
		}
		seen[p.ID] = true
		out = append(out, p)
	}
	return out
}

// IsMobile reports the viewport class fixed at creation.
func (b *Board) IsMobile() bool {
	return b.isMobile
}

// SetPresets replaces the registered presets and reports whether anything
// changed. Changed content always rebuilds the layouts; playback restarts
// only when the set of tracks differs, and play-once memory survives it.
func (b *Board) SetPresets(presets []models.PresetConfig) bool {
	next := UniquePresets(presets)

	b.mu.Lock()
	defer b.mu.Unlock()

	if reflect.DeepEqual(next, b.presets) {
		return false
	}
	b.presets = next
	b.refreshLayoutsLocked(true)
	return true
}

// Presets returns the registered presets.
func (b *Board) Presets() []models.PresetConfig {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]models.PresetConfig(nil), b.presets...)
}

// Measure records a live surface size. The first size of at least one
// pixel each way locks the layout to that height at the fixed aspect
// ratio. Changes smaller than half a pixel are ignored. It reports
// whether the surface is measurable.
func (b *Board) Measure(width, height float64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	measurable := width >= 1 && height >= 1
	if b.locked == nil && measurable {
		b.locked = &models.BoardSize{Width: height * b.aspect, Height: height}
	}
	if !placement.NearlyEqual(b.live.Width, width) || !placement.NearlyEqual(b.live.Height, height) {
		b.live = models.BoardSize{Width: width, Height: height}
	}

	b.refreshLayoutsLocked(false)
	return measurable
}

// LiveSize returns the last accepted live surface size.
func (b *Board) LiveSize() models.BoardSize {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.live
}

// LayoutSize returns the locked layout size, or the live size before the
// first successful measurement.
func (b *Board) LayoutSize() (models.BoardSize, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.layoutSizeLocked(), b.locked != nil
}

func (b *Board) layoutSizeLocked() models.BoardSize {
	if b.locked != nil {
		return *b.locked
	}
	return b.live
}

// Metrics returns the transform from layout space into the live surface.
func (b *Board) Metrics() placement.DrawLayerMetrics {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.metricsLocked()
}

func (b *Board) metricsLocked() placement.DrawLayerMetrics {
	return placement.ResolveDrawLayerMetrics(b.live, b.layoutSizeLocked())
}

// refreshLayoutsLocked rebuilds prepared layouts when the layout size
// changed or force is set. Playback restarts when the size changed or the
// tracks differ.
func (b *Board) refreshLayoutsLocked(force bool) {
	size := b.layoutSizeLocked()
	resized := !b.hasLayouts || size != b.layoutSize
	if !force && !resized {
		return
	}

	layouts := make([]Layout, 0, len(b.presets))
	for _, p := range b.presets {
		layouts = append(layouts, PrepareLayout(p, size, b.isMobile))
	}

	prev := tracksOf(b.layouts)
	next := tracksOf(layouts)
	b.layouts = layouts
	b.layoutSize = size
	b.hasLayouts = true
	if resized || !sameTracks(prev, next) {
		b.scheduler.Reset(next)
	}
}

// sameTracks compares tracks as a set keyed by id.
func sameTracks(a, b []playback.Track) bool {
	if len(a) != len(b) {
		return false
	}
	byID := make(map[string]playback.Track, len(a))
	for _, t := range a {
		byID[t.ID] = t
	}
	for _, t := range b {
		if prev, ok := byID[t.ID]; !ok || prev != t {
			return false
		}
	}
	return true
}

func tracksOf(layouts []Layout) []playback.Track {
	tracks := make([]playback.Track, 0, len(layouts))
	for _, l := range layouts {
		tracks = append(tracks, playback.Track{ID: l.ID, TotalPoints: l.TotalPoints, Timing: l.Timing})
	}
	return tracks
}

// PrepareLayout maps one preset into pixel space for a board size.
func PrepareLayout(p models.PresetConfig, size models.BoardSize, mobile bool) Layout {
	groups := placement.BuildPointGroups(size, mobile, p.Data, p.Placement)
	opacity := surface.DrawingFillOpacity
	if p.FillOpacity != nil {
		opacity = *p.FillOpacity
	}
	return Layout{
		ID:          p.ID,
		PointGroups: groups,
		TotalPoints: placement.CountPoints(groups),
		Style:       stroke.ResolvePresetOptions(p.StrokeStyle, mobile),
		Timing:      playback.ResolveTimingConfig(p.Timing),
		FillColor:   p.FillColor,
		FillOpacity: opacity,
	}
}

// Layouts returns the prepared preset layouts.
func (b *Board) Layouts() []Layout {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]Layout(nil), b.layouts...)
}

// Step advances preset playback to nowMs; it satisfies playback.Stepper.
func (b *Board) Step(nowMs float64) bool {
	return b.scheduler.Step(nowMs)
}

// Running reports whether any preset is still revealing.
func (b *Board) Running() bool {
	return b.scheduler.Running()
}

// Skip starts every pending preset reveal immediately.
func (b *Board) Skip() int {
	return b.scheduler.Skip()
}

// Playback returns a snapshot of the preset animation state.
func (b *Board) Playback() playback.State {
	return b.scheduler.Snapshot()
}

// SelectTool forwards a tool choice to the drawing surface.
func (b *Board) SelectTool(toolID, markerColor string) (*models.DrawPath, bool) {
	return b.surface.SelectTool(toolID, markerColor)
}

// ToolID returns the selected tool.
func (b *Board) ToolID() string {
	return b.surface.ToolID()
}

// DrawingEnabled reports whether pointer input may start strokes.
func (b *Board) DrawingEnabled() bool {
	return b.surface.Enabled()
}

// PointerDown starts a live stroke using the current transform.
func (b *Board) PointerDown(ev surface.PointerEvent, rect surface.Rect) bool {
	return b.surface.PointerDown(ev, rect, b.Metrics())
}

// PointerMove extends the live stroke.
func (b *Board) PointerMove(ev surface.PointerEvent, rect surface.Rect) bool {
	return b.surface.PointerMove(ev, rect, b.Metrics())
}

// PointerUp finalizes the live stroke.
func (b *Board) PointerUp(pointerID int) (*models.DrawPath, bool) {
	return b.surface.PointerUp(pointerID)
}

// PointerCancel finalizes the live stroke.
func (b *Board) PointerCancel(pointerID int) (*models.DrawPath, bool) {
	return b.surface.PointerCancel(pointerID)
}

// LostCapture finalizes the live stroke.
func (b *Board) LostCapture(pointerID int) (*models.DrawPath, bool) {
	return b.surface.LostCapture(pointerID)
}

// Blur finalizes the live stroke when the client window loses focus.
func (b *Board) Blur() (*models.DrawPath, bool) {
	return b.surface.Blur()
}

// Committed returns the committed user strokes.
func (b *Board) Committed() []models.DrawPath {
	return b.surface.Committed()
}

// EstimateIntroDurationMs predicts how long a preset takes to reveal.
func EstimateIntroDurationMs(p models.PresetConfig) float64 {
	return playback.EstimateIntroDurationMs(p)
}

// RevealSequenceDurationMs is the longest of baseMs and every preset intro.
func RevealSequenceDurationMs(presets []models.PresetConfig, baseMs float64) float64 {
	return playback.RevealSequenceDurationMs(baseMs, presets)
}
