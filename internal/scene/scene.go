// Package scene loads the board scene: the sections a visitor scrolls
// through, each with staggered text rows and the drawings revealed on it.
package scene

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/inkboard/backend/internal/models"
	"github.com/inkboard/backend/internal/playback"
	"github.com/inkboard/backend/internal/reveal"
	"github.com/inkboard/backend/internal/storage"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// ErrNoSections is returned for a scene without any section.
var ErrNoSections = errors.New("scene has no sections")

// Section is one scroll stop of the scene.
type Section struct {
	AnchorID     string                `json:"anchorId" yaml:"anchorId"`
	BaseRevealMs float64               `json:"baseRevealMs,omitempty" yaml:"baseRevealMs,omitempty"`
	Slide        reveal.SlideConfig    `json:"slide" yaml:"slide"`
	Presets      []models.PresetConfig `json:"presets" yaml:"presets"`
}

// Scene is the parsed scene file.
type Scene struct {
	RowDurationMs float64   `json:"rowDurationMs,omitempty" yaml:"rowDurationMs,omitempty"`
	Sections      []Section `json:"sections" yaml:"sections"`
}

// emptyDrawing stands in for assets that could not be loaded.
func emptyDrawing() *models.DrawingPreset {
	return &models.DrawingPreset{Version: models.CurrentPresetVersion, AspectRatio: 1}
}

// Load reads a scene file and resolves its drawing assets through store.
func Load(path string, store storage.PresetStore, log *zap.Logger) (*Scene, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening scene: %w", err)
	}
	defer f.Close()
	return Parse(f, store, log)
}

// Parse decodes a scene and resolves its assets. Assets that are missing
// or invalid are logged and replaced by an empty drawing so the rest of
// the scene still renders.
func Parse(r io.Reader, store storage.PresetStore, log *zap.Logger) (*Scene, error) {
	var sc Scene
	if err := yaml.NewDecoder(r).Decode(&sc); err != nil {
		return nil, fmt.Errorf("decoding scene: %w", err)
	}
	if len(sc.Sections) == 0 {
		return nil, ErrNoSections
	}
	if sc.RowDurationMs <= 0 {
		sc.RowDurationMs = reveal.DefaultRowDurationMs
	}

	seen := make(map[string]bool, len(sc.Sections))
	for i := range sc.Sections {
		sec := &sc.Sections[i]
		if sec.AnchorID == "" {
			return nil, fmt.Errorf("section %d: missing anchorId", i)
		}
		if seen[sec.AnchorID] {
			return nil, fmt.Errorf("section %d: duplicate anchorId %q", i, sec.AnchorID)
		}
		seen[sec.AnchorID] = true
		if sec.Slide.ID == "" {
			sec.Slide.ID = sec.AnchorID
		}

		for j := range sec.Presets {
			resolveAsset(&sec.Presets[j], store, log.With(zap.String("section", sec.AnchorID)))
		}
	}
	return &sc, nil
}

func resolveAsset(p *models.PresetConfig, store storage.PresetStore, log *zap.Logger) {
	if p.Data != nil {
		if err := p.Data.Validate(); err != nil {
			log.Warn("Inline drawing is invalid, rendering nothing", zap.String("preset", p.ID), zap.Error(err))
			p.Data = emptyDrawing()
		}
		return
	}

	if p.DataFile == "" {
		log.Warn("Preset has no drawing data", zap.String("preset", p.ID))
		p.Data = emptyDrawing()
		return
	}

	d, err := store.Get(storage.IDFromFile(p.DataFile))
	if err != nil {
		log.Warn("Could not load drawing asset, rendering nothing",
			zap.String("preset", p.ID),
			zap.String("file", p.DataFile),
			zap.Error(err))
		p.Data = emptyDrawing()
		return
	}
	p.Data = d
}

// Section looks up a section by anchor. An empty anchor selects the first.
func (s *Scene) Section(anchorID string) (*Section, bool) {
	if anchorID == "" && len(s.Sections) > 0 {
		return &s.Sections[0], true
	}
	for i := range s.Sections {
		if s.Sections[i].AnchorID == anchorID {
			return &s.Sections[i], true
		}
	}
	return nil, false
}

// Presets returns the presets of a section.
func (s *Scene) Presets(anchorID string) []models.PresetConfig {
	sec, ok := s.Section(anchorID)
	if !ok {
		return nil
	}
	return sec.Presets
}

// IntroDurationMs is how long the section's entrance takes: the longer of
// its row sequence and every drawing reveal.
func (s *Scene) IntroDurationMs(anchorID string) float64 {
	sec, ok := s.Section(anchorID)
	if !ok {
		return 0
	}
	rows := reveal.EstimateSlideDurationMs(sec.Slide, s.RowDurationMs)
	return playback.RevealSequenceDurationMs(max(rows, sec.BaseRevealMs), sec.Presets)
}

// UsersOf returns the anchors of sections whose presets load the asset id
// from the store.
func (s *Scene) UsersOf(assetID string) []string {
	var anchors []string
	for _, sec := range s.Sections {
		for _, p := range sec.Presets {
			if p.DataFile != "" && storage.IDFromFile(p.DataFile) == assetID {
				anchors = append(anchors, sec.AnchorID)
				break
			}
		}
	}
	return anchors
}

// Next returns the anchor after anchorID, or "" for the last section.
func (s *Scene) Next(anchorID string) string {
	for i := range s.Sections {
		if s.Sections[i].AnchorID == anchorID && i+1 < len(s.Sections) {
			return s.Sections[i+1].AnchorID
		}
	}
	return ""
}
