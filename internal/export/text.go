package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/inkboard/backend/internal/models"
)

// Defaults for Options.
const (
	DefaultText          = "hello"
	DefaultOutput        = "data/presets/hello.json"
	DefaultFontSize      = 128.0
	DefaultPressure      = 0.5
	DefaultSegmentLength = 1.8
)

var (
	// ErrEmptyText is returned when the text is blank.
	ErrEmptyText = errors.New("text cannot be empty")
	// ErrDegenerateBounds is returned when the strokes have no area.
	ErrDegenerateBounds = errors.New("strokes collapsed to zero width or height")
	// ErrNoStrokes is returned when no glyph produced a drawable stroke.
	ErrNoStrokes = errors.New("no drawable strokes were extracted")
)

// Options controls text layout. Spacing is in em.
type Options struct {
	Text             string
	Font             string
	FontSize         float64
	LetterSpacingEm  float64
	WordSpacingEm    float64
	Pressure         float64
	MaxSegmentLength float64
}

// DefaultOptions returns the exporter defaults.
func DefaultOptions() Options {
	return Options{
		Text:             DefaultText,
		Font:             DefaultFont,
		FontSize:         DefaultFontSize,
		Pressure:         DefaultPressure,
		MaxSegmentLength: DefaultSegmentLength,
	}
}

// Validate checks option ranges.
func (o Options) Validate() error {
	switch {
	case strings.TrimSpace(o.Text) == "":
		return ErrEmptyText
	case !finite(o.FontSize) || o.FontSize <= 0:
		return fmt.Errorf("invalid font size: %v", o.FontSize)
	case !finite(o.LetterSpacingEm) || o.LetterSpacingEm < 0:
		return fmt.Errorf("invalid letter spacing: %v", o.LetterSpacingEm)
	case !finite(o.WordSpacingEm) || o.WordSpacingEm < 0:
		return fmt.Errorf("invalid word spacing: %v", o.WordSpacingEm)
	case !finite(o.Pressure):
		return fmt.Errorf("invalid pressure: %v", o.Pressure)
	case !finite(o.MaxSegmentLength) || o.MaxSegmentLength <= 0:
		return fmt.Errorf("invalid segment length: %v", o.MaxSegmentLength)
	}
	return nil
}

// Result is an exported drawing and the font it was drawn with.
type Result struct {
	Preset       models.DrawingPreset
	Font         string
	ResolvedFont string
	// Missing lists characters the font has no glyph for, in first-seen
	// order. They advance the cursor without drawing.
	Missing []rune
}

// FromText lays out o.Text with its font and normalizes the strokes into
// a DrawingPreset.
func FromText(o Options) (*Result, error) {
	if o.Font == "" {
		o.Font = DefaultFont
	}
	if err := o.Validate(); err != nil {
		return nil, err
	}
	font, err := LoadFont(o.Font)
	if err != nil {
		return nil, err
	}

	strokes, missing, err := layoutText(font, o)
	if err != nil {
		return nil, err
	}
	preset, err := Normalize(strokes, o.Pressure)
	if err != nil {
		return nil, err
	}
	return &Result{Preset: *preset, Font: o.Font, ResolvedFont: font.Name, Missing: missing}, nil
}

// layoutText places glyph strokes along a baseline in output units.
func layoutText(font *Font, o Options) ([][]Point, []rune, error) {
	scale := o.FontSize / font.UnitsPerEm
	maxSegment := o.MaxSegmentLength / scale
	letterSpacing := o.LetterSpacingEm * font.UnitsPerEm
	wordSpacing := o.WordSpacingEm * font.UnitsPerEm

	runes := []rune(o.Text)
	var all [][]Point
	var missing []rune
	seen := make(map[rune]bool)
	var cursorX, cursorY float64

	for i, r := range runes {
		if r == '\n' {
			cursorX = 0
			cursorY += font.UnitsPerEm
			continue
		}

		advance := font.DefaultAdvance
		if g, ok := font.Glyph(r); ok {
			if g.Width > 0 {
				advance = g.Width
			}
			if strings.TrimSpace(g.D) != "" {
				strokes, err := ParseSingleLinePath(g.D, maxSegment)
				if err != nil {
					return nil, nil, fmt.Errorf("glyph %q: %w", string(r), err)
				}
				for _, s := range strokes {
					placed := make([]Point, len(s))
					for j, p := range s {
						y := p.Y
						if font.YUp() {
							y = font.UnitsPerEm - y
						}
						placed[j] = Point{X: (p.X + cursorX) * scale, Y: (y + cursorY) * scale}
					}
					all = append(all, placed)
				}
			}
		} else if !seen[r] {
			seen[r] = true
			missing = append(missing, r)
		}

		isSpace := r == ' '
		nextBreaks := i+1 >= len(runes) || runes[i+1] == '\n' || runes[i+1] == ' '
		if letterSpacing > 0 && !isSpace && !nextBreaks {
			advance += letterSpacing
		}
		if wordSpacing > 0 && isSpace {
			advance += wordSpacing
		}
		cursorX += advance
	}
	return all, missing, nil
}

// Normalize fits strokes into the unit square per axis. Coordinates and
// aspect ratio are rounded to six decimals and pressure is clamped to
// [0, 1].
func Normalize(strokes [][]Point, pressure float64) (*models.DrawingPreset, error) {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	kept := 0
	for _, s := range strokes {
		if len(s) < 2 {
			continue
		}
		kept++
		for _, p := range s {
			minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
			minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
		}
	}
	if kept == 0 {
		return nil, ErrNoStrokes
	}

	width, height := maxX-minX, maxY-minY
	if !(width > 0) || !(height > 0) {
		return nil, ErrDegenerateBounds
	}

	pressure = math.Min(1, math.Max(0, pressure))
	out := &models.DrawingPreset{
		Version:     models.CurrentPresetVersion,
		AspectRatio: round6(width / height),
		Strokes:     make([]models.Stroke, 0, kept),
	}
	for _, s := range strokes {
		if len(s) < 2 {
			continue
		}
		stroke := make(models.Stroke, len(s))
		for i, p := range s {
			stroke[i] = models.Point{
				X:        round6((p.X - minX) / width),
				Y:        round6((p.Y - minY) / height),
				Pressure: pressure,
			}
		}
		out.Strokes = append(out.Strokes, stroke)
	}
	return out, nil
}

// WriteJSON encodes a preset with two space indentation and a trailing
// newline.
func WriteJSON(w io.Writer, preset *models.DrawingPreset) error {
	data, err := json.MarshalIndent(preset, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding preset: %w", err)
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

// WriteFile writes preset to path, creating parent directories. The file
// is replaced atomically so a failed export leaves nothing behind.
func WriteFile(path string, preset *models.DrawingPreset) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".preset-*.json")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := WriteJSON(tmp, preset); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("moving preset into place: %w", err)
	}
	return nil
}

func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
