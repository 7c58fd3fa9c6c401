package models

import (
	"encoding/json"
	"fmt"
	"math"

	"gopkg.in/yaml.v3"
)

// DefaultPressure is used whenever an input device reports no pressure.
const DefaultPressure = 0.5

// Point is a sampled stroke position. It serializes as [x, y, pressure].
type Point struct {
	X        float64
	Y        float64
	Pressure float64
}

// MarshalJSON encodes the point as a three element array.
func (p Point) MarshalJSON() ([]byte, error) {
	return json.Marshal([3]float64{p.X, p.Y, p.Pressure})
}

// UnmarshalJSON accepts [x, y] or [x, y, pressure].
func (p *Point) UnmarshalJSON(data []byte) error {
	var raw []float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decoding point: %w", err)
	}
	return p.fromSlice(raw)
}

// UnmarshalYAML accepts the same array forms as UnmarshalJSON.
func (p *Point) UnmarshalYAML(node *yaml.Node) error {
	var raw []float64
	if err := node.Decode(&raw); err != nil {
		return fmt.Errorf("decoding point: %w", err)
	}
	return p.fromSlice(raw)
}

func (p *Point) fromSlice(raw []float64) error {
	switch len(raw) {
	case 2:
		*p = Point{X: raw[0], Y: raw[1], Pressure: DefaultPressure}
	case 3:
		*p = Point{X: raw[0], Y: raw[1], Pressure: raw[2]}
	default:
		return fmt.Errorf("point must have 2 or 3 components, got %d", len(raw))
	}
	return nil
}

// Finite reports whether every component is a finite number.
func (p Point) Finite() bool {
	return isFinite(p.X) && isFinite(p.Y) && isFinite(p.Pressure)
}

// Stroke is an ordered polyline of points.
type Stroke []Point

// DrawingPreset is a stored drawing in normalized [0,1] coordinates.
type DrawingPreset struct {
	Version     int      `json:"version" yaml:"version"`
	AspectRatio float64  `json:"aspectRatio" yaml:"aspectRatio"`
	Strokes     []Stroke `json:"strokes" yaml:"strokes"`
}

// CurrentPresetVersion is the only drawing format version understood.
const CurrentPresetVersion = 1

// Validate checks the structural invariants of a drawing asset.
func (d *DrawingPreset) Validate() error {
	if d.Version != CurrentPresetVersion {
		return fmt.Errorf("unsupported preset version %d", d.Version)
	}
	if !isFinite(d.AspectRatio) || d.AspectRatio <= 0 {
		return fmt.Errorf("aspect ratio must be a positive finite number, got %v", d.AspectRatio)
	}
	for i, stroke := range d.Strokes {
		for j, point := range stroke {
			if !point.Finite() {
				return fmt.Errorf("stroke %d point %d is not finite", i, j)
			}
		}
	}
	return nil
}

// PointCount returns the number of points across all strokes.
func (d *DrawingPreset) PointCount() int {
	if d == nil {
		return 0
	}
	total := 0
	for _, stroke := range d.Strokes {
		total += len(stroke)
	}
	return total
}

// ResponsiveNumber carries one value per viewport class. A scalar in the
// source document applies to both.
type ResponsiveNumber struct {
	Desktop float64 `json:"desktop" yaml:"desktop"`
	Mobile  float64 `json:"mobile" yaml:"mobile"`
}

// Uniform builds a ResponsiveNumber with the same value for both classes.
func Uniform(v float64) ResponsiveNumber {
	return ResponsiveNumber{Desktop: v, Mobile: v}
}

// Resolve picks the value for the given viewport class.
func (n ResponsiveNumber) Resolve(isMobile bool) float64 {
	if isMobile {
		return n.Mobile
	}
	return n.Desktop
}

type responsivePair struct {
	Desktop float64 `json:"desktop" yaml:"desktop"`
	Mobile  float64 `json:"mobile" yaml:"mobile"`
}

// UnmarshalJSON accepts a number or {"desktop": n, "mobile": n}.
func (n *ResponsiveNumber) UnmarshalJSON(data []byte) error {
	var scalar float64
	if err := json.Unmarshal(data, &scalar); err == nil {
		*n = Uniform(scalar)
		return nil
	}
	var pair responsivePair
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("decoding responsive number: %w", err)
	}
	*n = ResponsiveNumber(pair)
	return nil
}

// UnmarshalYAML accepts a scalar or a desktop/mobile mapping.
func (n *ResponsiveNumber) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		var scalar float64
		if err := node.Decode(&scalar); err != nil {
			return fmt.Errorf("decoding responsive number: %w", err)
		}
		*n = Uniform(scalar)
		return nil
	}
	var pair responsivePair
	if err := node.Decode(&pair); err != nil {
		return fmt.Errorf("decoding responsive number: %w", err)
	}
	*n = ResponsiveNumber(pair)
	return nil
}

// PlacementConfig positions a preset on the board in percent of board height.
type PlacementConfig struct {
	YPct      ResponsiveNumber `json:"yPct" yaml:"yPct"`
	HeightPct ResponsiveNumber `json:"heightPct" yaml:"heightPct"`
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
