package placement

import (
	"math"
	"strconv"

	"github.com/inkboard/backend/internal/models"
)

// Tolerance below which two measurements are considered equal.
const nearlyEqualTolerance = 0.5

// scaleTolerance is how far a scale may drift from 1 and still be drawn
// without a transform.
const scaleTolerance = 1e-3

// NearlyEqual reports whether a and b differ by less than half a pixel.
func NearlyEqual(a, b float64) bool {
	return math.Abs(a-b) < nearlyEqualTolerance
}

// DrawLayerMetrics scales the locked layout into the live board so that
// heights match and the layout is centered.
type DrawLayerMetrics struct {
	Scale   float64 `json:"scale" msgpack:"scale"`
	OffsetX float64 `json:"offsetX" msgpack:"offsetX"`
	OffsetY float64 `json:"offsetY" msgpack:"offsetY"`
}

// Identity is the transform used before any measurement.
var Identity = DrawLayerMetrics{Scale: 1}

// ResolveDrawLayerMetrics fits layout into live by height.
func ResolveDrawLayerMetrics(live, layout models.BoardSize) DrawLayerMetrics {
	layoutH := math.Max(layout.Height, 1)
	layoutW := math.Max(layout.Width, 1)
	scale := math.Max(live.Height, 1) / layoutH

	return DrawLayerMetrics{
		Scale:   scale,
		OffsetX: (live.Width - layoutW*scale) / 2,
		OffsetY: (live.Height - layoutH*scale) / 2,
	}
}

// IsIdentity reports whether the transform is a no-op: offsets within
// half a pixel and a scale of 1.
func (m DrawLayerMetrics) IsIdentity() bool {
	return NearlyEqual(m.OffsetX, 0) && NearlyEqual(m.OffsetY, 0) && math.Abs(m.Scale-1) < scaleTolerance
}

// Transform renders the SVG transform attribute, or "" for identity.
func (m DrawLayerMetrics) Transform() string {
	if m.IsIdentity() {
		return ""
	}
	s := num(m.Scale)
	return "matrix(" + s + " 0 0 " + s + " " + num(m.OffsetX) + " " + num(m.OffsetY) + ")"
}

// Apply maps a layout-space point into live board space.
func (m DrawLayerMetrics) Apply(p models.Point) models.Point {
	return models.Point{X: p.X*m.Scale + m.OffsetX, Y: p.Y*m.Scale + m.OffsetY, Pressure: p.Pressure}
}

// Invert maps a live board point into layout space. A non-positive scale
// is treated as 1.
func (m DrawLayerMetrics) Invert(x, y float64) (float64, float64) {
	scale := m.Scale
	if !(scale > 0) {
		scale = 1
	}
	return (x - m.OffsetX) / scale, (y - m.OffsetY) / scale
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
