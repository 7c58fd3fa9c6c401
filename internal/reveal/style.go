package reveal

import (
	"math"
	"strconv"
	"strings"
)

// StyleState is a partial set of animatable style values.
type StyleState struct {
	Opacity       *float64 `json:"opacity,omitempty" yaml:"opacity,omitempty"`
	X             *float64 `json:"x,omitempty" yaml:"x,omitempty"`
	Y             *float64 `json:"y,omitempty" yaml:"y,omitempty"`
	Scale         *float64 `json:"scale,omitempty" yaml:"scale,omitempty"`
	Rotate        *float64 `json:"rotate,omitempty" yaml:"rotate,omitempty"`
	Blur          *float64 `json:"blur,omitempty" yaml:"blur,omitempty"`
	LetterSpacing *float64 `json:"letterSpacing,omitempty" yaml:"letterSpacing,omitempty"`
}

// Style is a fully resolved style.
type Style struct {
	Opacity       float64 `json:"opacity"`
	X             float64 `json:"x"`
	Y             float64 `json:"y"`
	Scale         float64 `json:"scale"`
	Rotate        float64 `json:"rotate"`
	Blur          float64 `json:"blur"`
	LetterSpacing float64 `json:"letterSpacing"`
}

// Defaults for items that leave from or to unset.
var (
	DefaultFrom = Style{Opacity: 0, Y: 42, Scale: 0.985, Blur: 8}
	DefaultTo   = Style{Opacity: 1, Scale: 1}
)

// ItemConfig places an item's reveal inside a shared progress window.
type ItemConfig struct {
	ID     string      `json:"id" yaml:"id"`
	Start  float64     `json:"start" yaml:"start"`
	End    float64     `json:"end" yaml:"end"`
	Easing Easing      `json:"easing,omitempty" yaml:"easing,omitempty"`
	From   *StyleState `json:"from,omitempty" yaml:"from,omitempty"`
	To     *StyleState `json:"to,omitempty" yaml:"to,omitempty"`
}

// ResolvedStyle is the interpolated style of an item at some progress.
type ResolvedStyle struct {
	Style
	// Progress is the item-local progress before easing.
	Progress float64 `json:"progress"`
}

func pick(v *float64, fallback float64) float64 {
	if v == nil {
		return fallback
	}
	return *v
}

func (s *StyleState) resolve(base Style) Style {
	if s == nil {
		return base
	}
	return Style{
		Opacity:       pick(s.Opacity, base.Opacity),
		X:             pick(s.X, base.X),
		Y:             pick(s.Y, base.Y),
		Scale:         pick(s.Scale, base.Scale),
		Rotate:        pick(s.Rotate, base.Rotate),
		Blur:          pick(s.Blur, base.Blur),
		LetterSpacing: pick(s.LetterSpacing, base.LetterSpacing),
	}
}

// LocalProgress maps a shared progress into the item window.
func (c ItemConfig) LocalProgress(progress float64) float64 {
	span := math.Max(c.End-c.Start, 0.0001)
	return Clamp((progress-c.Start)/span, 0, 1)
}

// Interpolate resolves the item style at the shared progress.
func Interpolate(progress float64, c ItemConfig) ResolvedStyle {
	local := c.LocalProgress(progress)
	eased := ApplyEasing(local, c.Easing)
	from := c.From.resolve(DefaultFrom)
	to := c.To.resolve(DefaultTo)

	return ResolvedStyle{
		Style: Style{
			Opacity:       Lerp(from.Opacity, to.Opacity, eased),
			X:             Lerp(from.X, to.X, eased),
			Y:             Lerp(from.Y, to.Y, eased),
			Scale:         Lerp(from.Scale, to.Scale, eased),
			Rotate:        Lerp(from.Rotate, to.Rotate, eased),
			Blur:          Lerp(from.Blur, to.Blur, eased),
			LetterSpacing: Lerp(from.LetterSpacing, to.LetterSpacing, eased),
		},
		Progress: local,
	}
}

// Revealed reports whether the item has effectively finished.
func (r ResolvedStyle) Revealed() bool {
	return r.Progress >= 0.999
}

// Interactive reports whether the item should receive pointer events.
func (r ResolvedStyle) Interactive() bool {
	return r.Progress > 0.001
}

func (s Style) IdentityTransform() bool {
	return math.Abs(s.X) < 0.001 && math.Abs(s.Y) < 0.001 &&
		math.Abs(s.Scale-1) < 0.001 && math.Abs(s.Rotate) < 0.001
}

func (s Style) IdentityBlur() bool {
	return s.Blur <= 0.05
}

func (s Style) IdentityLetterSpacing() bool {
	return math.Abs(s.LetterSpacing) < 0.0001
}

func (s Style) IdentityOpacity() bool {
	return math.Abs(s.Opacity-1) < 0.001
}

func css(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Transform renders the CSS transform, or "" at identity.
func (s Style) Transform() string {
	if s.IdentityTransform() {
		return ""
	}
	return "translate3d(" + css(s.X) + "px, " + css(s.Y) + "px, 0) scale(" + css(s.Scale) + ") rotate(" + css(s.Rotate) + "deg)"
}

// Filter renders the CSS filter, or "" when the blur is negligible.
func (s Style) Filter() string {
	if s.IdentityBlur() {
		return ""
	}
	return "blur(" + css(s.Blur) + "px)"
}

// Tracking renders the CSS letter-spacing, or "".
func (s Style) Tracking() string {
	if s.IdentityLetterSpacing() {
		return ""
	}
	return css(s.LetterSpacing) + "em"
}

// WillChange lists the properties still animating.
func (s Style) WillChange() string {
	var parts []string
	if !s.IdentityTransform() {
		parts = append(parts, "transform")
	}
	if !s.IdentityOpacity() {
		parts = append(parts, "opacity")
	}
	if !s.IdentityBlur() {
		parts = append(parts, "filter")
	}
	return strings.Join(parts, ", ")
}
