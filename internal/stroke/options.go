package stroke

import "github.com/inkboard/backend/internal/models"

// CapOptions configures one end of an outline.
type CapOptions struct {
	Cap   bool
	Taper float64
}

// Options drives the outline generator. A zero Size means "unset": the
// outline falls back to 16 and a single-point dot falls back to 8.
type Options struct {
	Size             float64
	Thinning         float64
	Smoothing        float64
	Streamline       float64
	SimulatePressure bool
	Start            CapOptions
	End              CapOptions
	// Last marks the input as complete so the final point is used verbatim.
	Last bool
}

const (
	outlineDefaultSize = 16
	dotDefaultSize     = 8
)

var userOptions = Options{
	Size:       8,
	Thinning:   0.08,
	Smoothing:  0.58,
	Streamline: 0.34,
	Start:      CapOptions{Cap: true},
	End:        CapOptions{Cap: true},
}

var eraserOptions = Options{
	Size:       24,
	Thinning:   0,
	Smoothing:  0.54,
	Streamline: 0.42,
	Start:      CapOptions{Cap: true},
	End:        CapOptions{Cap: true},
}

var presetOptions = Options{
	Size:       6.2,
	Thinning:   0,
	Smoothing:  0.66,
	Streamline: 0.36,
	Start:      CapOptions{Cap: true},
	End:        CapOptions{Cap: true},
}

// UserOptions returns the marker style for live drawing.
func UserOptions(mobile bool) Options {
	o := userOptions
	if mobile {
		o.Size = 8.5
	}
	return o
}

// EraserOptions returns the eraser style for live drawing.
func EraserOptions(mobile bool) Options {
	o := eraserOptions
	if mobile {
		o.Size = 19
	}
	return o
}

// DefaultPresetOptions returns the style used by presets that carry none.
func DefaultPresetOptions(mobile bool) Options {
	o := presetOptions
	if mobile {
		o.Size = 3.6
	}
	return o
}

// ResolveOptions converts a configured style into generator options,
// applying the generator defaults for unset fields.
func ResolveOptions(style *models.StrokeStyle) Options {
	o := Options{
		Thinning:         0.5,
		Smoothing:        0.5,
		Streamline:       0.5,
		SimulatePressure: true,
		Start:            CapOptions{Cap: true},
		End:              CapOptions{Cap: true},
	}
	if style == nil {
		return o
	}
	if style.Size != nil {
		o.Size = *style.Size
	}
	if style.Thinning != nil {
		o.Thinning = *style.Thinning
	}
	if style.Smoothing != nil {
		o.Smoothing = *style.Smoothing
	}
	if style.Streamline != nil {
		o.Streamline = *style.Streamline
	}
	if style.SimulatePressure != nil {
		o.SimulatePressure = *style.SimulatePressure
	}
	o.Start = resolveCap(style.Start)
	o.End = resolveCap(style.End)
	return o
}

func resolveCap(c *models.CapStyle) CapOptions {
	out := CapOptions{Cap: true}
	if c == nil {
		return out
	}
	if c.Cap != nil {
		out.Cap = *c.Cap
	}
	if c.Taper != nil && *c.Taper > 0 {
		out.Taper = *c.Taper
	}
	return out
}

// ResolvePresetOptions picks the preset style for the viewport class,
// preferring the matching class, then the other class, then the default.
func ResolvePresetOptions(style *models.ResponsiveStrokeStyle, mobile bool) Options {
	if style != nil {
		first, second := style.Desktop, style.Mobile
		if mobile {
			first, second = style.Mobile, style.Desktop
		}
		if first != nil {
			return ResolveOptions(first)
		}
		if second != nil {
			return ResolveOptions(second)
		}
	}
	return DefaultPresetOptions(mobile)
}
