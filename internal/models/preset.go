package models

// TimingConfig is the raw, optional timing block of a preset. Missing or
// non-finite fields fall back to defaults when resolved.
type TimingConfig struct {
	PointDurationMs *float64 `json:"pointDurationMs,omitempty" yaml:"pointDurationMs,omitempty"`
	MinDurationMs   *float64 `json:"minDurationMs,omitempty" yaml:"minDurationMs,omitempty"`
	MaxDurationMs   *float64 `json:"maxDurationMs,omitempty" yaml:"maxDurationMs,omitempty"`
	EaseRampRatio   *float64 `json:"easeRampRatio,omitempty" yaml:"easeRampRatio,omitempty"`
	DelayMs         *float64 `json:"delayMs,omitempty" yaml:"delayMs,omitempty"`
	PlayOnce        *bool    `json:"playOnce,omitempty" yaml:"playOnce,omitempty"`
}

// ResolvedTiming is a TimingConfig with every field set and clamped.
type ResolvedTiming struct {
	PointDurationMs float64 `json:"pointDurationMs" msgpack:"pointDurationMs"`
	MinDurationMs   float64 `json:"minDurationMs" msgpack:"minDurationMs"`
	MaxDurationMs   float64 `json:"maxDurationMs" msgpack:"maxDurationMs"`
	EaseRampRatio   float64 `json:"easeRampRatio" msgpack:"easeRampRatio"`
	DelayMs         float64 `json:"delayMs" msgpack:"delayMs"`
	PlayOnce        bool    `json:"playOnce" msgpack:"playOnce"`
}

// CapStyle configures one end of a stroke outline.
type CapStyle struct {
	Cap   *bool    `json:"cap,omitempty" yaml:"cap,omitempty"`
	Taper *float64 `json:"taper,omitempty" yaml:"taper,omitempty"`
}

// StrokeStyle is the user-facing outline configuration. Unset fields take
// the outline generator's own defaults.
type StrokeStyle struct {
	Size             *float64  `json:"size,omitempty" yaml:"size,omitempty"`
	Thinning         *float64  `json:"thinning,omitempty" yaml:"thinning,omitempty"`
	Smoothing        *float64  `json:"smoothing,omitempty" yaml:"smoothing,omitempty"`
	Streamline       *float64  `json:"streamline,omitempty" yaml:"streamline,omitempty"`
	SimulatePressure *bool     `json:"simulatePressure,omitempty" yaml:"simulatePressure,omitempty"`
	Start            *CapStyle `json:"start,omitempty" yaml:"start,omitempty"`
	End              *CapStyle `json:"end,omitempty" yaml:"end,omitempty"`
}

// ResponsiveStrokeStyle holds optional per-viewport stroke styles.
type ResponsiveStrokeStyle struct {
	Desktop *StrokeStyle `json:"desktop,omitempty" yaml:"desktop,omitempty"`
	Mobile  *StrokeStyle `json:"mobile,omitempty" yaml:"mobile,omitempty"`
}

// PresetConfig describes one animated drawing placed on a board.
type PresetConfig struct {
	ID          string                 `json:"id" yaml:"id"`
	Data        *DrawingPreset         `json:"data,omitempty" yaml:"data,omitempty"`
	DataFile    string                 `json:"dataFile,omitempty" yaml:"dataFile,omitempty"`
	Timing      *TimingConfig          `json:"timing,omitempty" yaml:"timing,omitempty"`
	StrokeStyle *ResponsiveStrokeStyle `json:"strokeOptions,omitempty" yaml:"strokeOptions,omitempty"`
	FillColor   string                 `json:"fillColor" yaml:"fillColor"`
	FillOpacity *float64               `json:"fillOpacity,omitempty" yaml:"fillOpacity,omitempty"`
	Placement   PlacementConfig        `json:"placement" yaml:"placement"`
}

// PresetInfo is the listing metadata of a stored drawing asset.
type PresetInfo struct {
	ID          string  `json:"id"`
	Size        int64   `json:"size"`
	AspectRatio float64 `json:"aspectRatio"`
	StrokeCount int     `json:"strokeCount"`
	PointCount  int     `json:"pointCount"`
	UpdatedAt   int64   `json:"updatedAt"` // Unix ms
}

// Float64 returns a pointer to v. Handy for optional config fields.
func Float64(v float64) *float64 { return &v }

// Bool returns a pointer to v.
func Bool(v bool) *bool { return &v }
