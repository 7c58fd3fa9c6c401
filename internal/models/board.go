package models

// BoardSize is a width/height pair in CSS pixels.
type BoardSize struct {
	Width  float64 `json:"width" msgpack:"width"`
	Height float64 `json:"height" msgpack:"height"`
}

// Tool is the drawing implement behind a live stroke.
type Tool string

const (
	ToolMarker Tool = "marker"
	ToolEraser Tool = "eraser"
)

// EraserToolID is the tool identifier that selects the eraser.
const EraserToolID = "eraser"

// Marker is a selectable pen color.
type Marker struct {
	ID    string `json:"id" yaml:"id"`
	Label string `json:"label" yaml:"label"`
	Color string `json:"color" yaml:"color"`
}

// DefaultMarkers is the marker tray offered to users, first entry is the default.
var DefaultMarkers = []Marker{
	{ID: "black", Label: "black marker", Color: "var(--color-slate-800)"},
	{ID: "blue", Label: "blue marker", Color: "var(--color-underline-blue)"},
	{ID: "green", Label: "green marker", Color: "var(--color-underline-green)"},
	{ID: "red", Label: "red marker", Color: "var(--color-red-600)"},
	{ID: "yellow", Label: "yellow marker", Color: "var(--color-yellow-400)"},
}

// MarkerColor looks up a marker color by id.
func MarkerColor(id string) (string, bool) {
	for _, m := range DefaultMarkers {
		if m.ID == id {
			return m.Color, true
		}
	}
	return "", false
}

// DrawPath is a committed user stroke, already rendered to SVG path data.
type DrawPath struct {
	ID          string  `json:"id" msgpack:"id"`
	D           string  `json:"d" msgpack:"d"`
	Color       string  `json:"color" msgpack:"color"`
	FillOpacity float64 `json:"fillOpacity" msgpack:"fillOpacity"`
}

// PresetLayer is the visible portion of one preset in a rendered frame.
type PresetLayer struct {
	ID          string   `json:"id" msgpack:"id"`
	FillColor   string   `json:"fillColor" msgpack:"fillColor"`
	FillOpacity float64  `json:"fillOpacity" msgpack:"fillOpacity"`
	Paths       []string `json:"paths" msgpack:"paths"`
}
