// Package export turns text into DrawingPreset assets using single-stroke
// glyph fonts.
package export

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"
)

//go:embed fonts/*.yaml
var fontFiles embed.FS

// DefaultFont is used when no font is named.
const DefaultFont = "shadows-into-light"

// FontAliases maps friendly names onto embedded glyph tables.
var FontAliases = map[string]string{
	"shadows-into-light": "hershey_script_1",
	"indie-flower":       "ems_tech",
}

// ErrUnknownFont is returned for names that match no alias or table.
var ErrUnknownFont = errors.New("unknown font")

// Font types. Glyph tables of type svg have y growing upward.
const (
	FontTypeHershey = "hershey"
	FontTypeSVG     = "svg"
)

// Glyph is one character drawn as open polylines in font units.
type Glyph struct {
	Char  string  `yaml:"char"`
	Width float64 `yaml:"width"`
	D     string  `yaml:"d"`
}

// Font is a single-stroke glyph table.
type Font struct {
	Name           string  `yaml:"name"`
	Type           string  `yaml:"type"`
	UnitsPerEm     float64 `yaml:"unitsPerEm"`
	DefaultAdvance float64 `yaml:"defaultAdvance"`
	Glyphs         []Glyph `yaml:"glyphs"`

	byChar map[rune]*Glyph
}

// ResolveFontName applies FontAliases. Unaliased names pass through.
func ResolveFontName(name string) string {
	if resolved, ok := FontAliases[name]; ok {
		return resolved
	}
	return name
}

// LoadFont resolves name and parses its embedded glyph table.
func LoadFont(name string) (*Font, error) {
	resolved := ResolveFontName(name)
	if resolved == "" || strings.ContainsAny(resolved, `/\.`) {
		return nil, fmt.Errorf("%w %q", ErrUnknownFont, name)
	}

	data, err := fontFiles.ReadFile(path.Join("fonts", resolved+".yaml"))
	if err != nil {
		return nil, fmt.Errorf("%w %q (resolved to %q)", ErrUnknownFont, name, resolved)
	}

	var f Font
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing font %s: %w", resolved, err)
	}
	if f.UnitsPerEm <= 0 {
		f.UnitsPerEm = 1000
	}
	if f.DefaultAdvance <= 0 {
		f.DefaultAdvance = f.UnitsPerEm * 0.4
	}

	f.byChar = make(map[rune]*Glyph, len(f.Glyphs))
	for i := range f.Glyphs {
		g := &f.Glyphs[i]
		r := []rune(g.Char)
		if len(r) != 1 {
			return nil, fmt.Errorf("font %s: glyph %q must be a single character", resolved, g.Char)
		}
		f.byChar[r[0]] = g
	}
	return &f, nil
}

// FontNames lists the embedded glyph tables.
func FontNames() []string {
	entries, err := fs.ReadDir(fontFiles, "fonts")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".yaml"))
	}
	sort.Strings(names)
	return names
}

// Glyph looks up r, falling back to its lower case form.
func (f *Font) Glyph(r rune) (*Glyph, bool) {
	if g, ok := f.byChar[r]; ok {
		return g, true
	}
	g, ok := f.byChar[unicode.ToLower(r)]
	return g, ok
}

// YUp reports whether glyph coordinates grow upward.
func (f *Font) YUp() bool {
	return f.Type == FontTypeSVG
}
