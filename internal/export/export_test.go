package export

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/inkboard/backend/internal/models"
	"github.com/inkboard/backend/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSingleLinePath(t *testing.T) {
	tests := []struct {
		name string
		d    string
		seg  float64
		want [][]Point
	}{
		{
			name: "subdivides long lines",
			d:    "M 0 0 L 3 0",
			seg:  1,
			want: [][]Point{{{0, 0}, {1, 0}, {2, 0}, {3, 0}}},
		},
		{
			name: "relative commands",
			d:    "m 1 1 l 2 0 0 2",
			seg:  10,
			want: [][]Point{{{1, 1}, {3, 1}, {3, 3}}},
		},
		{
			name: "pairs after a move are lines",
			d:    "M 0 0 1 1",
			seg:  10,
			want: [][]Point{{{0, 0}, {1, 1}}},
		},
		{
			name: "duplicates dropped",
			d:    "M 0 0 L 0 0 L 1 0",
			seg:  10,
			want: [][]Point{{{0, 0}, {1, 0}}},
		},
		{
			name: "lone moves dropped",
			d:    "M 5 5 M 0 0 L 1 1",
			seg:  10,
			want: [][]Point{{{0, 0}, {1, 1}}},
		},
		{
			name: "line without move starts at origin",
			d:    "L 1 0",
			seg:  10,
			want: [][]Point{{{0, 0}, {1, 0}}},
		},
		{
			name: "compact numbers",
			d:    "M0,0L1.5-2",
			seg:  10,
			want: [][]Point{{{0, 0}, {1.5, -2}}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSingleLinePath(tt.d, tt.seg)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseSingleLinePath_Errors(t *testing.T) {
	_, err := ParseSingleLinePath("M 0 0 C 1 1 2 2 3 3", 1)
	assert.ErrorIs(t, err, ErrUnsupportedCommand)

	_, err = ParseSingleLinePath("0 0 L 1 1", 1)
	assert.Error(t, err)

	_, err = ParseSingleLinePath("M 0", 1)
	assert.Error(t, err)

	_, err = ParseSingleLinePath("M 0 0 L 1 1", 0)
	assert.Error(t, err)
}

func TestNormalize(t *testing.T) {
	preset, err := Normalize([][]Point{{{10, 20}, {12, 21}}, {{11, 20}}}, 2)
	require.NoError(t, err)
	assert.Equal(t, models.CurrentPresetVersion, preset.Version)
	assert.Equal(t, 2.0, preset.AspectRatio)
	require.Len(t, preset.Strokes, 1)
	assert.Equal(t, models.Stroke{{X: 0, Y: 0, Pressure: 1}, {X: 1, Y: 1, Pressure: 1}}, preset.Strokes[0])

	preset, err = Normalize([][]Point{{{0, 0}, {3, 3}, {1, 1}}}, -1)
	require.NoError(t, err)
	assert.Equal(t, 0.333333, preset.Strokes[0][2].X)
	assert.Equal(t, 0.0, preset.Strokes[0][2].Pressure)

	_, err = Normalize([][]Point{{{0, 0}, {1, 0}}}, 0.5)
	assert.ErrorIs(t, err, ErrDegenerateBounds)

	_, err = Normalize([][]Point{{{0, 0}}}, 0.5)
	assert.ErrorIs(t, err, ErrNoStrokes)
}

func TestLoadFont(t *testing.T) {
	assert.Equal(t, []string{"ems_tech", "hershey_script_1"}, FontNames())

	for alias, name := range FontAliases {
		f, err := LoadFont(alias)
		require.NoError(t, err, alias)
		assert.Equal(t, name, f.Name)
		_, ok := f.Glyph('a')
		assert.True(t, ok)
		_, ok = f.Glyph('A')
		assert.True(t, ok, "upper case falls back to lower case")
	}

	f, err := LoadFont("ems_tech")
	require.NoError(t, err)
	assert.True(t, f.YUp())
	assert.Equal(t, 1000.0, f.UnitsPerEm)

	_, err = LoadFont("comic-sans")
	assert.ErrorIs(t, err, ErrUnknownFont)
	_, err = LoadFont("../fonts/ems_tech")
	assert.ErrorIs(t, err, ErrUnknownFont)
}

func exportText(t *testing.T, mutate func(*Options)) *Result {
	t.Helper()
	o := DefaultOptions()
	mutate(&o)
	res, err := FromText(o)
	require.NoError(t, err)
	return res
}

func TestFromText(t *testing.T) {
	res := exportText(t, func(o *Options) {
		o.Text = "hi"
		o.Font = "indie-flower"
	})
	assert.Equal(t, "indie-flower", res.Font)
	assert.Equal(t, "ems_tech", res.ResolvedFont)
	assert.Len(t, res.Preset.Strokes, 4)
	assert.Greater(t, res.Preset.AspectRatio, 0.0)
	assert.Empty(t, res.Missing)
	require.NoError(t, res.Preset.Validate())
	for _, s := range res.Preset.Strokes {
		assert.Greater(t, len(s), 1)
		for _, p := range s {
			assert.True(t, p.X >= 0 && p.X <= 1 && p.Y >= 0 && p.Y <= 1, "point %v out of range", p)
			assert.Equal(t, DefaultPressure, p.Pressure)
		}
	}

	def := exportText(t, func(o *Options) {})
	assert.Equal(t, "hershey_script_1", def.ResolvedFont)
}

func TestFromText_ReportsMissingGlyphs(t *testing.T) {
	res := exportText(t, func(o *Options) { o.Text = "Hi #@#\n9!" })
	assert.Equal(t, []rune{'#', '@'}, res.Missing)

	plain := exportText(t, func(o *Options) { o.Text = "Hi 9!" })
	assert.Len(t, res.Preset.Strokes, len(plain.Preset.Strokes))
}

func TestFromText_Spacing(t *testing.T) {
	aspect := func(mutate func(*Options)) float64 {
		return exportText(t, mutate).Preset.AspectRatio
	}

	tight := aspect(func(o *Options) { o.Text = "hi" })
	loose := aspect(func(o *Options) { o.Text = "hi"; o.LetterSpacingEm = 1 })
	assert.Greater(t, loose, tight)

	words := aspect(func(o *Options) { o.Text = "a a" })
	spaced := aspect(func(o *Options) { o.Text = "a a"; o.WordSpacingEm = 1 })
	assert.Greater(t, spaced, words)

	oneLine := aspect(func(o *Options) { o.Text = "aa" })
	twoLines := aspect(func(o *Options) { o.Text = "a\na" })
	assert.Less(t, twoLines, oneLine)

	upper := exportText(t, func(o *Options) { o.Text = "HI" })
	lower := exportText(t, func(o *Options) { o.Text = "hi" })
	assert.Equal(t, lower.Preset, upper.Preset)

	// unknown glyphs advance the cursor without drawing
	gap := exportText(t, func(o *Options) { o.Text = "h~i" })
	assert.Len(t, gap.Preset.Strokes, len(lower.Preset.Strokes))
	assert.Greater(t, gap.Preset.AspectRatio, lower.Preset.AspectRatio)
}

func TestFromText_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Options)
		wantErr error
	}{
		{"empty text", func(o *Options) { o.Text = "" }, ErrEmptyText},
		{"blank text", func(o *Options) { o.Text = " \n " }, ErrEmptyText},
		{"unknown font", func(o *Options) { o.Font = "wingdings" }, ErrUnknownFont},
		{"only spaces and unknowns", func(o *Options) { o.Text = "~ ~" }, ErrNoStrokes},
		{"zero height", func(o *Options) { o.Text = "-" }, ErrDegenerateBounds},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := DefaultOptions()
			tt.mutate(&o)
			_, err := FromText(o)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	for _, mutate := range []func(*Options){
		func(o *Options) { o.FontSize = 0 },
		func(o *Options) { o.LetterSpacingEm = -1 },
		func(o *Options) { o.WordSpacingEm = -1 },
		func(o *Options) { o.MaxSegmentLength = 0 },
	} {
		o := DefaultOptions()
		mutate(&o)
		_, err := FromText(o)
		assert.Error(t, err)
	}
}

func TestWriteJSON_LoadsAsPreset(t *testing.T) {
	res := exportText(t, func(o *Options) { o.Text = "hi"; o.Font = "indie-flower" })

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, &res.Preset))
	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "{\n  \"version\": 1,\n  \"aspectRatio\": "))
	assert.True(t, strings.HasSuffix(out, "}\n"))

	loaded, err := storage.DecodePreset(&buf)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(loaded.Strokes), 1)
	assert.Greater(t, loaded.AspectRatio, 0.0)
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "hello.json")
	res := exportText(t, func(o *Options) {})

	require.NoError(t, WriteFile(path, &res.Preset))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "hello.json", entries[0].Name())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	loaded, err := storage.DecodePreset(f)
	require.NoError(t, err)
	assert.Equal(t, len(res.Preset.Strokes), len(loaded.Strokes))
}

func TestPreviewSVG(t *testing.T) {
	res := exportText(t, func(o *Options) { o.Text = "hi" })
	svg := string(PreviewSVG(&res.Preset, 320))
	assert.True(t, strings.HasPrefix(svg, `<svg xmlns="http://www.w3.org/2000/svg" width="320"`))
	assert.Equal(t, len(res.Preset.Strokes), strings.Count(svg, "<path "))
	assert.True(t, strings.HasSuffix(svg, "</svg>"))
}

func TestRenderPreview(t *testing.T) {
	if testing.Short() {
		t.Skip("needs a browser")
	}
	found := false
	for _, name := range []string{"google-chrome", "chromium", "chromium-browser", "headless-shell"} {
		if _, err := exec.LookPath(name); err == nil {
			found = true
			break
		}
	}
	if !found {
		t.Skip("no Chrome binary on PATH")
	}

	res := exportText(t, func(o *Options) {})
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	png, err := RenderPreview(ctx, &res.Preset, 200)
	require.NoError(t, err)
	assert.Equal(t, []byte("\x89PNG"), png[:4])
}
