package export

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"strconv"

	"github.com/chromedp/chromedp"
	"github.com/inkboard/backend/internal/models"
	"github.com/inkboard/backend/internal/stroke"
)

const (
	// DefaultPreviewWidth is the preview image width in pixels.
	DefaultPreviewWidth = 640.0
	previewPadding      = 16.0
	previewInk          = "#1f2937"
)

// PreviewSVG draws preset with the default preset stroke style into a
// standalone SVG document width pixels wide.
func PreviewSVG(preset *models.DrawingPreset, width float64) []byte {
	if width <= 0 {
		width = DefaultPreviewWidth
	}
	aspect := preset.AspectRatio
	if aspect <= 0 {
		aspect = 1
	}
	inner := width - 2*previewPadding
	height := inner/aspect + 2*previewPadding

	opts := stroke.DefaultPresetOptions(false)
	opts.Last = true

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" width="%s" height="%s" viewBox="0 0 %s %s">`,
		fnum(width), fnum(height), fnum(width), fnum(height))
	buf.WriteString(`<rect width="100%" height="100%" fill="#ffffff"/>`)
	for _, s := range preset.Strokes {
		points := make([]models.Point, len(s))
		for i, p := range s {
			points[i] = models.Point{
				X:        previewPadding + p.X*inner,
				Y:        previewPadding + p.Y*(inner/aspect),
				Pressure: p.Pressure,
			}
		}
		if d, ok := stroke.RenderPath(points, opts); ok {
			fmt.Fprintf(&buf, `<path d="%s" fill="%s"/>`, d, previewInk)
		}
	}
	buf.WriteString(`</svg>`)
	return buf.Bytes()
}

// RenderPreview screenshots the preview SVG in headless Chrome and
// returns PNG bytes.
func RenderPreview(ctx context.Context, preset *models.DrawingPreset, width float64) ([]byte, error) {
	dataURI := "data:image/svg+xml;base64," + base64.StdEncoding.EncodeToString(PreviewSVG(preset, width))

	opts := append(chromedp.DefaultExecAllocatorOptions[:], chromedp.Headless)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	var png []byte
	if err := chromedp.Run(browserCtx,
		chromedp.Navigate(dataURI),
		chromedp.WaitVisible(`svg`, chromedp.ByQuery),
		chromedp.Screenshot(`svg`, &png, chromedp.ByQuery),
	); err != nil {
		return nil, fmt.Errorf("rendering preview: %w", err)
	}
	if len(png) == 0 {
		return nil, fmt.Errorf("rendering preview: empty screenshot")
	}
	return png, nil
}

func fnum(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
