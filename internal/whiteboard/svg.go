package whiteboard

import (
	"bufio"
	"fmt"
	"html"
	"io"
	"strconv"
)

func attr(v string) string {
	return html.EscapeString(v)
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// WriteSVG writes the frame as a standalone SVG document sized to the live
// surface. Layers are emitted back to front inside the layout transform.
func WriteSVG(w io.Writer, f Frame) error {
	bw := bufio.NewWriter(w)

	width, height := f.Width, f.Height
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}

	fmt.Fprintf(bw, `<svg xmlns="http://www.w3.org/2000/svg" width="%s" height="%s" viewBox="0 0 %s %s" aria-hidden="true">`,
		num(width), num(height), num(width), num(height))
	if f.Transform != "" {
		fmt.Fprintf(bw, `<g transform="%s">`, attr(f.Transform))
	} else {
		bw.WriteString(`<g>`)
	}

	for _, layer := range f.Layers {
		fmt.Fprintf(bw, `<g data-layer="%s">`, attr(layer.Name))
		for _, p := range layer.Presets {
			fmt.Fprintf(bw, `<g data-preset="%s" fill="%s" fill-opacity="%s">`,
				attr(p.ID), attr(p.FillColor), num(p.FillOpacity))
			for _, d := range p.Paths {
				fmt.Fprintf(bw, `<path d="%s"/>`, attr(d))
			}
			bw.WriteString(`</g>`)
		}
		for _, p := range layer.Paths {
			fmt.Fprintf(bw, `<path data-id="%s" d="%s" fill="%s" fill-opacity="%s"/>`,
				attr(p.ID), attr(p.D), attr(p.Color), num(p.FillOpacity))
		}
		bw.WriteString(`</g>`)
	}

	bw.WriteString(`</g></svg>`)
	return bw.Flush()
}
