package stroke

import (
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/inkboard/backend/internal/models"
)

// RenderPath turns a polyline into SVG path data for a filled stroke.
// It returns false when there is nothing to draw.
func RenderPath(points []models.Point, o Options) (string, bool) {
	switch len(points) {
	case 0:
		return "", false
	case 1:
		return dotPath(points[0], o), true
	}

	poly := outline(points, o)
	if len(poly) == 0 {
		return "", false
	}
	return pathFromOutline(poly), true
}

func dotPath(p models.Point, o Options) string {
	size := o.Size
	if size == 0 {
		size = dotDefaultSize
	}
	pressure := p.Pressure
	if pressure == 0 || math.IsNaN(pressure) {
		pressure = models.DefaultPressure
	}
	pressure = math.Max(0.2, math.Min(1, pressure))
	r := math.Max(1, size*pressure/2)

	x := fixed2(p.X)
	top := fixed2(p.Y - r)
	bottom := fixed2(p.Y + r)
	rs := fixed2(r)

	return strings.Join([]string{
		"M", x, top,
		"A", rs, rs, "0 1 0", x, bottom,
		"A", rs, rs, "0 1 0", x, top,
		"Z",
	}, " ")
}

// pathFromOutline encodes a closed polygon as a ring of quadratic curves
// through the midpoints of consecutive vertices.
func pathFromOutline(poly []vec) string {
	if len(poly) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("M ")
	b.WriteString(fixed2(poly[0].x))
	b.WriteByte(' ')
	b.WriteString(fixed2(poly[0].y))
	b.WriteString(" Q")

	for i, cur := range poly {
		next := poly[(i+1)%len(poly)]
		for _, v := range [4]float64{cur.x, cur.y, (cur.x + next.x) / 2, (cur.y + next.y) / 2} {
			b.WriteByte(' ')
			b.WriteString(fixed2(v))
		}
	}

	b.WriteString(" Z")
	return b.String()
}

// fixed2 formats v with two decimals, rounding exact ties away from zero.
func fixed2(v float64) string {
	if v == 0 {
		return "0.00"
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}

	neg := v < 0
	abs := math.Abs(v)
	s := strconv.FormatFloat(abs, 'f', 2, 64)
	if isTie(abs) {
		s = strconv.FormatFloat(abs+0.005, 'f', 2, 64)
	}
	if neg {
		return "-" + s
	}
	return s
}

// isTie reports whether v lies exactly halfway between two hundredths.
func isTie(v float64) bool {
	exact := new(big.Float).SetPrec(2048).SetFloat64(v).Text('f', 1100)
	dot := strings.IndexByte(exact, '.')
	if dot < 0 || len(exact) < dot+4 {
		return false
	}
	frac := exact[dot+3:]
	return frac[0] == '5' && strings.TrimRight(frac[1:], "0") == ""
}

// BuildPathsFromPointProgress renders the first visible points of a preset,
// walking its strokes in order. A stroke is drawn in full while enough
// points remain, then a prefix of the next one, then nothing.
func BuildPathsFromPointProgress(groups []models.Stroke, visible int, o Options) []string {
	remaining := visible
	var paths []string

	for _, group := range groups {
		if remaining <= 1 {
			break
		}

		if remaining >= len(group) {
			if d, ok := RenderPath(group, o); ok {
				paths = append(paths, d)
			}
			remaining -= len(group)
			continue
		}

		if d, ok := RenderPath(group[:remaining], o); ok {
			paths = append(paths, d)
		}
		break
	}

	return paths
}
