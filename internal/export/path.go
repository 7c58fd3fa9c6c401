package export

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
)

// ErrUnsupportedCommand is returned for path commands other than M and L.
var ErrUnsupportedCommand = errors.New("unsupported path command")

// duplicateEpsilon drops points that would not move the pen.
const duplicateEpsilon = 1e-6

var pathTokenRe = regexp.MustCompile(`([A-Za-z])|([-+]?(?:\d*\.\d+|\d+)(?:[eE][-+]?\d+)?)`)

// Point is a position in font or output units.
type Point struct {
	X, Y float64
}

func (p Point) dist(q Point) float64 {
	return math.Hypot(q.X-p.X, q.Y-p.Y)
}

type pathToken struct {
	command byte
	number  float64
	isCmd   bool
}

func tokenizePath(d string) ([]pathToken, error) {
	matches := pathTokenRe.FindAllStringSubmatch(d, -1)
	tokens := make([]pathToken, 0, len(matches))
	for _, m := range matches {
		if m[1] != "" {
			tokens = append(tokens, pathToken{command: m[1][0], isCmd: true})
			continue
		}
		v, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q in path data", m[2])
		}
		tokens = append(tokens, pathToken{number: v})
	}
	return tokens, nil
}

// ParseSingleLinePath converts move and line commands into polylines.
// Lines are subdivided so no two consecutive points are more than
// maxSegment apart. Polylines with fewer than two points are dropped.
func ParseSingleLinePath(d string, maxSegment float64) ([][]Point, error) {
	if maxSegment <= 0 {
		return nil, fmt.Errorf("segment length must be positive, got %v", maxSegment)
	}
	tokens, err := tokenizePath(d)
	if err != nil {
		return nil, err
	}

	var (
		strokes [][]Point
		active  []Point
		started bool
		current Point
		command byte
		i       int
	)

	flush := func() {
		if len(active) > 1 {
			strokes = append(strokes, active)
		}
		active = nil
		started = false
	}
	readPoint := func() (Point, error) {
		if i+1 >= len(tokens) || tokens[i].isCmd || tokens[i+1].isCmd {
			return Point{}, fmt.Errorf("expected coordinate pair in path data %q", d)
		}
		p := Point{X: tokens[i].number, Y: tokens[i+1].number}
		i += 2
		return p, nil
	}

	for i < len(tokens) {
		if tokens[i].isCmd {
			command = tokens[i].command
			i++
		} else if command == 0 {
			return nil, fmt.Errorf("path data starts with a number: %q", d)
		}

		switch command {
		case 'M', 'm':
			p, err := readPoint()
			if err != nil {
				return nil, err
			}
			if command == 'm' {
				p = Point{X: current.X + p.X, Y: current.Y + p.Y}
			}
			flush()
			active = pushPoint(nil, p)
			started = true
			current = p
			// extra pairs after a move are implicit lines
			if command == 'M' {
				command = 'L'
			} else {
				command = 'l'
			}

		case 'L', 'l':
			if !started {
				active = pushPoint(nil, current)
				started = true
			}
			for i < len(tokens) && !tokens[i].isCmd {
				p, err := readPoint()
				if err != nil {
					return nil, err
				}
				if command == 'l' {
					p = Point{X: current.X + p.X, Y: current.Y + p.Y}
				}
				active = appendLine(active, current, p, maxSegment)
				current = p
			}

		default:
			return nil, fmt.Errorf("%w %q in %q", ErrUnsupportedCommand, string(command), d)
		}
	}

	flush()
	return strokes, nil
}

func pushPoint(stroke []Point, p Point) []Point {
	if n := len(stroke); n > 0 && stroke[n-1].dist(p) <= duplicateEpsilon {
		return stroke
	}
	return append(stroke, p)
}

func appendLine(stroke []Point, from, to Point, maxSegment float64) []Point {
	steps := int(math.Max(1, math.Ceil(from.dist(to)/maxSegment)))
	for step := 1; step <= steps; step++ {
		t := float64(step) / float64(steps)
		stroke = pushPoint(stroke, Point{
			X: from.X + (to.X-from.X)*t,
			Y: from.Y + (to.Y-from.Y)*t,
		})
	}
	return stroke
}
