package stroke

import (
	"math"

	"github.com/inkboard/backend/internal/models"
)

const (
	rateOfPressureChange = 0.275
	// Slightly more than pi so rotated cap points overlap instead of leaving a seam.
	fixedPi = math.Pi + 0.0001
)

// strokePoint is an input point after streamlining.
type strokePoint struct {
	point         vec
	pressure      float64
	vector        vec
	distance      float64
	runningLength float64
}

// outline returns the closed polygon around a pressure-sensitive stroke.
func outline(points []models.Point, o Options) []vec {
	return outlinePoints(samplePoints(points, o), o)
}

func inputPressure(p float64) float64 {
	if p >= 0 {
		return p
	}
	return models.DefaultPressure
}

// samplePoints streamlines the raw input and annotates each point with its
// direction and running length.
func samplePoints(points []models.Point, o Options) []strokePoint {
	if len(points) == 0 {
		return nil
	}
	size := o.Size
	if size == 0 {
		size = outlineDefaultSize
	}
	t := 0.15 + (1-o.Streamline)*0.85

	pts := make([]models.Point, len(points))
	copy(pts, points)

	// Two points produce a poor outline, so interpolate three more between them.
	// The interpolated points carry the default pressure.
	if len(pts) == 2 {
		last := pts[1]
		first := pts[0]
		pts = pts[:1]
		for i := 1; i < 5; i++ {
			f := float64(i) / 4
			pts = append(pts, models.Point{
				X:        first.X + (last.X-first.X)*f,
				Y:        first.Y + (last.Y-first.Y)*f,
				Pressure: models.DefaultPressure,
			})
		}
	}
	if len(pts) == 1 {
		pts = append(pts, models.Point{X: pts[0].X + 1, Y: pts[0].Y + 1, Pressure: pts[0].Pressure})
	}

	firstPressure := pts[0].Pressure
	if !(firstPressure >= 0) {
		firstPressure = 0.25
	}
	out := []strokePoint{{
		point:    vec{pts[0].X, pts[0].Y},
		pressure: firstPressure,
		vector:   vec{1, 1},
	}}

	reachedMinimumLength := false
	runningLength := 0.0
	prev := out[0]
	last := len(pts) - 1

	for i := 1; i < len(pts); i++ {
		raw := vec{pts[i].X, pts[i].Y}
		point := prev.point.lerp(raw, t)
		if o.Last && i == last {
			point = raw
		}
		if prev.point.equal(point) {
			continue
		}

		distance := point.dist(prev.point)
		runningLength += distance

		// Skip jitter at the start until the stroke is at least one size long.
		if i < last && !reachedMinimumLength {
			if runningLength < size {
				continue
			}
			reachedMinimumLength = true
		}

		prev = strokePoint{
			point:         point,
			pressure:      inputPressure(pts[i].Pressure),
			vector:        prev.point.sub(point).unit(),
			distance:      distance,
			runningLength: runningLength,
		}
		out = append(out, prev)
	}

	if len(out) > 1 {
		out[0].vector = out[1].vector
	} else {
		out[0].vector = vec{}
	}
	return out
}

func strokeRadius(size, thinning, pressure float64) float64 {
	return size * (0.5 - thinning*(0.5-pressure))
}

func simulatedPressure(prev, distance, size float64) float64 {
	sp := math.Min(1, distance/size)
	rp := math.Min(1, 1-sp)
	return math.Min(1, prev+(rp-prev)*(sp*rateOfPressureChange))
}

func taperStartEase(t float64) float64 { return t * (2 - t) }

func taperEndEase(t float64) float64 {
	t--
	return t*t*t + 1
}

// outlinePoints walks the sampled points and emits left and right offset
// rails joined by start and end caps.
func outlinePoints(points []strokePoint, o Options) []vec {
	size := o.Size
	if size == 0 {
		size = outlineDefaultSize
	}
	if len(points) == 0 || size <= 0 {
		return nil
	}

	n := len(points)
	totalLength := points[n-1].runningLength
	taperStart := o.Start.Taper
	taperEnd := o.End.Taper
	minDistance := math.Pow(size*o.Smoothing, 2)

	var left, right []vec

	prevPressure := points[0].pressure
	for i := 0; i < n && i < 10; i++ {
		pressure := points[i].pressure
		if o.SimulatePressure {
			pressure = simulatedPressure(prevPressure, points[i].distance, size)
		}
		prevPressure = (prevPressure + pressure) / 2
	}

	radius := strokeRadius(size, o.Thinning, points[n-1].pressure)
	firstRadius := math.NaN()
	prevVector := points[0].vector
	pl := points[0].point
	pr := pl
	tl := pl
	tr := pr
	prevSharpCorner := false

	for i := 0; i < n; i++ {
		pressure := points[i].pressure
		point := points[i].point
		vector := points[i].vector
		runningLength := points[i].runningLength

		// Ignore the short tail, it only adds noise at the end cap.
		if i < n-1 && totalLength-runningLength < 3 {
			continue
		}

		if o.Thinning != 0 {
			if o.SimulatePressure {
				pressure = simulatedPressure(prevPressure, points[i].distance, size)
			}
			radius = strokeRadius(size, o.Thinning, pressure)
		} else {
			radius = size / 2
		}
		if math.IsNaN(firstRadius) {
			firstRadius = radius
		}

		ts := 1.0
		if runningLength < taperStart {
			ts = taperStartEase(runningLength / taperStart)
		}
		te := 1.0
		if totalLength-runningLength < taperEnd {
			te = taperEndEase((totalLength - runningLength) / taperEnd)
		}
		radius = math.Max(0.01, radius*math.Min(ts, te))

		nextVector := vector
		nextDpr := 1.0
		if i < n-1 {
			nextVector = points[i+1].vector
			nextDpr = vector.dot(nextVector)
		}
		prevDpr := vector.dot(prevVector)

		sharpCorner := prevDpr < 0 && !prevSharpCorner
		nextSharpCorner := nextDpr < 0

		if sharpCorner || nextSharpCorner {
			offset := prevVector.per().mul(radius)
			step := 1.0 / 13
			for t := 0.0; t <= 1; t += step {
				tl = point.sub(offset).rotateAround(point, fixedPi*t)
				left = append(left, tl)
				tr = point.add(offset).rotateAround(point, fixedPi*-t)
				right = append(right, tr)
			}
			pl = tl
			pr = tr
			if nextSharpCorner {
				prevSharpCorner = true
			}
			continue
		}
		prevSharpCorner = false

		if i == n-1 {
			offset := vector.per().mul(radius)
			left = append(left, point.sub(offset))
			right = append(right, point.add(offset))
			continue
		}

		offset := nextVector.lerp(vector, nextDpr).per().mul(radius)

		tl = point.sub(offset)
		if i <= 1 || pl.dist2(tl) > minDistance {
			left = append(left, tl)
			pl = tl
		}

		tr = point.add(offset)
		if i <= 1 || pr.dist2(tr) > minDistance {
			right = append(right, tr)
			pr = tr
		}

		prevPressure = pressure
		prevVector = vector
	}

	firstPoint := points[0].point
	lastPoint := points[0].point.add(vec{1, 1})
	if n > 1 {
		lastPoint = points[n-1].point
	}

	if n == 1 {
		if taperStart == 0 && taperEnd == 0 || o.Last {
			r := firstRadius
			if math.IsNaN(r) || r == 0 {
				r = radius
			}
			start := firstPoint.project(firstPoint.sub(lastPoint).per().unit(), -r)
			var dot []vec
			step := 1.0 / 13
			for t := step; t <= 1; t += step {
				dot = append(dot, start.rotateAround(firstPoint, fixedPi*2*t))
			}
			return dot
		}
	}

	var startCap, endCap []vec
	if n > 1 {
		switch {
		case taperStart != 0:
			// tapered start needs no cap
		case o.Start.Cap:
			step := 1.0 / 13
			for t := step; t <= 1; t += step {
				startCap = append(startCap, right[0].rotateAround(firstPoint, fixedPi*t))
			}
		default:
			corners := left[0].sub(right[0])
			a := corners.mul(0.5)
			b := corners.mul(0.51)
			startCap = append(startCap, firstPoint.sub(a), firstPoint.sub(b), firstPoint.add(b), firstPoint.add(a))
		}

		direction := points[n-1].vector.neg().per()
		switch {
		case taperEnd != 0:
			endCap = append(endCap, lastPoint)
		case o.End.Cap:
			start := lastPoint.project(direction, radius)
			step := 1.0 / 29
			for t := step; t < 1; t += step {
				endCap = append(endCap, start.rotateAround(lastPoint, fixedPi*3*t))
			}
		default:
			endCap = append(endCap,
				lastPoint.add(direction.mul(radius)),
				lastPoint.add(direction.mul(radius*0.99)),
				lastPoint.sub(direction.mul(radius*0.99)),
				lastPoint.sub(direction.mul(radius)),
			)
		}
	}

	poly := make([]vec, 0, len(left)+len(endCap)+len(right)+len(startCap))
	poly = append(poly, left...)
	poly = append(poly, endCap...)
	for i := len(right) - 1; i >= 0; i-- {
		poly = append(poly, right[i])
	}
	poly = append(poly, startCap...)
	return poly
}
