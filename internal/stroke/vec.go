package stroke

import "math"

// vec is a 2D vector used by the outline generator.
type vec struct{ x, y float64 }

func (a vec) add(b vec) vec { return vec{a.x + b.x, a.y + b.y} }

func (a vec) sub(b vec) vec { return vec{a.x - b.x, a.y - b.y} }

func (a vec) mul(n float64) vec { return vec{a.x * n, a.y * n} }

func (a vec) neg() vec { return vec{-a.x, -a.y} }

// per returns the perpendicular (rotated a quarter turn clockwise).
func (a vec) per() vec { return vec{a.y, -a.x} }

func (a vec) dot(b vec) float64 { return a.x*b.x + a.y*b.y }

func (a vec) len() float64 { return math.Hypot(a.x, a.y) }

func (a vec) dist(b vec) float64 { return a.sub(b).len() }

func (a vec) dist2(b vec) float64 {
	d := a.sub(b)
	return d.x*d.x + d.y*d.y
}

func (a vec) equal(b vec) bool { return a.x == b.x && a.y == b.y }

func (a vec) lerp(b vec, t float64) vec { return a.add(b.sub(a).mul(t)) }

func (a vec) unit() vec {
	l := a.len()
	return vec{a.x / l, a.y / l}
}

// project moves a along direction b by c.
func (a vec) project(b vec, c float64) vec { return a.add(b.mul(c)) }

// rotateAround rotates a around center c by r radians.
func (a vec) rotateAround(c vec, r float64) vec {
	s, co := math.Sin(r), math.Cos(r)
	px, py := a.x-c.x, a.y-c.y
	return vec{px*co - py*s + c.x, px*s + py*co + c.y}
}
