package geom

import (
	"math"

	"honnef.co/go/curve"
)

// ArcCubics approximates an elliptical arc with cubic beziers, one per
// quarter turn or less. The ellipse is centered at center with radii rx, ry,
// rotated by rotation radians; the arc starts at angle start and sweeps by
// sweep radians (negative sweeps run clockwise in a y-down space).
func ArcCubics(center Point, rx, ry, rotation, start, sweep float64) []CubicBezier {
	arc := curve.Arc{
		Center:     curve.Point(center),
		Radii:      curve.Vec(rx, ry),
		StartAngle: start,
		SweepAngle: sweep,
		XRotation:  rotation,
	}
	// A tolerance no smaller than the radius keeps the split at quarter turns.
	tolerance := max(math.Abs(rx), math.Abs(ry), 1)

	var out []CubicBezier
	var pen Point
	for el := range arc.PathElements(tolerance) {
		switch el.Kind {
		case curve.MoveToKind:
			pen = Point(el.P0)
		case curve.CubicToKind:
			c := CubicBezier{pen, Point(el.P0), Point(el.P1), Point(el.P2)}
			out = append(out, c)
			pen = c.P3
		}
	}
	if len(out) == 0 {
		return []CubicBezier{DegenerateCubic(pen)}
	}
	return out
}

// EndpointArcCubics converts an SVG endpoint-parameterized arc (the "A" path
// command) from p0 to p1 into cubic beziers. rotation is in degrees.
func EndpointArcCubics(p0 Point, rx, ry, rotation float64, large, sweep bool, p1 Point) []CubicBezier {
	if p0.ApproxEqual(p1, Epsilon) {
		return nil
	}
	rx, ry = math.Abs(rx), math.Abs(ry)
	if rx < Epsilon || ry < Epsilon {
		return []CubicBezier{LineCubic(p0, p1)}
	}

	phi := rotation * math.Pi / 180
	sinPhi, cosPhi := math.Sincos(phi)

	// Step 1: compute (x1', y1')
	dx := (p0.X - p1.X) / 2
	dy := (p0.Y - p1.Y) / 2
	x1 := cosPhi*dx + sinPhi*dy
	y1 := -sinPhi*dx + cosPhi*dy

	// scale the radii up if they are too small to span the endpoints
	lambda := (x1*x1)/(rx*rx) + (y1*y1)/(ry*ry)
	if lambda > 1 {
		s := math.Sqrt(lambda)
		rx *= s
		ry *= s
	}

	// Step 2: compute (cx', cy')
	num := rx*rx*ry*ry - rx*rx*y1*y1 - ry*ry*x1*x1
	den := rx*rx*y1*y1 + ry*ry*x1*x1
	coef := 0.0
	if den > 0 && num > 0 {
		coef = math.Sqrt(num / den)
	}
	if large == sweep {
		coef = -coef
	}
	cx1 := coef * rx * y1 / ry
	cy1 := -coef * ry * x1 / rx

	// Step 3: compute (cx, cy)
	center := Point{
		X: cosPhi*cx1 - sinPhi*cy1 + (p0.X+p1.X)/2,
		Y: sinPhi*cx1 + cosPhi*cy1 + (p0.Y+p1.Y)/2,
	}

	// Step 4: compute the start angle and sweep
	start := vectorAngle(Point{1, 0}, Point{(x1 - cx1) / rx, (y1 - cy1) / ry})
	delta := vectorAngle(
		Point{(x1 - cx1) / rx, (y1 - cy1) / ry},
		Point{(-x1 - cx1) / rx, (-y1 - cy1) / ry},
	)
	if !sweep && delta > 0 {
		delta -= 2 * math.Pi
	} else if sweep && delta < 0 {
		delta += 2 * math.Pi
	}

	out := ArcCubics(center, rx, ry, phi, start, delta)
	// pin the endpoints to avoid drift
	out[0].P0 = p0
	out[len(out)-1].P3 = p1
	return out
}

func vectorAngle(u, v Point) float64 {
	return math.Atan2(u.X*v.Y-u.Y*v.X, u.Dot(v))
}
