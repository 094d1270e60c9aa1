package geom

// Rect is an axis-aligned bounding box.
type Rect struct {
	Min Point `json:"min"`
	Max Point `json:"max"`
}

// R builds a Rect from two opposite corners in any order.
func R(a, b Point) Rect {
	return Rect{
		Min: Point{min(a.X, b.X), min(a.Y, b.Y)},
		Max: Point{max(a.X, b.X), max(a.Y, b.Y)},
	}
}

// BoundsOf returns the smallest Rect containing all points. ok is false for
// an empty slice, in which case the zero Rect is returned.
func BoundsOf(points []Point) (r Rect, ok bool) {
	for i, p := range points {
		if i == 0 {
			r = Rect{Min: p, Max: p}
			continue
		}
		r = r.Expand(p)
	}
	return r, len(points) > 0
}

func (r Rect) Width() float64  { return r.Max.X - r.Min.X }
func (r Rect) Height() float64 { return r.Max.Y - r.Min.Y }

// Center returns the center point of the rect.
func (r Rect) Center() Point {
	return r.Min.Lerp(r.Max, 0.5)
}

// Contains checks if a point is inside the rect.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.Min.X && p.X <= r.Max.X && p.Y >= r.Min.Y && p.Y <= r.Max.Y
}

// IsEmpty checks if the rect has zero or negative area.
func (r Rect) IsEmpty() bool {
	return r.Width() <= 0 || r.Height() <= 0
}

// Expand returns the smallest rect containing r and p.
func (r Rect) Expand(p Point) Rect {
	return Rect{
		Min: Point{min(r.Min.X, p.X), min(r.Min.Y, p.Y)},
		Max: Point{max(r.Max.X, p.X), max(r.Max.Y, p.Y)},
	}
}

// Union returns the smallest rect containing both rects. Unlike IsEmpty this
// keeps zero-area rects, so that lines and points still contribute.
func (r Rect) Union(other Rect) Rect {
	return r.Expand(other.Min).Expand(other.Max)
}

// Corner selects a point of the rect by per-axis keys in {-1, 0, 1}:
// -1 is the min edge, 1 the max edge and 0 the midpoint.
func (r Rect) Corner(kx, ky float64) Point {
	c := r.Center()
	return Point{
		X: c.X + kx*r.Width()/2,
		Y: c.Y + ky*r.Height()/2,
	}
}
