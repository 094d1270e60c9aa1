package geom

import "math"

// Matrix2D represents a 2D affine transformation matrix.
// Layout: [a, b, c, d, e, f] representing:
// | a  c  e |
// | b  d  f |
// | 0  0  1 |
//
// Where:
// - a, d = scale
// - b, c = skew/rotation
// - e, f = translation
type Matrix2D [6]float64

// Identity returns the identity matrix.
func Identity() Matrix2D {
	return Matrix2D{1, 0, 0, 1, 0, 0}
}

// Translate returns a translation matrix.
func Translate(tx, ty float64) Matrix2D {
	return Matrix2D{1, 0, 0, 1, tx, ty}
}

// Scale returns a scale matrix.
func Scale(sx, sy float64) Matrix2D {
	return Matrix2D{sx, 0, 0, sy, 0, 0}
}

// Rotate returns a rotation matrix (angle in radians).
func Rotate(radians float64) Matrix2D {
	sin, cos := math.Sincos(radians)
	return Matrix2D{cos, sin, -sin, cos, 0, 0}
}

// RotateDegrees returns a rotation matrix (angle in degrees).
func RotateDegrees(degrees float64) Matrix2D {
	return Rotate(degrees * math.Pi / 180.0)
}

// Skew returns a skew matrix (angles in radians).
func Skew(ax, ay float64) Matrix2D {
	return Matrix2D{1, math.Tan(ay), math.Tan(ax), 1, 0, 0}
}

// About conjugates m so that it operates around p instead of the origin.
func (m Matrix2D) About(p Point) Matrix2D {
	return Translate(p.X, p.Y).Multiply(m).Multiply(Translate(-p.X, -p.Y))
}

// Multiply multiplies this matrix by another: result = m * other
// This applies 'other' first, then 'm'.
func (m Matrix2D) Multiply(other Matrix2D) Matrix2D {
	return Matrix2D{
		m[0]*other[0] + m[2]*other[1],        // a
		m[1]*other[0] + m[3]*other[1],        // b
		m[0]*other[2] + m[2]*other[3],        // c
		m[1]*other[2] + m[3]*other[3],        // d
		m[0]*other[4] + m[2]*other[5] + m[4], // e
		m[1]*other[4] + m[3]*other[5] + m[5], // f
	}
}

// TransformPoint applies the matrix to a point.
func (m Matrix2D) TransformPoint(p Point) Point {
	return Point{m[0]*p.X + m[2]*p.Y + m[4], m[1]*p.X + m[3]*p.Y + m[5]}
}

// TransformVector applies the linear part of the matrix, ignoring translation.
func (m Matrix2D) TransformVector(p Point) Point {
	return Point{m[0]*p.X + m[2]*p.Y, m[1]*p.X + m[3]*p.Y}
}

// TransformRect transforms a rectangle and returns its axis-aligned bounding box.
func (m Matrix2D) TransformRect(r Rect) Rect {
	out, _ := BoundsOf([]Point{
		m.TransformPoint(r.Min),
		m.TransformPoint(Point{r.Max.X, r.Min.Y}),
		m.TransformPoint(r.Max),
		m.TransformPoint(Point{r.Min.X, r.Max.Y}),
	})
	return out
}

// Determinant returns the determinant of the matrix.
func (m Matrix2D) Determinant() float64 {
	return m[0]*m[3] - m[1]*m[2]
}

// ScaleFactor returns the geometric mean of the axis scales, used to scale
// widths such as stroke widths.
func (m Matrix2D) ScaleFactor() float64 {
	return math.Sqrt(math.Abs(m.Determinant()))
}

// Invert returns the inverse of the matrix, or Identity if not invertible.
func (m Matrix2D) Invert() Matrix2D {
	det := m.Determinant()
	if det == 0 {
		return Identity()
	}

	invDet := 1.0 / det
	return Matrix2D{
		m[3] * invDet,
		-m[1] * invDet,
		-m[2] * invDet,
		m[0] * invDet,
		(m[2]*m[5] - m[3]*m[4]) * invDet,
		(m[1]*m[4] - m[0]*m[5]) * invDet,
	}
}

// FromTransform creates a matrix from decomposed transform properties.
// This composes: Translate(x, y) * Rotate(r) * Scale(sx, sy) * Translate(-ax, -ay)
// The anchor point (ax, ay) is the rotation/scale center.
func FromTransform(x, y, sx, sy, rDegrees, ax, ay float64) Matrix2D {
	sin, cos := math.Sincos(rDegrees * math.Pi / 180.0)

	return Matrix2D{
		cos * sx,                       // a
		sin * sx,                       // b
		-sin * sy,                      // c
		cos * sy,                       // d
		x + ax - cos*sx*ax + sin*sy*ay, // e
		y + ay - sin*sx*ax - cos*sy*ay, // f
	}
}

// Viewport maps the scene-space window spanned by topLeft and bottomRight
// onto a width x height pixel grid. Either axis may be inverted.
func Viewport(topLeft, bottomRight Point, width, height float64) Matrix2D {
	dx := bottomRight.X - topLeft.X
	dy := bottomRight.Y - topLeft.Y
	if dx == 0 || dy == 0 {
		return Identity()
	}
	sx := width / dx
	sy := height / dy
	return Matrix2D{sx, 0, 0, sy, -topLeft.X * sx, -topLeft.Y * sy}
}

// ToSlice returns the matrix as a float64 slice for JSON serialization.
func (m Matrix2D) ToSlice() []float64 {
	return []float64{m[0], m[1], m[2], m[3], m[4], m[5]}
}

// IsIdentity checks if this is the identity matrix (within epsilon).
func (m Matrix2D) IsIdentity() bool {
	const eps = 1e-10
	return math.Abs(m[0]-1) < eps &&
		math.Abs(m[1]) < eps &&
		math.Abs(m[2]) < eps &&
		math.Abs(m[3]-1) < eps &&
		math.Abs(m[4]) < eps &&
		math.Abs(m[5]) < eps
}
