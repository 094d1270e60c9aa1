package vobject

import "github.com/inamate/motion/internal/geom"

// Partial returns the portion of the path between the fractions start and
// end of its arc length. Each node is cut by its own length. Subpaths that
// fall entirely outside the range disappear.
func (o VectorObject) Partial(start, end float64, recursive bool) VectorObject {
	return o.mapTree(recursive, func(n VectorObject) VectorObject {
		return n.ownPartial(start, end)
	})
}

func (o VectorObject) ownPartial(start, end float64) VectorObject {
	start = geom.Clamp(start, 0, 1)
	end = geom.Clamp(end, 0, 1)
	if !o.HasPoints() || (start <= 0 && end >= 1) {
		return o
	}
	if end <= start {
		o.Subpaths = nil
		return o
	}

	type seg struct {
		curve  geom.CubicBezier
		sub    int
		length float64
	}
	var segs []seg
	total := 0.0
	for i, s := range o.Subpaths {
		for j := range s.NumSegments() {
			c := s.Segment(j)
			l := c.Arclen(arclenAccuracy)
			segs = append(segs, seg{curve: c, sub: i, length: l})
			total += l
		}
	}
	if total == 0 {
		return o
	}

	lo, hi := start*total, end*total
	var out []Subpath
	var cur []geom.CubicBezier
	curSub := -1
	flush := func() {
		if len(cur) > 0 {
			out = append(out, SubpathFromSegments(cur))
		}
		cur = nil
	}
	pos := 0.0
	for _, sg := range segs {
		s0, s1 := pos, pos+sg.length
		pos = s1
		if sg.length == 0 || s1 <= lo || s0 >= hi {
			continue
		}
		if sg.sub != curSub {
			flush()
			curSub = sg.sub
		}
		t0 := (max(lo, s0) - s0) / sg.length
		t1 := (min(hi, s1) - s0) / sg.length
		cur = append(cur, sg.curve.Subsegment(t0, t1))
	}
	flush()
	o.Subpaths = out
	return o
}
