package geometry

import "math"

// IntersectionStatus classifies a circle/shape test.
type IntersectionStatus int

const (
	// Outside means the shape lies entirely outside the circle.
	Outside IntersectionStatus = iota
	// Inside means the shape lies entirely inside the circle.
	Inside
	// Tangent means a segment only touches the circle. No point is reported.
	Tangent
	// Crossing means at least one intersection point was found.
	Crossing
)

// Intersection is the result of a circle/segment or circle/rectangle test.
type Intersection struct {
	Status IntersectionStatus
	Points []Point
}

// IntersectCircleSegment intersects a circle with the segment a1→a2 using the
// parametric form a1 + u(a2-a1), keeping roots with 0 <= u <= 1.
func IntersectCircleSegment(c Point, r float64, a1, a2 Point) Intersection {
	dx := a2.X - a1.X
	dy := a2.Y - a1.Y

	a := dx*dx + dy*dy
	b := 2 * (dx*(a1.X-c.X) + dy*(a1.Y-c.Y))
	cc := c.X*c.X + c.Y*c.Y + a1.X*a1.X + a1.Y*a1.Y - 2*(c.X*a1.X+c.Y*a1.Y) - r*r

	if a == 0 {
		// Degenerate segment
		return Intersection{Status: Outside}
	}

	deter := b*b - 4*a*cc
	switch {
	case deter < 0:
		return Intersection{Status: Outside}
	case deter == 0:
		return Intersection{Status: Tangent}
	}

	e := math.Sqrt(deter)
	u1 := (-b + e) / (2 * a)
	u2 := (-b - e) / (2 * a)

	in1 := u1 >= 0 && u1 <= 1
	in2 := u2 >= 0 && u2 <= 1
	if !in1 && !in2 {
		if (u1 < 0 && u2 < 0) || (u1 > 1 && u2 > 1) {
			return Intersection{Status: Outside}
		}
		return Intersection{Status: Inside}
	}

	res := Intersection{Status: Crossing}
	if in1 {
		res.Points = append(res.Points, a1.Lerp(a2, u1))
	}
	if in2 {
		res.Points = append(res.Points, a1.Lerp(a2, u2))
	}
	return res
}

// IntersectCircleRectangle intersects a circle with the four edges of the
// rectangle spanned by r1 and r2. Edges are walked top, right, bottom, left.
// A circle passing exactly through a corner is reported once per edge, so
// corner hits appear twice.
func IntersectCircleRectangle(c Point, r float64, r1, r2 Point) Intersection {
	lo := Point{X: math.Min(r1.X, r2.X), Y: math.Min(r1.Y, r2.Y)}
	hi := Point{X: math.Max(r1.X, r2.X), Y: math.Max(r1.Y, r2.Y)}
	topRight := Point{X: hi.X, Y: lo.Y}
	bottomLeft := Point{X: lo.X, Y: hi.Y}

	edges := [4]Intersection{
		IntersectCircleSegment(c, r, lo, topRight),
		IntersectCircleSegment(c, r, topRight, hi),
		IntersectCircleSegment(c, r, hi, bottomLeft),
		IntersectCircleSegment(c, r, bottomLeft, lo),
	}

	var res Intersection
	allInside := true
	for _, e := range edges {
		res.Points = append(res.Points, e.Points...)
		if e.Status != Inside {
			allInside = false
		}
	}

	switch {
	case len(res.Points) > 0:
		res.Status = Crossing
	case allInside:
		res.Status = Inside
	default:
		res.Status = Outside
	}
	return res
}

// PointsOutsideCircle returns the points whose squared distance from c is at
// least r². Points exactly on the circle count as outside.
func PointsOutsideCircle(points []Point, c Point, r float64) []Point {
	out := make([]Point, 0, len(points))
	rr := r * r
	for _, p := range points {
		if p.DistSq(c) >= rr {
			out = append(out, p)
		}
	}
	return out
}
