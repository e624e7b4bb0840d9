// Package geometry holds the small 2D helpers shared by the transform,
// culling and boundary code. All coordinates are float64 screen or world units.
package geometry

import (
	"math"
	"sort"
)

// Point is a 2D coordinate.
type Point struct {
	X, Y float64
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// Lerp returns the point at parameter t along the segment p→q.
func (p Point) Lerp(q Point, t float64) Point {
	return Point{
		X: p.X + (q.X-p.X)*t,
		Y: p.Y + (q.Y-p.Y)*t,
	}
}

// DistSq returns the squared distance between two points.
func (p Point) DistSq(q Point) float64 {
	dx := p.X - q.X
	dy := p.Y - q.Y
	return dx*dx + dy*dy
}

// Rect is an axis-aligned rectangle. Min is the top-left corner in screen space.
type Rect struct {
	Min, Max Point
}

// RectFromCenter builds a rectangle of the given size centered on c.
func RectFromCenter(c Point, w, h float64) Rect {
	return Rect{
		Min: Point{X: c.X - w/2, Y: c.Y - h/2},
		Max: Point{X: c.X + w/2, Y: c.Y + h/2},
	}
}

// Overlaps reports whether two rectangles share interior area.
// Touching edges do not count as overlap.
func (r Rect) Overlaps(o Rect) bool {
	return r.Max.X > o.Min.X && r.Min.X < o.Max.X &&
		r.Max.Y > o.Min.Y && r.Min.Y < o.Max.Y
}

// Corners returns top-left, top-right, bottom-left, bottom-right.
func (r Rect) Corners() [4]Point {
	return [4]Point{
		{X: r.Min.X, Y: r.Min.Y},
		{X: r.Max.X, Y: r.Min.Y},
		{X: r.Min.X, Y: r.Max.Y},
		{X: r.Max.X, Y: r.Max.Y},
	}
}

// Center returns the rectangle midpoint.
func (r Rect) Center() Point {
	return Point{X: (r.Min.X + r.Max.X) / 2, Y: (r.Min.Y + r.Max.Y) / 2}
}

// AngleFrom returns the polar angle of p around origin, in radians.
// Screen convention: N = -pi/2, E = 0, S = pi/2, W = pi.
func AngleFrom(origin, p Point) float64 {
	return math.Atan2(p.Y-origin.Y, p.X-origin.X)
}

// SortByAngle orders points in place by polar angle around origin.
// The sort is stable so coincident angles keep their input order.
func SortByAngle(points []Point, origin Point) {
	sort.SliceStable(points, func(i, j int) bool {
		return AngleFrom(origin, points[i]) < AngleFrom(origin, points[j])
	})
}
