package geometry

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const eps = 1e-9

func TestIntersectCircleSegment(t *testing.T) {
	tests := []struct {
		name   string
		c      Point
		r      float64
		a1, a2 Point
		status IntersectionStatus
		points []Point
	}{
		{"crossing once", Pt(0, 0), 500, Pt(0, 0), Pt(800, 0), Crossing, []Point{Pt(500, 0)}},
		{"crossing twice", Pt(400, 0), 100, Pt(0, 0), Pt(800, 0), Crossing, []Point{Pt(500, 0), Pt(300, 0)}},
		{"segment inside", Pt(0, 0), 1000, Pt(0, 0), Pt(800, 0), Inside, nil},
		{"segment before circle", Pt(2000, 0), 100, Pt(0, 0), Pt(800, 0), Outside, nil},
		{"line misses", Pt(400, 500), 100, Pt(0, 0), Pt(800, 0), Outside, nil},
		{"tangent", Pt(400, -100), 100, Pt(0, 0), Pt(800, 0), Tangent, nil},
		{"degenerate", Pt(0, 0), 10, Pt(1, 1), Pt(1, 1), Outside, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IntersectCircleSegment(tt.c, tt.r, tt.a1, tt.a2)
			assert.Equal(t, tt.status, got.Status)
			require.Len(t, got.Points, len(tt.points))
			for i, p := range tt.points {
				assert.InDelta(t, p.X, got.Points[i].X, eps)
				assert.InDelta(t, p.Y, got.Points[i].Y, eps)
			}
		})
	}
}

func TestIntersectCircleRectangle_TwoEdges(t *testing.T) {
	res := IntersectCircleRectangle(Pt(0, 0), 500, Pt(0, 0), Pt(800, 600))

	require.Equal(t, Crossing, res.Status)
	require.Len(t, res.Points, 2)
	assert.InDelta(t, 500, res.Points[0].X, eps)
	assert.InDelta(t, 0, res.Points[0].Y, eps)
	assert.InDelta(t, 0, res.Points[1].X, eps)
	assert.InDelta(t, 500, res.Points[1].Y, eps)
}

func TestIntersectCircleRectangle_CircleInsideRect(t *testing.T) {
	res := IntersectCircleRectangle(Pt(400, 300), 100, Pt(0, 0), Pt(800, 600))

	assert.Equal(t, Outside, res.Status)
	assert.Empty(t, res.Points)
}

func TestIntersectCircleRectangle_RectInsideCircle(t *testing.T) {
	res := IntersectCircleRectangle(Pt(400, 300), 4030, Pt(0, 0), Pt(800, 600))

	assert.Equal(t, Inside, res.Status)
	assert.Empty(t, res.Points)
}

func TestIntersectCircleRectangle_CornerCountedPerEdge(t *testing.T) {
	// Circle of radius 1000 around the origin passes exactly through (800, 600).
	res := IntersectCircleRectangle(Pt(0, 0), 1000, Pt(800, 600), Pt(0, 0))

	require.Len(t, res.Points, 2)
	for _, p := range res.Points {
		assert.InDelta(t, 800, p.X, eps)
		assert.InDelta(t, 600, p.Y, eps)
	}
}

func TestPointsOutsideCircle(t *testing.T) {
	r := Rect{Min: Pt(0, 0), Max: Pt(800, 600)}
	corners := r.Corners()

	out := PointsOutsideCircle(corners[:], Pt(0, 0), 700)
	assert.ElementsMatch(t, []Point{Pt(800, 0), Pt(800, 600)}, out)

	// On the circle counts as outside.
	out = PointsOutsideCircle([]Point{Pt(3, 4)}, Pt(0, 0), 5)
	assert.Len(t, out, 1)

	out = PointsOutsideCircle(corners[:], Pt(400, 300), 4030)
	assert.Empty(t, out)
}

func TestRectOverlaps(t *testing.T) {
	screen := Rect{Min: Pt(0, 0), Max: Pt(800, 600)}

	tests := []struct {
		name string
		r    Rect
		want bool
	}{
		{"centered", RectFromCenter(Pt(400, 300), 50, 50), true},
		{"partially left", RectFromCenter(Pt(-10, 300), 50, 50), true},
		{"touching left edge", RectFromCenter(Pt(-25, 300), 50, 50), false},
		{"far right", RectFromCenter(Pt(900, 300), 50, 50), false},
		{"below", RectFromCenter(Pt(400, 640), 50, 50), false},
		{"partially below", RectFromCenter(Pt(400, 620), 50, 50), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.r.Overlaps(screen))
		})
	}
}

func TestAngleFrom(t *testing.T) {
	origin := Pt(400, 300)

	assert.InDelta(t, 0, AngleFrom(origin, Pt(500, 300)), eps)
	assert.InDelta(t, -math.Pi/2, AngleFrom(origin, Pt(400, 0)), eps)
	assert.InDelta(t, math.Pi/2, AngleFrom(origin, Pt(400, 600)), eps)
	assert.InDelta(t, math.Pi, AngleFrom(origin, Pt(0, 300)), eps)
}

func TestSortByAngle(t *testing.T) {
	points := []Point{Pt(0, 300), Pt(400, 600), Pt(800, 300), Pt(400, 0)}

	SortByAngle(points, Pt(400, 300))

	assert.Equal(t, []Point{Pt(400, 0), Pt(800, 300), Pt(400, 600), Pt(0, 300)}, points)
}

func TestRectCenterAndLerp(t *testing.T) {
	r := Rect{Min: Pt(0, 0), Max: Pt(800, 600)}
	assert.Equal(t, Pt(400, 300), r.Center())
	assert.Equal(t, Pt(200, 150), Pt(0, 0).Lerp(Pt(800, 600), 0.25))
	assert.Equal(t, 25.0, Pt(0, 0).DistSq(Pt(3, 4)))
}
