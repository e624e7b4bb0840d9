// Package boundary computes the shaded region of the screen that lies
// outside the circular arena.
package boundary

import (
	"image/color"

	"arena-client/internal/geometry"
	"arena-client/internal/viewport"
)

// Alpha is the opacity of the shaded region.
const Alpha = 0.5

// Overlay is the polygon to fill over the out-of-arena area.
// Polygon is nil when nothing should be drawn.
type Overlay struct {
	Visible bool
	Polygon []geometry.Point
	Alpha   float64
	Color   color.RGBA
}

// Hidden is the empty overlay.
var Hidden = Overlay{Alpha: Alpha, Color: color.RGBA{A: 255}}

// Compute returns the overlay for the camera's viewport and an arena of the
// given radius centered at the world origin.
//
// Only the common case of the boundary crossing the viewport exactly twice
// is shaded. Corners of the viewport outside the arena join the two crossing
// points, and the result is ordered by angle around the viewport center.
func Compute(cam *viewport.Camera, radius float64) Overlay {
	if cam.Width <= 0 || cam.Height <= 0 {
		return Hidden
	}

	center := cam.ArenaOrigin()
	view := cam.Bounds()

	hit := geometry.IntersectCircleRectangle(center, radius, view.Min, view.Max)
	if len(hit.Points) != 2 {
		return Hidden
	}

	corners := view.Corners()
	outside := geometry.PointsOutsideCircle(corners[:], center, radius)

	poly := make([]geometry.Point, 0, len(hit.Points)+len(outside))
	poly = append(poly, hit.Points...)
	poly = append(poly, outside...)
	geometry.SortByAngle(poly, cam.ScreenCenter())

	return Overlay{
		Visible: true,
		Polygon: poly,
		Alpha:   Alpha,
		Color:   color.RGBA{A: 255},
	}
}
