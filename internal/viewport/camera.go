// Package viewport maps world coordinates onto the screen.
//
// The camera is centered on the local player. World Y grows north while
// screen Y grows downward, so the Y axis is flipped during projection.
package viewport

import (
	"arena-client/internal/geometry"
)

// Camera holds the local player's last known world position and the current
// drawable area.
type Camera struct {
	Center geometry.Point // World position of the local player
	Width  float64        // Drawable width in pixels
	Height float64        // Drawable height in pixels
}

// NewCamera creates a camera for a drawable area of w×h pixels.
func NewCamera(w, h float64) *Camera {
	return &Camera{Width: w, Height: h}
}

// Resize updates the drawable area. Called every cycle with the latest size.
func (c *Camera) Resize(w, h float64) {
	c.Width = w
	c.Height = h
}

// ScreenCenter returns the middle of the drawable area.
func (c *Camera) ScreenCenter() geometry.Point {
	return geometry.Point{X: c.Width / 2, Y: c.Height / 2}
}

// Bounds returns the drawable area as a rectangle anchored at (0, 0).
func (c *Camera) Bounds() geometry.Rect {
	return geometry.Rect{Max: geometry.Point{X: c.Width, Y: c.Height}}
}

// ToScreen projects a world position relative to the camera center.
func (c *Camera) ToScreen(world geometry.Point) geometry.Point {
	return ToScreen(world, c.Center, c.Width, c.Height)
}

// ToScreen projects world onto a W×H screen centered on the world point center.
func ToScreen(world, center geometry.Point, w, h float64) geometry.Point {
	return geometry.Point{
		X: w/2 + (world.X - center.X),
		Y: h/2 - (world.Y - center.Y),
	}
}

// ArenaOrigin returns the screen position of the world origin.
func (c *Camera) ArenaOrigin() geometry.Point {
	return c.ToScreen(geometry.Point{})
}

// Visible reports whether a screen-space box overlaps the drawable area.
func (c *Camera) Visible(r geometry.Rect) bool {
	return r.Overlaps(c.Bounds())
}

// ScreenToAngle converts a screen position (for example the cursor) into an
// aim angle around the screen center. N = -pi/2, E = 0, S = pi/2, W = pi.
func (c *Camera) ScreenToAngle(x, y float64) float64 {
	return geometry.AngleFrom(c.ScreenCenter(), geometry.Point{X: x, Y: y})
}

// Delta returns how far the camera would move to reach next.
func (c *Camera) Delta(next geometry.Point) (dx, dy float64) {
	return next.X - c.Center.X, next.Y - c.Center.Y
}
