// Package entity holds the client-side visual handles that mirror server
// entities, keyed by the server-assigned id.
package entity

import (
	"image"
	"image/color"
	"math"

	"arena-client/internal/geometry"
)

// Kind distinguishes the three entity families sent by the server.
type Kind int

const (
	KindPlayer Kind = iota
	KindNPC
	KindProjectile
)

func (k Kind) String() string {
	switch k {
	case KindPlayer:
		return "player"
	case KindNPC:
		return "npc"
	case KindProjectile:
		return "projectile"
	default:
		return "unknown"
	}
}

// Base dimensions of an unscaled handle, in pixels.
const (
	AgentWidth            = 50.0
	AgentHeight           = 100.0 // triangle plus bars above and name tag below
	ProjectileRadius      = 7.0
	ProjectileBorderWidth = 4.0
)

// Body carries the kind-specific display data of a handle.
type Body interface {
	kind() Kind
}

// PlayerBody is the display data of a player agent.
type PlayerBody struct {
	Name        string
	HealthRatio float64
	PointsRatio float64
	ShowPoints  bool // only the local player has a points bar
}

// NpcBody is the display data of an NPC agent.
type NpcBody struct {
	Size        float64
	HealthRatio float64
}

// ProjectileBody is the display data of a projectile.
type ProjectileBody struct {
	Size float64
}

func (PlayerBody) kind() Kind     { return KindPlayer }
func (NpcBody) kind() Kind        { return KindNPC }
func (ProjectileBody) kind() Kind { return KindProjectile }

// Handle is the visual counterpart of one server entity.
type Handle struct {
	ID   string
	Kind Kind

	World    geometry.Point // last known world position
	Screen   geometry.Point // center in screen pixels
	Rotation float64        // radians, texture space
	Alpha    float64
	Scale    float64
	Visible  bool

	Color   color.RGBA
	Body    Body
	Texture image.Image

	fingerprint uint64
	styled      bool
}

func newHandle(id string, kind Kind) *Handle {
	return &Handle{
		ID:    id,
		Kind:  kind,
		Alpha: 1,
		Scale: 1,
	}
}

// Size returns the unscaled bounding box dimensions for the handle's body.
func (h *Handle) Size() (w, hgt float64) {
	switch b := h.Body.(type) {
	case NpcBody:
		return AgentWidth * b.Size, AgentHeight * b.Size
	case ProjectileBody:
		d := 2*ProjectileRadius*b.Size + ProjectileBorderWidth
		return d, d
	default:
		return AgentWidth, AgentHeight
	}
}

// Bounds returns the screen-space bounding box, including the current scale.
func (h *Handle) Bounds() geometry.Rect {
	w, hgt := h.Size()
	return geometry.RectFromCenter(h.Screen, w*h.Scale, hgt*h.Scale)
}

// Translate moves the handle on screen.
func (h *Handle) Translate(dx, dy float64) {
	h.Screen.X += dx
	h.Screen.Y += dy
}

// Ratio returns num/den clamped to [0,1], or 0 when den is not positive.
func Ratio(num, den float64) float64 {
	if den <= 0 {
		return 0
	}
	return math.Max(0, math.Min(1, num/den))
}

// AgentRotation converts a server heading into texture rotation. Agent
// textures point left, so a half turn is added.
func AgentRotation(angle float64) float64 {
	return angle + math.Pi
}
