package session

import (
	"arena-client/internal/boundary"
	"arena-client/internal/entity"
)

// Frame is everything a Renderer needs to draw one picture. Handles are in
// draw order: fading first, then projectiles, NPCs and players.
type Frame struct {
	Width, Height float64
	Background    Background
	Handles       []*entity.Handle
	Overlay       boundary.Overlay
	LocalID       string
	GameOver      bool
}

// Render builds the current frame and hands it to the renderer.
func (s *Session) Render() {
	if s.renderer == nil {
		return
	}
	s.renderer.Render(s.buildFrame())
}

// buildFrame reuses one Frame and its handle slice between cycles.
func (s *Session) buildFrame() *Frame {
	f := &s.frame
	f.Width = s.camera.Width
	f.Height = s.camera.Height
	f.Background = s.background
	f.Overlay = s.overlay
	f.LocalID = s.localID
	f.GameOver = s.gameOver
	f.Handles = f.Handles[:0]

	s.animator.Each(func(h *entity.Handle) {
		if h.Alpha > 0 {
			f.Handles = append(f.Handles, h)
		}
	})
	for _, kind := range [...]entity.Kind{entity.KindProjectile, entity.KindNPC, entity.KindPlayer} {
		s.registry.Each(func(h *entity.Handle) {
			if h.Kind == kind && h.Visible {
				f.Handles = append(f.Handles, h)
			}
		})
	}
	return f
}
