package session

import "arena-client/internal/geometry"

// Stats is a point-in-time summary safe to read from any goroutine.
type Stats struct {
	LocalID   string         `json:"localId"`
	GameOver  bool           `json:"gameOver"`
	Camera    geometry.Point `json:"camera"`
	Width     float64        `json:"width"`
	Height    float64        `json:"height"`
	Active    int            `json:"active"`
	Fading    int            `json:"fading"`
	Cycles    uint64         `json:"cycles"`
	Skipped   uint64         `json:"skipped"`
	Malformed uint64         `json:"malformed"`
	Revives   uint64         `json:"rejectedRevives"`
	Resets    uint64         `json:"resets"`
	Faded     uint64         `json:"fadesCompleted"`
	Boundary  bool           `json:"boundaryVisible"`
}

// Stats returns the summary published at the end of the last cycle.
func (s *Session) Stats() Stats {
	return *s.stats.Load()
}

func (s *Session) publish() {
	active, fading := s.registry.Len()
	s.stats.Store(&Stats{
		LocalID:   s.localID,
		GameOver:  s.gameOver,
		Camera:    s.camera.Center,
		Width:     s.camera.Width,
		Height:    s.camera.Height,
		Active:    active,
		Fading:    fading,
		Cycles:    s.cycles,
		Skipped:   s.skipped,
		Malformed: s.malformed,
		Revives:   s.revives,
		Resets:    s.resets,
		Faded:     s.animator.Completed(),
		Boundary:  s.overlay.Visible,
	})
}
