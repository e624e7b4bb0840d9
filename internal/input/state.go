// Package input tracks the local player's controls and streams them to the
// server at a fixed rate.
package input

import "sync"

// Direction is a movement key.
type Direction int

const (
	Up Direction = iota
	Down
	Left
	Right
)

func (d Direction) opposite() Direction {
	switch d {
	case Up:
		return Down
	case Down:
		return Up
	case Left:
		return Right
	default:
		return Left
	}
}

// Payload is the wire form of the input state. Only active keys are sent,
// so an idle state marshals to {}.
type Payload struct {
	Up       bool     `json:"up,omitempty"`
	Down     bool     `json:"down,omitempty"`
	Left     bool     `json:"left,omitempty"`
	Right    bool     `json:"right,omitempty"`
	IsFiring bool     `json:"isFiring,omitempty"`
	Angle    *float64 `json:"angle,omitempty"`
}

// Empty reports whether the payload would marshal to {}.
func (p Payload) Empty() bool {
	return !p.Up && !p.Down && !p.Left && !p.Right && !p.IsFiring && p.Angle == nil
}

// State is the current control state. Safe for concurrent use: the display
// writes it and the sender reads it.
type State struct {
	mu     sync.Mutex
	keys   [4]bool
	firing bool
	angle  *float64
}

// Press activates a direction and cancels its opposite.
func (s *State) Press(d Direction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys[d] = true
	s.keys[d.opposite()] = false
}

// Release deactivates a direction.
func (s *State) Release(d Direction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys[d] = false
}

// StopMovement releases every direction.
func (s *State) StopMovement() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys = [4]bool{}
}

// StartFiring starts firing toward angle.
func (s *State) StartFiring(angle float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.firing = true
	s.angle = &angle
}

// StopFiring stops firing and forgets the aim.
func (s *State) StopFiring() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.firing = false
	s.angle = nil
}

// Payload returns the current wire payload without changing the state.
func (s *State) Payload() Payload {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.payloadLocked()
}

func (s *State) payloadLocked() Payload {
	p := Payload{
		Up:       s.keys[Up],
		Down:     s.keys[Down],
		Left:     s.keys[Left],
		Right:    s.keys[Right],
		IsFiring: s.firing,
	}
	if s.angle != nil {
		a := *s.angle
		p.Angle = &a
	}
	return p
}
