// Package fade animates despawned handles until they disappear.
//
// Each fading handle is a small state machine advanced by Tick. A fade
// cannot be cancelled; when alpha reaches zero the handle is hidden and
// handed to the release hook.
package fade

import (
	"sort"

	"arena-client/internal/entity"
)

// Style selects how a handle fades.
type Style int

const (
	// Plain lowers alpha only. Used for agents.
	Plain Style = iota
	// Shrink lowers alpha and scale together. Used for projectiles.
	Shrink
)

// DefaultStep is the alpha decrement per tick.
const DefaultStep = 0.05

// epsilon absorbs float error so a fade of step s ends after exactly
// ceil(1/s) ticks.
const epsilon = 1e-9

// StyleFor returns the fade style used for a kind.
func StyleFor(k entity.Kind) Style {
	if k == entity.KindProjectile {
		return Shrink
	}
	return Plain
}

type fading struct {
	h     *entity.Handle
	style Style
	ticks int
}

// Animator drives every active fade. Not safe for concurrent use.
type Animator struct {
	step    float64
	fades   map[string]*fading
	release func(h *entity.Handle)

	completed uint64
}

// New creates an animator. A non-positive step falls back to DefaultStep.
// release is called once per handle when its fade completes and may be nil.
func New(step float64, release func(h *entity.Handle)) *Animator {
	if step <= 0 || step > 1 {
		step = DefaultStep
	}
	return &Animator{
		step:    step,
		fades:   make(map[string]*fading),
		release: release,
	}
}

// Step returns the alpha decrement per tick.
func (a *Animator) Step() float64 { return a.step }

// Start begins fading h. It reports false when h is already fading.
func (a *Animator) Start(h *entity.Handle, style Style) bool {
	if _, ok := a.fades[h.ID]; ok {
		return false
	}
	a.fades[h.ID] = &fading{h: h, style: style}
	return true
}

// Contains reports whether id is fading.
func (a *Animator) Contains(id string) bool {
	_, ok := a.fades[id]
	return ok
}

// Len returns the number of running fades.
func (a *Animator) Len() int { return len(a.fades) }

// Completed returns the number of fades finished since startup.
func (a *Animator) Completed() uint64 { return a.completed }

// Reset abandons every running fade without calling the release hook.
func (a *Animator) Reset() {
	clear(a.fades)
}

// Tick advances every fade by one step and returns the handles released
// during this tick.
func (a *Animator) Tick() []*entity.Handle {
	if len(a.fades) == 0 {
		return nil
	}

	var done []*entity.Handle
	for _, id := range a.ids() {
		f := a.fades[id]
		f.ticks++

		h := f.h
		h.Alpha -= a.step
		if f.style == Shrink {
			h.Scale *= 1 - a.step
		}
		if h.Alpha > epsilon {
			continue
		}

		h.Alpha = 0
		h.Visible = false
		delete(a.fades, id)
		a.completed++
		done = append(done, h)
		if a.release != nil {
			a.release(h)
		}
	}
	return done
}

// Translate shifts every fading handle on screen. Alpha and scale are left
// untouched.
func (a *Animator) Translate(dx, dy float64) {
	if dx == 0 && dy == 0 {
		return
	}
	for _, f := range a.fades {
		f.h.Translate(dx, dy)
	}
}

// Each calls fn for every fading handle in id order.
func (a *Animator) Each(fn func(h *entity.Handle)) {
	for _, id := range a.ids() {
		fn(a.fades[id].h)
	}
}

func (a *Animator) ids() []string {
	ids := make([]string, 0, len(a.fades))
	for id := range a.fades {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
