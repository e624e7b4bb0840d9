// Package session owns the client-side view of the world and reconciles it
// with each server snapshot.
//
// A Session is single-threaded. The client loop is the only caller of
// Reconcile, Tick, Resize and Render; other goroutines may only read Stats
// and wait on Done.
package session

import (
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"arena-client/internal/boundary"
	"arena-client/internal/entity"
	"arena-client/internal/fade"
	"arena-client/internal/geometry"
	"arena-client/internal/logging"
	"arena-client/internal/protocol"
	"arena-client/internal/viewport"
)

// Reconcile outcomes reported to the Observer.
const (
	ResultApplied   = "applied"
	ResultSkipped   = "skipped"   // local player absent
	ResultMalformed = "malformed" // rejected by validation
	ResultIgnored   = "ignored"   // session already over
)

// Renderer draws one frame.
type Renderer interface {
	Render(f *Frame)
}

// Observer receives reconcile telemetry. All methods are called from the
// client loop goroutine.
type Observer interface {
	Reconciled(result string, elapsed time.Duration)
	Handles(active, fading int)
	GameOver()
}

// Hooks are optional callbacks for side effects such as sound cues.
type Hooks struct {
	OnDespawn  func(h *entity.Handle)
	OnGameOver func()
}

// Config holds the arena and animation constants.
type Config struct {
	Width, Height  float64 // initial viewport, replaced by Resize
	ArenaRadius    float64
	BoundaryRadius float64
	TintBase       float64
	FadeStep       float64
}

// Background is the tiled backdrop that scrolls against camera motion.
type Background struct {
	TileX, TileY float64
	Tint         uint8 // gray level, brighter toward the arena edge
}

// Session is the reconciled world state of one connection.
type Session struct {
	cfg      Config
	log      *zap.Logger
	renderer Renderer
	observer Observer
	hooks    Hooks

	camera     *viewport.Camera
	cameraSet  bool
	registry   *entity.Registry
	animator   *fade.Animator
	background Background
	overlay    boundary.Overlay
	localID    string

	gameOver bool
	done     chan struct{}
	doneOnce sync.Once

	frame Frame
	stats atomic.Pointer[Stats]

	cycles, skipped, malformed, revives, resets uint64
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Session) { s.log = logging.OrNop(l).Named("session") }
}

// WithObserver sets the telemetry observer.
func WithObserver(o Observer) Option {
	return func(s *Session) { s.observer = o }
}

// WithHooks sets side-effect callbacks.
func WithHooks(h Hooks) Option {
	return func(s *Session) { s.hooks = h }
}

// New creates a session. factory builds textures; renderer draws frames.
// Either may be nil in headless use.
func New(cfg Config, factory entity.Factory, renderer Renderer, opts ...Option) *Session {
	if cfg.BoundaryRadius <= 0 {
		cfg.BoundaryRadius = cfg.ArenaRadius
	}

	s := &Session{
		cfg:      cfg,
		log:      zap.NewNop(),
		renderer: renderer,
		camera:   viewport.NewCamera(cfg.Width, cfg.Height),
		registry: entity.NewRegistry(factory),
		overlay:  boundary.Hidden,
		done:     make(chan struct{}),
	}
	s.animator = fade.New(cfg.FadeStep, func(h *entity.Handle) {
		s.registry.Release(h.ID)
	})

	for _, opt := range opts {
		opt(s)
	}
	s.publish()
	return s
}

// =============================================================================
// LIFECYCLE
// =============================================================================

// SetLocalID records the id the server assigned to this client.
func (s *Session) SetLocalID(id string) {
	if s.localID != "" && s.localID != id {
		s.log.Warn("⚠️ local id reassigned", zap.String("old", s.localID), zap.String("new", id))
	}
	s.localID = id
	s.publish()
}

// LocalID returns the id of the local player, or "" before assignment.
func (s *Session) LocalID() string { return s.localID }

// GameOver reports whether the local player has been despawned.
func (s *Session) GameOver() bool { return s.gameOver }

// Done is closed once, when the game ends.
func (s *Session) Done() <-chan struct{} { return s.done }

func (s *Session) endGame() {
	s.doneOnce.Do(func() {
		s.gameOver = true
		close(s.done)
		s.log.Info("💀 local player despawned, game over", zap.String("id", s.localID))
		if s.observer != nil {
			s.observer.GameOver()
		}
		if s.hooks.OnGameOver != nil {
			s.hooks.OnGameOver()
		}
	})
}

// Reset forgets the world of a lost connection. Handles are dropped, the
// local id is cleared and the camera snaps again on the next applied cycle.
// Game over and counters survive.
func (s *Session) Reset() {
	s.registry.Reset()
	s.animator.Reset()
	s.localID = ""
	s.cameraSet = false
	s.camera.Center = geometry.Point{}
	s.background = Background{}
	s.overlay = boundary.Hidden
	s.resets++

	s.log.Info("🔄 session reset", zap.Uint64("resets", s.resets))
	if s.observer != nil {
		s.observer.Handles(0, 0)
	}
	s.publish()
	s.Render()
}

// Resize updates the viewport. Called every cycle with the display size.
func (s *Session) Resize(w, h float64) {
	s.camera.Resize(w, h)
}

// Camera returns a copy of the current camera.
func (s *Session) Camera() viewport.Camera { return *s.camera }

// Registry exposes the handle registry for inspection.
func (s *Session) Registry() *entity.Registry { return s.registry }

// Background returns the current backdrop state.
func (s *Session) Background() Background { return s.background }

// Overlay returns the current boundary overlay.
func (s *Session) Overlay() boundary.Overlay { return s.overlay }

// Fading reports how many handles are fading out.
func (s *Session) Fading() int { return s.animator.Len() }

// =============================================================================
// RECONCILE
// =============================================================================

// Reconcile applies one snapshot. A malformed snapshot is rejected without
// any mutation. After game over every snapshot is ignored.
func (s *Session) Reconcile(snap *protocol.Snapshot) error {
	start := time.Now()
	result := ResultApplied
	defer func() {
		if s.observer != nil {
			s.observer.Reconciled(result, time.Since(start))
			active, fading := s.registry.Len()
			s.observer.Handles(active, fading)
		}
		s.publish()
	}()

	if s.gameOver {
		result = ResultIgnored
		return nil
	}
	if err := snap.Validate(); err != nil {
		result = ResultMalformed
		s.malformed++
		s.log.Warn("⚠️ dropping snapshot", zap.Error(err))
		return err
	}
	s.cycles++

	s.despawn(snap)

	local, ok := snap.FindPlayer(s.localID)
	if s.localID == "" || !ok {
		result = ResultSkipped
		s.skipped++
		return nil
	}
	center := geometry.Pt(local.X, local.Y)

	for _, p := range snap.PlayerAgents {
		h, err := s.registry.UpsertPlayer(p, p.ID == s.localID)
		s.place(h, err, center)
	}
	for _, n := range snap.NPCAgents {
		h, err := s.registry.UpsertNPC(n)
		s.place(h, err, center)
	}
	for _, p := range snap.Projectiles {
		h, err := s.registry.UpsertProjectile(p)
		s.place(h, err, center)
	}

	s.follow(center)
	s.overlay = boundary.Compute(s.camera, s.cfg.BoundaryRadius)
	s.Render()
	return nil
}

func (s *Session) despawn(snap *protocol.Snapshot) {
	lists := [...][]protocol.Despawned{
		snap.DespawnedPlayerAgents,
		snap.DespawnedNPCAgents,
		snap.DespawnedProjectiles,
	}
	for i, list := range lists {
		for _, d := range list {
			if h, ok := s.registry.Despawn(d.ID); ok {
				s.animator.Start(h, fade.StyleFor(h.Kind))
				if s.hooks.OnDespawn != nil {
					s.hooks.OnDespawn(h)
				}
			} else {
				s.log.Debug("despawn for unknown id", zap.String("id", d.ID))
			}

			if i == 0 && s.localID != "" && d.ID == s.localID {
				s.endGame()
			}
		}
	}
}

// place projects a freshly upserted handle onto the screen and culls it.
func (s *Session) place(h *entity.Handle, err error, center geometry.Point) {
	if errors.Is(err, entity.ErrFading) {
		s.revives++
		s.log.Warn("⚠️ active entity is still fading, not reviving", zap.Error(err))
		return
	}
	if err != nil {
		s.log.Error("❌ upsert failed", zap.Error(err))
		return
	}
	h.Screen = viewport.ToScreen(h.World, center, s.camera.Width, s.camera.Height)
	h.Visible = s.camera.Visible(h.Bounds())
}

// follow moves the camera onto the local player and scrolls the background
// and fading handles by the opposite amount.
func (s *Session) follow(center geometry.Point) {
	if !s.cameraSet {
		s.camera.Center = center
		s.cameraSet = true
	}

	dx, dy := s.camera.Delta(center)
	s.background.TileX -= dx
	s.background.TileY += dy
	s.animator.Translate(-dx, dy)

	s.camera.Center = center
	s.background.Tint = Tint(center, s.cfg.ArenaRadius, s.cfg.TintBase)
}

// Tint returns the background gray level for a player at p. The backdrop
// brightens toward the edge of an arena of the given radius.
func Tint(p geometry.Point, radius, base float64) uint8 {
	if radius <= 0 {
		return 255
	}
	dist := math.Hypot(p.X, p.Y)
	v := math.Round(255*dist/radius) + base
	return uint8(math.Max(0, math.Min(255, v)))
}

// =============================================================================
// ANIMATION
// =============================================================================

// Tick advances running fades once and reports whether any handle is still
// fading or finished on this tick.
func (s *Session) Tick() bool {
	if s.animator.Len() == 0 {
		return false
	}
	s.animator.Tick()
	if s.observer != nil {
		active, fading := s.registry.Len()
		s.observer.Handles(active, fading)
	}
	s.publish()
	return true
}
