package session

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arena-client/internal/entity"
	"arena-client/internal/geometry"
	"arena-client/internal/protocol"
)

type recorder struct {
	frames  int
	last    Frame
	handles []string
}

func (r *recorder) Render(f *Frame) {
	r.frames++
	r.last = *f
	r.handles = r.handles[:0]
	for _, h := range f.Handles {
		r.handles = append(r.handles, h.ID)
	}
}

type observer struct {
	results  map[string]int
	gameOver int
	active   int
	fading   int
}

func (o *observer) Reconciled(result string, _ time.Duration) {
	if o.results == nil {
		o.results = make(map[string]int)
	}
	o.results[result]++
}
func (o *observer) Handles(active, fading int) { o.active, o.fading = active, fading }
func (o *observer) GameOver()                  { o.gameOver++ }

func testConfig() Config {
	return Config{
		Width:          800,
		Height:         600,
		ArenaRadius:    4000,
		BoundaryRadius: 4030,
		TintBase:       125,
		FadeStep:       0.05,
	}
}

func newSession(t *testing.T) (*Session, *recorder, *observer) {
	t.Helper()
	rec := &recorder{}
	obs := &observer{}
	s := New(testConfig(), nil, rec, WithObserver(obs))
	s.SetLocalID("me")
	return s, rec, obs
}

func me(x, y float64) protocol.PlayerState {
	return protocol.PlayerState{ID: "me", Name: "me", Health: 50, MaxHealth: 100, X: x, Y: y, Color: "0xff0000"}
}

func snapshot(players ...protocol.PlayerState) *protocol.Snapshot {
	s := protocol.EmptySnapshot()
	s.PlayerAgents = append(s.PlayerAgents, players...)
	return s
}

func TestReconcile_CreatesAndRenders(t *testing.T) {
	s, rec, obs := newSession(t)

	snap := snapshot(me(0, 0))
	snap.NPCAgents = []protocol.NPCState{{ID: "npc", Size: 1, Health: 1, MaxHealth: 2, X: 100, Y: 50, Color: "0x00ff00"}}
	snap.Projectiles = []protocol.ProjectileState{{ID: "far", Size: 1, X: 5000, Y: 0, Color: "0x0000ff"}}

	require.NoError(t, s.Reconcile(snap))
	assert.Equal(t, 1, rec.frames)
	assert.Equal(t, 1, obs.results[ResultApplied])

	h, ok := s.Registry().Active("me")
	require.True(t, ok)
	assert.Equal(t, 0.5, h.Body.(entity.PlayerBody).HealthRatio)
	assert.Equal(t, geometry.Pt(400, 300), h.Screen)
	assert.True(t, h.Visible)

	npc, _ := s.Registry().Active("npc")
	assert.Equal(t, geometry.Pt(500, 250), npc.Screen)
	assert.True(t, npc.Visible)

	far, _ := s.Registry().Active("far")
	assert.False(t, far.Visible, "culled but still registered")

	assert.Equal(t, []string{"npc", "me"}, rec.handles)
	assert.False(t, rec.last.Overlay.Visible)
	assert.Equal(t, 800.0, rec.last.Width)
}

func TestReconcile_MissingLocalPlayerSkips(t *testing.T) {
	s, rec, obs := newSession(t)

	snap := snapshot(protocol.PlayerState{ID: "other", MaxHealth: 1, Color: "0xffffff"})
	require.NoError(t, s.Reconcile(snap))

	assert.Zero(t, rec.frames)
	assert.Equal(t, 1, obs.results[ResultSkipped])
	active, _ := s.Registry().Len()
	assert.Zero(t, active, "no upsert without a local player")
}

func TestReconcile_MalformedRejectedWithoutMutation(t *testing.T) {
	s, rec, obs := newSession(t)
	require.NoError(t, s.Reconcile(snapshot(me(0, 0))))

	bad := snapshot(me(500, 500))
	bad.DespawnedPlayerAgents = []protocol.Despawned{{ID: "me"}}
	bad.NPCAgents = nil

	err := s.Reconcile(bad)
	require.ErrorIs(t, err, protocol.ErrMalformedSnapshot)

	assert.False(t, s.GameOver())
	assert.Equal(t, geometry.Pt(0, 0), s.Camera().Center)
	assert.Equal(t, 1, rec.frames)
	assert.Equal(t, 1, obs.results[ResultMalformed])
	assert.EqualValues(t, 1, s.Stats().Malformed)
}

func TestReconcile_Idempotent(t *testing.T) {
	s, rec, _ := newSession(t)
	snap := snapshot(me(10, 20), protocol.PlayerState{ID: "p2", MaxHealth: 10, Health: 10, X: 30, Y: 40, Color: "0x00ffff"})
	snap.DespawnedNPCAgents = []protocol.Despawned{{ID: "unknown"}}

	require.NoError(t, s.Reconcile(snap))
	h, _ := s.Registry().Active("p2")
	first := *h

	require.NoError(t, s.Reconcile(snap))
	h2, _ := s.Registry().Active("p2")
	assert.Same(t, h, h2)
	assert.Equal(t, first.Screen, h2.Screen)
	assert.Equal(t, first.Rotation, h2.Rotation)
	assert.Equal(t, first.Body, h2.Body)

	active, fading := s.Registry().Len()
	assert.Equal(t, 2, active)
	assert.Zero(t, fading)
	assert.Equal(t, 2, rec.frames)
}

func TestReconcile_HandleCountBounded(t *testing.T) {
	s, _, _ := newSession(t)
	ids := map[string]struct{}{"me": {}}

	for i := 0; i < 10; i++ {
		snap := snapshot(me(float64(i), 0))
		for j := 0; j <= i%4; j++ {
			id := string(rune('a' + j))
			ids[id] = struct{}{}
			snap.Projectiles = append(snap.Projectiles, protocol.ProjectileState{ID: id, Size: 1, Color: "0xffffff"})
		}
		require.NoError(t, s.Reconcile(snap))
		active, fading := s.Registry().Len()
		assert.LessOrEqual(t, active+fading, len(ids))
	}
}

func TestReconcile_DespawnStartsFadeAndNoRevive(t *testing.T) {
	s, _, _ := newSession(t)
	var despawned []string
	s.hooks.OnDespawn = func(h *entity.Handle) { despawned = append(despawned, h.ID) }

	snap := snapshot(me(0, 0))
	snap.Projectiles = []protocol.ProjectileState{{ID: "b", Size: 1, Color: "0xffffff"}}
	require.NoError(t, s.Reconcile(snap))

	snap = snapshot(me(0, 0))
	snap.DespawnedProjectiles = []protocol.Despawned{{ID: "b"}}
	require.NoError(t, s.Reconcile(snap))
	assert.Equal(t, []string{"b"}, despawned)
	assert.Equal(t, 1, s.Fading())

	// The id shows up as active again while still fading.
	snap = snapshot(me(0, 0))
	snap.Projectiles = []protocol.ProjectileState{{ID: "b", Size: 1, Color: "0xffffff"}}
	require.NoError(t, s.Reconcile(snap))

	_, active := s.Registry().Active("b")
	assert.False(t, active)
	fh, fading := s.Registry().Fading("b")
	require.True(t, fading)
	assert.EqualValues(t, 1, s.Stats().Revives)

	s.Tick()
	assert.Less(t, fh.Alpha, 1.0)
	assert.Less(t, fh.Scale, 1.0, "projectiles shrink")

	for s.Tick() {
	}
	_, fading = s.Registry().Fading("b")
	assert.False(t, fading)

	// After release the id can be created fresh.
	require.NoError(t, s.Reconcile(snap))
	fresh, active := s.Registry().Active("b")
	require.True(t, active)
	assert.Equal(t, 1.0, fresh.Alpha)
}

func TestTick_FadeCompletesAfterTwentyTicks(t *testing.T) {
	s, rec, _ := newSession(t)
	snap := snapshot(me(0, 0), protocol.PlayerState{ID: "x", MaxHealth: 1, Color: "0xffffff"})
	require.NoError(t, s.Reconcile(snap))

	snap = snapshot(me(0, 0))
	snap.DespawnedPlayerAgents = []protocol.Despawned{{ID: "x"}}
	require.NoError(t, s.Reconcile(snap))
	assert.Contains(t, rec.handles, "x", "fading handles are still drawn")

	for i := 0; i < 19; i++ {
		require.True(t, s.Tick())
	}
	assert.Equal(t, 1, s.Fading())
	require.True(t, s.Tick())
	assert.Zero(t, s.Fading())
	assert.False(t, s.Tick())

	_, fading := s.Registry().Fading("x")
	assert.False(t, fading)
	assert.EqualValues(t, 1, s.Stats().Faded)
}

func TestReconcile_CameraDeltaMovesBackgroundAndFading(t *testing.T) {
	s, _, _ := newSession(t)
	snap := snapshot(me(0, 0), protocol.PlayerState{ID: "x", MaxHealth: 1, X: 100, Y: 0, Color: "0xffffff"})
	require.NoError(t, s.Reconcile(snap))
	assert.Equal(t, Background{Tint: 125}, s.Background(), "first cycle has no delta")

	snap = snapshot(me(0, 0))
	snap.DespawnedPlayerAgents = []protocol.Despawned{{ID: "x"}}
	require.NoError(t, s.Reconcile(snap))

	fh, ok := s.Registry().Fading("x")
	require.True(t, ok)
	assert.Equal(t, geometry.Pt(500, 300), fh.Screen, "zero delta leaves fading handles in place")

	require.NoError(t, s.Reconcile(snapshot(me(10, 5))))
	assert.Equal(t, geometry.Pt(490, 305), fh.Screen)
	assert.Equal(t, -10.0, s.Background().TileX)
	assert.Equal(t, 5.0, s.Background().TileY)
	assert.Equal(t, geometry.Pt(10, 5), s.Camera().Center)
}

func TestReconcile_GameOverOnce(t *testing.T) {
	s, rec, obs := newSession(t)
	var cues int
	s.hooks.OnGameOver = func() { cues++ }

	require.NoError(t, s.Reconcile(snapshot(me(0, 0))))

	snap := snapshot()
	snap.DespawnedPlayerAgents = []protocol.Despawned{{ID: "me"}, {ID: "me"}}
	require.NoError(t, s.Reconcile(snap))

	assert.True(t, s.GameOver())
	select {
	case <-s.Done():
	default:
		t.Fatal("done channel not closed")
	}
	assert.Equal(t, 1, obs.gameOver)
	assert.Equal(t, 1, cues)
	assert.Equal(t, 1, s.Fading(), "local handle fades out")

	frames := rec.frames
	snap = snapshot()
	snap.DespawnedPlayerAgents = []protocol.Despawned{{ID: "me"}}
	require.NoError(t, s.Reconcile(snap))
	require.NoError(t, s.Reconcile(snapshot(me(0, 0))))

	assert.Equal(t, 1, obs.gameOver)
	assert.Equal(t, 2, obs.results[ResultIgnored])
	assert.Equal(t, frames, rec.frames)

	// fades keep running after the game ends
	assert.True(t, s.Tick())
}

func TestReconcile_UnknownDespawnIsNoop(t *testing.T) {
	s, _, _ := newSession(t)
	require.NoError(t, s.Reconcile(snapshot(me(0, 0))))

	snap := snapshot(me(0, 0))
	snap.DespawnedNPCAgents = []protocol.Despawned{{ID: "ghost"}}
	snap.DespawnedProjectiles = []protocol.Despawned{{ID: "ghost2"}}
	require.NoError(t, s.Reconcile(snap))

	active, fading := s.Registry().Len()
	assert.Equal(t, 1, active)
	assert.Zero(t, fading)
	assert.False(t, s.GameOver())
}

func TestReconcile_BoundaryNearEdge(t *testing.T) {
	s, rec, _ := newSession(t)
	require.NoError(t, s.Reconcile(snapshot(me(3930, 0))))
	assert.True(t, rec.last.Overlay.Visible)
	assert.Len(t, rec.last.Overlay.Polygon, 4)
	assert.Equal(t, uint8(255), rec.last.Background.Tint)

	require.NoError(t, s.Reconcile(snapshot(me(0, 0))))
	assert.False(t, rec.last.Overlay.Visible)
}

func TestResizeAppliesNextCycle(t *testing.T) {
	s, rec, _ := newSession(t)
	s.Resize(1000, 1000)

	snap := snapshot(me(0, 0))
	snap.NPCAgents = []protocol.NPCState{{ID: "n", Size: 1, MaxHealth: 1, X: 450, Y: 0, Color: "0x111111"}}
	require.NoError(t, s.Reconcile(snap))

	n, _ := s.Registry().Active("n")
	assert.Equal(t, geometry.Pt(950, 500), n.Screen)
	assert.True(t, n.Visible)
	assert.Equal(t, 1000.0, rec.last.Width)
}

func TestTint(t *testing.T) {
	assert.Equal(t, uint8(125), Tint(geometry.Pt(0, 0), 4000, 125))
	assert.Equal(t, uint8(189), Tint(geometry.Pt(1000, 0), 4000, 125))
	assert.Equal(t, uint8(255), Tint(geometry.Pt(3000, 3000), 4000, 125))
	assert.Equal(t, uint8(255), Tint(geometry.Pt(1, 1), 0, 125))
	assert.Equal(t, uint8(125+int(math.Round(255*0.5))), Tint(geometry.Pt(0, -2000), 4000, 125))
}

func TestStatsPublished(t *testing.T) {
	s, _, _ := newSession(t)
	require.NoError(t, s.Reconcile(snapshot(me(7, 8))))

	st := s.Stats()
	assert.Equal(t, "me", st.LocalID)
	assert.Equal(t, 1, st.Active)
	assert.EqualValues(t, 1, st.Cycles)
	assert.Equal(t, geometry.Pt(7, 8), st.Camera)
}

func TestReset_DropsWorldAndResnapsCamera(t *testing.T) {
	s, rec, obs := newSession(t)
	snap := snapshot(me(100, 50), protocol.PlayerState{ID: "x", MaxHealth: 1, X: 120, Y: 50, Color: "0xffffff"})
	snap.Projectiles = []protocol.ProjectileState{{ID: "b", Size: 1, X: 90, Y: 50, Color: "0xffffff"}}
	require.NoError(t, s.Reconcile(snap))

	snap = snapshot(me(100, 50), protocol.PlayerState{ID: "x", MaxHealth: 1, X: 120, Y: 50, Color: "0xffffff"})
	snap.DespawnedProjectiles = []protocol.Despawned{{ID: "b"}}
	require.NoError(t, s.Reconcile(snap))
	require.Equal(t, 1, s.Fading())

	frames := rec.frames
	s.Reset()

	assert.Empty(t, s.LocalID())
	assert.Zero(t, s.Fading())
	active, fading := s.Registry().Len()
	assert.Zero(t, active)
	assert.Zero(t, fading)
	assert.Equal(t, frames+1, rec.frames)
	assert.Empty(t, rec.handles)
	assert.Zero(t, obs.active)
	assert.False(t, s.Tick(), "abandoned fades do not tick")
	assert.EqualValues(t, 1, s.Stats().Resets)

	// the old local id is gone, so its snapshots are skipped
	require.NoError(t, s.Reconcile(snapshot(me(100, 50))))
	active, _ = s.Registry().Len()
	assert.Zero(t, active)

	s.SetLocalID("me2")
	require.NoError(t, s.Reconcile(snapshot(protocol.PlayerState{ID: "me2", MaxHealth: 1, X: -400, Y: 10, Color: "0xffffff"})))
	assert.Equal(t, geometry.Pt(-400, 10), s.Camera().Center)
	assert.Zero(t, s.Background().TileX, "first cycle after reset has no delta")
	assert.Zero(t, s.Background().TileY)
	assert.Equal(t, []string{"me2"}, rec.handles)
}
