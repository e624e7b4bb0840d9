package entity

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/cespare/xxhash/v2"

	"arena-client/internal/geometry"
	"arena-client/internal/protocol"
)

// ErrFading is returned when an active entity arrives for an id whose
// handle is still fading out. Fading handles are never revived.
var ErrFading = errors.New("entity is fading")

// Registry owns every live handle, split into the active and fading sets.
// An id is in at most one set. Not safe for concurrent use.
type Registry struct {
	factory Factory
	active  map[string]*Handle
	fading  map[string]*Handle

	created  uint64
	restyled uint64
}

// NewRegistry creates an empty registry that builds textures with f.
func NewRegistry(f Factory) *Registry {
	if f == nil {
		f = NopFactory
	}
	return &Registry{
		factory: f,
		active:  make(map[string]*Handle),
		fading:  make(map[string]*Handle),
	}
}

// Active returns the active handle for id.
func (r *Registry) Active(id string) (*Handle, bool) {
	h, ok := r.active[id]
	return h, ok
}

// Fading returns the fading handle for id.
func (r *Registry) Fading(id string) (*Handle, bool) {
	h, ok := r.fading[id]
	return h, ok
}

// Len returns the number of active and fading handles.
func (r *Registry) Len() (active, fading int) {
	return len(r.active), len(r.fading)
}

// Created returns how many handles have been built since startup.
func (r *Registry) Created() uint64 { return r.created }

// Restyled returns how many texture rebuilds followed an appearance change.
func (r *Registry) Restyled() uint64 { return r.restyled }

// Despawn moves an active handle to the fading set. It reports false when
// id has no active handle.
func (r *Registry) Despawn(id string) (*Handle, bool) {
	h, ok := r.active[id]
	if !ok {
		return nil, false
	}
	delete(r.active, id)
	r.fading[id] = h
	return h, true
}

// Release forgets a fading handle for good.
func (r *Registry) Release(id string) {
	delete(r.fading, id)
}

// Each calls fn for every active handle in id order.
func (r *Registry) Each(fn func(h *Handle)) {
	for _, id := range sortedKeys(r.active) {
		fn(r.active[id])
	}
}

// Reset drops every handle, active and fading.
func (r *Registry) Reset() {
	clear(r.active)
	clear(r.fading)
}

// =============================================================================
// UPSERT
// =============================================================================

// UpsertPlayer creates or updates the handle of a player agent. Points are
// shown only when local is set.
func (r *Registry) UpsertPlayer(p protocol.PlayerState, local bool) (*Handle, error) {
	h, err := r.lookup(p.ID, KindPlayer)
	if err != nil {
		return nil, err
	}

	body := PlayerBody{
		Name:        p.Name,
		HealthRatio: Ratio(p.Health, p.MaxHealth),
		ShowPoints:  local,
	}
	if local {
		body.PointsRatio = Ratio(p.Points, p.Points+p.PointsLeft)
	}

	h.World = geometry.Pt(p.X, p.Y)
	h.Rotation = AgentRotation(p.Angle)
	h.Body = body
	r.style(h, p.Color, 1, p.Name, local)
	return h, nil
}

// UpsertNPC creates or updates the handle of an NPC agent.
func (r *Registry) UpsertNPC(n protocol.NPCState) (*Handle, error) {
	h, err := r.lookup(n.ID, KindNPC)
	if err != nil {
		return nil, err
	}

	h.World = geometry.Pt(n.X, n.Y)
	h.Rotation = AgentRotation(n.Angle)
	h.Body = NpcBody{Size: n.Size, HealthRatio: Ratio(n.Health, n.MaxHealth)}
	r.style(h, n.Color, n.Size, "", false)
	return h, nil
}

// UpsertProjectile creates or updates the handle of a projectile.
func (r *Registry) UpsertProjectile(p protocol.ProjectileState) (*Handle, error) {
	h, err := r.lookup(p.ID, KindProjectile)
	if err != nil {
		return nil, err
	}

	h.World = geometry.Pt(p.X, p.Y)
	h.Body = ProjectileBody{Size: p.Size}
	r.style(h, p.Color, p.Size, "", false)
	return h, nil
}

func (r *Registry) lookup(id string, kind Kind) (*Handle, error) {
	if _, fading := r.fading[id]; fading {
		return nil, fmt.Errorf("%w: %s", ErrFading, id)
	}
	if h, ok := r.active[id]; ok {
		return h, nil
	}
	h := newHandle(id, kind)
	r.active[id] = h
	r.created++
	return h, nil
}

// style rebuilds the texture when the appearance fingerprint changes.
func (r *Registry) style(h *Handle, hex string, size float64, name string, local bool) {
	fp := fingerprint(h.Kind, hex, size, name, local)
	if h.styled && fp == h.fingerprint {
		return
	}
	if h.styled {
		r.restyled++
	}
	h.Color = protocol.MustParseColor(hex)
	h.fingerprint = fp
	h.styled = true
	h.Texture = r.factory.Texture(h)
}

func fingerprint(kind Kind, hex string, size float64, name string, local bool) uint64 {
	d := xxhash.New()
	var buf [2]byte
	buf[0] = byte(kind)
	if local {
		buf[1] = 1
	}
	_, _ = d.Write(buf[:2])
	_, _ = d.WriteString(hex)
	_, _ = d.WriteString(strconv.FormatUint(math.Float64bits(size), 16))
	_, _ = d.WriteString(name)
	return d.Sum64()
}

func sortedKeys(m map[string]*Handle) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
