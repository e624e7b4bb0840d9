package protocol

import (
	"fmt"
	"math"
)

// Validate checks that a snapshot is structurally complete. It returns an
// error wrapping ErrMalformedSnapshot for the first problem found.
func (s *Snapshot) Validate() error {
	if s == nil {
		return fmt.Errorf("%w: nil snapshot", ErrMalformedSnapshot)
	}

	switch {
	case s.PlayerAgents == nil:
		return missing("playerAgents")
	case s.NPCAgents == nil:
		return missing("npcAgents")
	case s.Projectiles == nil:
		return missing("projectiles")
	case s.DespawnedPlayerAgents == nil:
		return missing("despawnedPlayerAgents")
	case s.DespawnedNPCAgents == nil:
		return missing("despawnedNPCAgents")
	case s.DespawnedProjectiles == nil:
		return missing("despawnedProjectiles")
	}

	seen := make(map[string]struct{}, len(s.PlayerAgents)+len(s.NPCAgents)+len(s.Projectiles))

	for i, p := range s.PlayerAgents {
		if err := checkEntry("playerAgents", i, p.ID, p.Color, seen,
			p.X, p.Y, p.Angle, p.Health, p.MaxHealth, p.Points, p.PointsLeft); err != nil {
			return err
		}
	}
	for i, n := range s.NPCAgents {
		if err := checkEntry("npcAgents", i, n.ID, n.Color, seen,
			n.X, n.Y, n.Angle, n.Size, n.Health, n.MaxHealth); err != nil {
			return err
		}
	}
	for i, p := range s.Projectiles {
		if err := checkEntry("projectiles", i, p.ID, p.Color, seen,
			p.X, p.Y, p.Size); err != nil {
			return err
		}
	}

	for _, list := range []struct {
		name string
		ids  []Despawned
	}{
		{"despawnedPlayerAgents", s.DespawnedPlayerAgents},
		{"despawnedNPCAgents", s.DespawnedNPCAgents},
		{"despawnedProjectiles", s.DespawnedProjectiles},
	} {
		for i, d := range list.ids {
			if d.ID == "" {
				return fmt.Errorf("%w: %s[%d] has no id", ErrMalformedSnapshot, list.name, i)
			}
		}
	}

	return nil
}

func missing(field string) error {
	return fmt.Errorf("%w: missing %s", ErrMalformedSnapshot, field)
}

// checkEntry validates one active entity. Ids must be unique across all
// active lists of a snapshot.
func checkEntry(list string, i int, id, color string, seen map[string]struct{}, nums ...float64) error {
	if id == "" {
		return fmt.Errorf("%w: %s[%d] has no id", ErrMalformedSnapshot, list, i)
	}
	if _, dup := seen[id]; dup {
		return fmt.Errorf("%w: %s[%d] repeats id %s", ErrMalformedSnapshot, list, i, id)
	}
	seen[id] = struct{}{}

	for _, v := range nums {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s[%d] (%s) has a non-finite value", ErrMalformedSnapshot, list, i, id)
		}
	}
	if _, err := ParseColor(color); err != nil {
		return fmt.Errorf("%w: %s[%d] (%s): %v", ErrMalformedSnapshot, list, i, id, err)
	}
	return nil
}
