// Package protocol defines the messages exchanged with the arena server.
//
// The server sends three kinds of inbound frames over the websocket:
//   - pregame control messages (id assignment, duplicate name)
//   - world snapshots (JSON text frames or msgpack binary frames)
//   - plain text lines (join notices, chat, PONG)
//
// The client sends input and chat as small JSON objects.
package protocol

// =============================================================================
// INBOUND
// =============================================================================

// PlayerState is one active player agent in a snapshot.
// Points and PointsLeft are only meaningful for the local player.
type PlayerState struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Health     float64 `json:"health"`
	MaxHealth  float64 `json:"maxHealth"`
	Points     float64 `json:"points"`
	PointsLeft float64 `json:"pointsLeft"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Angle      float64 `json:"angle"`
	Color      string  `json:"color"`
}

// NPCState is one active NPC agent in a snapshot.
type NPCState struct {
	ID        string  `json:"id"`
	Size      float64 `json:"size"`
	Health    float64 `json:"health"`
	MaxHealth float64 `json:"maxHealth"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Angle     float64 `json:"angle"`
	Color     string  `json:"color"`
}

// ProjectileState is one active projectile in a snapshot.
type ProjectileState struct {
	ID    string  `json:"id"`
	Size  float64 `json:"size"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Color string  `json:"color"`
}

// Despawned names an entity removed since the previous snapshot.
// The server sends the full entity; only the id is used.
type Despawned struct {
	ID string `json:"id"`
}

// Snapshot is one authoritative world update.
// A nil list means the field was absent on the wire, which is malformed.
type Snapshot struct {
	PlayerAgents []PlayerState     `json:"playerAgents"`
	NPCAgents    []NPCState        `json:"npcAgents"`
	Projectiles  []ProjectileState `json:"projectiles"`

	DespawnedPlayerAgents []Despawned `json:"despawnedPlayerAgents"`
	DespawnedNPCAgents    []Despawned `json:"despawnedNPCAgents"`
	DespawnedProjectiles  []Despawned `json:"despawnedProjectiles"`
}

// EmptySnapshot returns a snapshot with every list present and empty.
func EmptySnapshot() *Snapshot {
	return &Snapshot{
		PlayerAgents:          []PlayerState{},
		NPCAgents:             []NPCState{},
		Projectiles:           []ProjectileState{},
		DespawnedPlayerAgents: []Despawned{},
		DespawnedNPCAgents:    []Despawned{},
		DespawnedProjectiles:  []Despawned{},
	}
}

// FindPlayer returns the active player with the given id.
func (s *Snapshot) FindPlayer(id string) (PlayerState, bool) {
	for _, p := range s.PlayerAgents {
		if p.ID == id {
			return p, true
		}
	}
	return PlayerState{}, false
}

// Pregame is a control message sent before gameplay starts.
type Pregame struct {
	Pregame       bool   `json:"pregame"`
	ID            string `json:"id,omitempty"`
	DuplicateName bool   `json:"duplicateName,omitempty"`
}

// MessageKind tags a decoded inbound frame.
type MessageKind int

const (
	KindText MessageKind = iota
	KindPregame
	KindSnapshot
)

func (k MessageKind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindPregame:
		return "pregame"
	case KindSnapshot:
		return "snapshot"
	default:
		return "unknown"
	}
}

// Message is a decoded inbound frame. Exactly one payload field is set,
// matching Kind.
type Message struct {
	Kind     MessageKind
	Text     string
	Pregame  *Pregame
	Snapshot *Snapshot
}

// PongText is the server's reply to a ping chat command.
const PongText = "PONG"

// =============================================================================
// OUTBOUND
// =============================================================================

// Join submits the chosen player name.
type Join struct {
	Name string `json:"name"`
}

// Chat sends one chat line or slash command.
type Chat struct {
	Message string `json:"message"`
}
