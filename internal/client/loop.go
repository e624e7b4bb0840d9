// Package client drives a session from decoded server messages.
//
// The network goroutine pushes messages into a bounded inbox. Step drains
// it on the loop goroutine, which is the only goroutine touching the
// session.
package client

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"arena-client/internal/chat"
	"arena-client/internal/logging"
	"arena-client/internal/protocol"
	"arena-client/internal/session"
)

// MaxRejoins bounds duplicate-name retries.
const MaxRejoins = 5

// event is one inbox entry: a server message, or the loss of the connection
// that delivered the messages before it.
type event struct {
	msg  protocol.Message
	lost bool
}

// Joiner resubmits the player name on the open connection.
type Joiner interface {
	Name() string
	Rejoin(name string) error
}

// Loop is the client update loop.
type Loop struct {
	session *session.Session
	chat    *chat.Log
	joiner  Joiner
	inbox   chan event
	log     *zap.Logger

	active   atomic.Bool
	rejoins  int
	baseName string

	// Stats
	steps     atomic.Uint64
	processed atomic.Uint64
	rejected  atomic.Uint64
}

// New creates a loop over s. Text lines go to history; joiner may be nil.
func New(s *session.Session, history *chat.Log, joiner Joiner, inboxSize int, log *zap.Logger) *Loop {
	if inboxSize <= 0 {
		inboxSize = 64
	}
	if history == nil {
		history = chat.NewLog(0)
	}
	return &Loop{
		session: s,
		chat:    history,
		joiner:  joiner,
		inbox:   make(chan event, inboxSize),
		log:     logging.OrNop(log).Named("loop"),
	}
}

// Push queues a message, blocking while the inbox is full.
func (l *Loop) Push(ctx context.Context, msg protocol.Message) error {
	return l.enqueue(ctx, event{msg: msg})
}

// Disconnected queues a session reset behind every message already received
// on the lost connection. The server assigns a new id on reconnect and never
// despawns what the old connection saw.
func (l *Loop) Disconnected(ctx context.Context) error {
	l.active.Store(false)
	return l.enqueue(ctx, event{lost: true})
}

func (l *Loop) enqueue(ctx context.Context, ev event) error {
	select {
	case l.inbox <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Handler adapts Push to a message callback bound to ctx.
func (l *Loop) Handler(ctx context.Context) func(protocol.Message) {
	return func(msg protocol.Message) {
		_ = l.Push(ctx, msg)
	}
}

// Active reports whether gameplay input should be sent: a local id is
// assigned and the game is not over. Safe from any goroutine.
func (l *Loop) Active() bool {
	return l.active.Load()
}

// Chat returns the chat history.
func (l *Loop) Chat() *chat.Log { return l.chat }

// Session returns the driven session.
func (l *Loop) Session() *session.Session { return l.session }

// Resize forwards the display size to the session.
func (l *Loop) Resize(w, h float64) {
	l.session.Resize(w, h)
}

// Step processes every queued message, then advances fades one tick and
// redraws if any are running. It never blocks.
func (l *Loop) Step() {
	l.steps.Add(1)

	for n := len(l.inbox); n > 0; n-- {
		select {
		case ev := <-l.inbox:
			if ev.lost {
				l.reset()
				continue
			}
			l.handle(ev.msg)
		default:
			n = 0
		}
	}

	if l.session.Tick() {
		l.session.Render()
	}
	if l.session.GameOver() {
		l.active.Store(false)
	}
}

func (l *Loop) reset() {
	l.active.Store(false)
	l.rejoins = 0
	l.session.Reset()
	l.chat.Add("Connection lost, rejoining...")
}

func (l *Loop) handle(msg protocol.Message) {
	l.processed.Add(1)

	switch msg.Kind {
	case protocol.KindPregame:
		l.pregame(msg.Pregame)
	case protocol.KindSnapshot:
		if err := l.session.Reconcile(msg.Snapshot); err != nil {
			l.rejected.Add(1)
		}
	case protocol.KindText:
		l.log.Debug("💬 server text", zap.String("text", msg.Text))
		l.chat.Add(msg.Text)
	}
}

func (l *Loop) pregame(p *protocol.Pregame) {
	if p == nil {
		return
	}
	if p.DuplicateName {
		l.rejoin()
		return
	}
	if p.ID == "" {
		return
	}

	l.session.SetLocalID(p.ID)
	if !l.session.GameOver() {
		l.active.Store(true)
	}
	l.log.Info("🎮 joined arena", zap.String("id", p.ID))
}

// rejoin retries with a numbered variant of the current name.
func (l *Loop) rejoin() {
	if l.joiner == nil {
		return
	}
	if l.rejoins >= MaxRejoins {
		l.log.Error("❌ name still taken, giving up", zap.Int("attempts", l.rejoins))
		l.chat.Add("Name is taken. Restart with another name.")
		return
	}
	if l.rejoins == 0 {
		l.baseName = l.joiner.Name()
	}
	l.rejoins++

	name := AlternateName(l.baseName, l.rejoins)
	l.chat.Add(fmt.Sprintf("Name is taken, joining as %s", name))
	if err := l.joiner.Rejoin(name); err != nil {
		l.log.Warn("⚠️ rejoin failed", zap.String("name", name), zap.Error(err))
	}
}

// AlternateName derives the n-th fallback for a taken name.
func AlternateName(name string, n int) string {
	return fmt.Sprintf("%s_%d", name, n)
}

// Run steps the loop at tps until ctx is cancelled. It is the headless
// counterpart of the display loop.
func (l *Loop) Run(ctx context.Context, tps int) error {
	if tps <= 0 {
		tps = 60
	}
	ticker := time.NewTicker(time.Second / time.Duration(tps))
	defer ticker.Stop()

	l.log.Info("🎮 headless loop started", zap.Int("tps", tps))
	for {
		select {
		case <-ticker.C:
			l.Step()
		case <-ctx.Done():
			l.log.Info("🛑 loop stopped")
			return ctx.Err()
		}
	}
}

// Stats returns step, processed and rejected counts.
func (l *Loop) Stats() (steps, processed, rejected uint64) {
	return l.steps.Load(), l.processed.Load(), l.rejected.Load()
}
