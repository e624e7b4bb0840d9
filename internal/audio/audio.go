// Package audio plays short synthesized cues for arena events.
package audio

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
	"go.uber.org/zap"

	"arena-client/internal/config"
	"arena-client/internal/entity"
	"arena-client/internal/logging"
)

// Cue names a sound.
type Cue int

const (
	CueAgentDespawn Cue = iota
	CueProjectilePop
	CueGameOver
)

func (c Cue) String() string {
	switch c {
	case CueAgentDespawn:
		return "agent_despawn"
	case CueProjectilePop:
		return "projectile_pop"
	case CueGameOver:
		return "game_over"
	default:
		return "unknown"
	}
}

// CueFor returns the despawn cue for an entity kind.
func CueFor(k entity.Kind) Cue {
	if k == entity.KindProjectile {
		return CueProjectilePop
	}
	return CueAgentDespawn
}

// Sound builds the streamer for a cue.
func Sound(c Cue, rate beep.SampleRate, volume float64) beep.Streamer {
	var s beep.Streamer
	switch c {
	case CueProjectilePop:
		d := 60 * time.Millisecond
		s = Shape(Sweep(900, 300, d, Sine, rate), d, 2*time.Millisecond, 40*time.Millisecond, rate)
	case CueGameOver:
		note := 220 * time.Millisecond
		s = beep.Seq(
			Shape(Tone(392, note, Triangle, rate), note, 10*time.Millisecond, 80*time.Millisecond, rate),
			Shape(Tone(330, note, Triangle, rate), note, 10*time.Millisecond, 80*time.Millisecond, rate),
			Shape(Tone(262, 2*note, Triangle, rate), 2*note, 10*time.Millisecond, 300*time.Millisecond, rate),
		)
	default:
		d := 120 * time.Millisecond
		s = Shape(Sweep(300, 120, d, Square, rate), d, 5*time.Millisecond, 80*time.Millisecond, rate)
	}
	return withVolume(s, volume)
}

// Player mixes cues onto the speaker. With audio disabled every call is a
// no-op apart from counting.
type Player struct {
	mu          sync.Mutex
	rate        beep.SampleRate
	volume      float64
	enabled     bool
	initialized bool
	mixer       *beep.Mixer
	log         *zap.Logger

	played  atomic.Uint64
	dropped atomic.Uint64
}

// New creates a player. Start must be called before anything is heard.
func New(cfg config.AudioConfig, log *zap.Logger) *Player {
	rate := beep.SampleRate(cfg.SampleRate)
	if rate <= 0 {
		rate = 44100
	}
	return &Player{
		rate:    rate,
		volume:  cfg.Volume,
		enabled: cfg.Enabled,
		mixer:   &beep.Mixer{},
		log:     logging.OrNop(log).Named("audio"),
	}
}

// Start opens the speaker. Failure leaves the player silent.
func (p *Player) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.enabled || p.initialized {
		return nil
	}
	if err := speaker.Init(p.rate, p.rate.N(100*time.Millisecond)); err != nil {
		p.enabled = false
		return err
	}
	speaker.Play(p.mixer)
	p.initialized = true
	p.log.Info("🔊 audio started", zap.Int("sample_rate", int(p.rate)))
	return nil
}

// Play queues a cue. It never blocks on the audio device.
func (p *Player) Play(c Cue) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.initialized {
		p.dropped.Add(1)
		return
	}
	speaker.Lock()
	p.mixer.Add(Sound(c, p.rate, p.volume))
	speaker.Unlock()
	p.played.Add(1)
}

// OnDespawn plays the despawn cue for h.
func (p *Player) OnDespawn(h *entity.Handle) {
	p.Play(CueFor(h.Kind))
}

// OnGameOver plays the game-over cue.
func (p *Player) OnGameOver() {
	p.Play(CueGameOver)
}

// Stats returns played and dropped counts.
func (p *Player) Stats() (played, dropped uint64) {
	return p.played.Load(), p.dropped.Load()
}

// Close silences the speaker.
func (p *Player) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.initialized {
		return
	}
	speaker.Clear()
	speaker.Close()
	p.initialized = false
}
