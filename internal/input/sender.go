package input

import (
	"context"
	"errors"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"arena-client/internal/config"
	"arena-client/internal/logging"
)

// Transport delivers one payload to the server.
type Transport interface {
	Send(v any) error
}

// Sender streams the input state at a fixed rate while gameplay is active.
type Sender struct {
	state     *State
	transport Transport
	limiter   *rate.Limiter
	active    func() bool
	log       *zap.Logger

	sent    atomic.Uint64
	skipped atomic.Uint64
	failed  atomic.Uint64
}

// NewSender creates a sender. active gates transmission; nothing is sent
// while it returns false. A nil active is always true.
func NewSender(cfg config.InputConfig, state *State, t Transport, active func() bool, log *zap.Logger) *Sender {
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	if active == nil {
		active = func() bool { return true }
	}
	return &Sender{
		state:     state,
		transport: t,
		limiter:   rate.NewLimiter(rate.Limit(cfg.Rate), burst),
		active:    active,
		log:       logging.OrNop(log).Named("input"),
	}
}

// Run sends until ctx is cancelled. It always returns ctx.Err().
func (s *Sender) Run(ctx context.Context) error {
	for {
		if err := s.limiter.Wait(ctx); err != nil {
			// Wait fails early when the next slot is past the deadline.
			<-ctx.Done()
			return ctx.Err()
		}
		s.Flush()
	}
}

// Flush sends the current state once, bypassing the limiter. Empty payloads
// are skipped.
func (s *Sender) Flush() {
	if !s.active() {
		return
	}

	p := s.state.Payload()
	if p.Empty() {
		s.skipped.Add(1)
		return
	}

	if err := s.transport.Send(p); err != nil {
		s.failed.Add(1)
		if !errors.Is(err, context.Canceled) {
			s.log.Debug("input send failed", zap.Error(err))
		}
		return
	}
	s.sent.Add(1)
}

// Stats returns sent, skipped and failed counts.
func (s *Sender) Stats() (sent, skipped, failed uint64) {
	return s.sent.Load(), s.skipped.Load(), s.failed.Load()
}
