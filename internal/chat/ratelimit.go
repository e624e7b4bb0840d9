package chat

import (
	"errors"
	"strings"

	"golang.org/x/time/rate"
)

// ErrRateLimited is returned when lines are typed too quickly.
var ErrRateLimited = errors.New("chat rate limited")

// ErrEmpty is returned for blank lines.
var ErrEmpty = errors.New("empty chat line")

// Sender delivers one chat line to the server.
type Sender interface {
	SendChat(text string) error
}

// RateLimitConfig configures outbound chat limiting.
type RateLimitConfig struct {
	PerSecond float64
	Burst     int
}

// DefaultRateLimitConfig allows short bursts of typed lines.
var DefaultRateLimitConfig = RateLimitConfig{
	PerSecond: 2,
	Burst:     5,
}

// Composer submits typed lines. /clear also empties the local history.
type Composer struct {
	log     *Log
	sender  Sender
	limiter *rate.Limiter
}

// NewComposer creates a composer writing to s and clearing l.
func NewComposer(l *Log, s Sender, cfg RateLimitConfig) *Composer {
	return &Composer{
		log:     l,
		sender:  s,
		limiter: rate.NewLimiter(rate.Limit(cfg.PerSecond), cfg.Burst),
	}
}

// Submit handles one typed line.
func (c *Composer) Submit(text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmpty
	}
	if !c.limiter.Allow() {
		return ErrRateLimited
	}
	if Parse(text) == CmdClear {
		c.log.Clear()
	}
	return c.sender.SendChat(text)
}
