package input

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arena-client/internal/config"
)

type recordingTransport struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (r *recordingTransport) Send(v any) error {
	if r.err != nil {
		return r.err
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.sent = append(r.sent, string(data))
	r.mu.Unlock()
	return nil
}

func (r *recordingTransport) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sent)
}

func TestPayloadJSON(t *testing.T) {
	var s State
	data, err := json.Marshal(s.Payload())
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(data))
	assert.True(t, s.Payload().Empty())

	s.Press(Up)
	s.Press(Left)
	s.StartFiring(1.5)
	data, err = json.Marshal(s.Payload())
	require.NoError(t, err)
	assert.JSONEq(t, `{"up":true,"left":true,"isFiring":true,"angle":1.5}`, string(data))
}

func TestPressCancelsOpposite(t *testing.T) {
	var s State
	s.Press(Up)
	s.Press(Down)
	p := s.Payload()
	assert.False(t, p.Up)
	assert.True(t, p.Down)

	s.Press(Right)
	s.Release(Right)
	assert.False(t, s.Payload().Right)

	s.Press(Left)
	s.StopMovement()
	assert.True(t, s.Payload().Empty())
}

func TestAngleOnlyWhileFiring(t *testing.T) {
	var s State
	assert.Nil(t, s.Payload().Angle)

	s.StartFiring(0.5)
	p := s.Payload()
	assert.True(t, p.IsFiring)
	require.NotNil(t, p.Angle)
	assert.Equal(t, 0.5, *p.Angle)
	require.NotNil(t, s.Payload().Angle, "reading the payload keeps the aim")

	s.StartFiring(2)
	assert.Equal(t, 2.0, *s.Payload().Angle)

	s.StopFiring()
	assert.False(t, s.Payload().IsFiring)
	assert.True(t, s.Payload().Empty())
}

func TestSenderSkipsEmptyAndGates(t *testing.T) {
	var s State
	tr := &recordingTransport{}
	active := false
	snd := NewSender(config.DefaultInput(), &s, tr, func() bool { return active }, nil)

	s.Press(Up)
	snd.Flush()
	assert.Zero(t, tr.count(), "gated before gameplay starts")

	active = true
	snd.Flush()
	require.Equal(t, 1, tr.count())
	assert.JSONEq(t, `{"up":true}`, tr.sent[0])

	s.StopMovement()
	snd.Flush()
	assert.Equal(t, 1, tr.count())

	sent, skipped, failed := snd.Stats()
	assert.EqualValues(t, 1, sent)
	assert.EqualValues(t, 1, skipped)
	assert.Zero(t, failed)

	tr.err = errors.New("boom")
	s.Press(Down)
	snd.Flush()
	_, _, failed = snd.Stats()
	assert.EqualValues(t, 1, failed)
}

func TestSenderRateLimited(t *testing.T) {
	var s State
	s.Press(Right)
	tr := &recordingTransport{}
	snd := NewSender(config.InputConfig{Rate: 20, Burst: 1}, &s, tr, nil, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	err := snd.Run(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// 20/s for 0.3s is about 6 sends plus the initial burst.
	n := tr.count()
	assert.GreaterOrEqual(t, n, 3)
	assert.LessOrEqual(t, n, 8)
}
