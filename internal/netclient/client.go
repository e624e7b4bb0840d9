// Package netclient maintains the websocket connection to the arena server.
//
// The read goroutine only decodes frames and hands them to the message
// callback. It never touches session state.
package netclient

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"arena-client/internal/config"
	"arena-client/internal/logging"
	"arena-client/internal/protocol"
)

const (
	// MaxReconnectDelay caps the exponential backoff.
	MaxReconnectDelay = 30 * time.Second

	// HandshakeTimeout bounds the websocket upgrade.
	HandshakeTimeout = 10 * time.Second

	// MaxFrameSize bounds a single inbound frame.
	MaxFrameSize = 8 << 20
)

// ErrNotConnected is returned by Send while no connection is open.
var ErrNotConnected = errors.New("not connected")

// Observer receives connection telemetry.
type Observer interface {
	Frame(kind string)
	Reconnect()
}

// Stats are connection counters.
type Stats struct {
	Connected    bool          `json:"connected"`
	Received     int64         `json:"received"`
	DecodeErrors int64         `json:"decodeErrors"`
	Reconnects   int64         `json:"reconnects"`
	LastRTT      time.Duration `json:"lastRtt"`
}

// Client is a reconnecting websocket client.
type Client struct {
	url            string
	name           string
	reconnectDelay time.Duration
	handshakeDelay time.Duration
	writeTimeout   time.Duration
	dialer         *websocket.Dialer
	log            *zap.Logger
	observer       Observer

	conn    *websocket.Conn
	connMu  sync.RWMutex
	writeMu sync.Mutex

	// Stats
	received     atomic.Int64
	decodeErrors atomic.Int64
	reconnects   atomic.Int64
	pingStart    atomic.Int64 // unix nanos of the last chat send
	lastRTT      atomic.Int64

	// Callbacks
	onMessage    func(protocol.Message)
	onConnect    func()
	onDisconnect func()
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.log = logging.OrNop(l).Named("net") }
}

// WithObserver sets the telemetry observer.
func WithObserver(o Observer) Option {
	return func(c *Client) { c.observer = o }
}

// New creates a client for the configured server. Nothing is dialed until Run.
func New(cfg config.NetworkConfig, opts ...Option) *Client {
	c := &Client{
		url:            cfg.ServerURL,
		name:           cfg.PlayerName,
		reconnectDelay: cfg.ReconnectDelay,
		handshakeDelay: cfg.HandshakeRetry,
		writeTimeout:   cfg.WriteTimeout,
		dialer: &websocket.Dialer{
			HandshakeTimeout: HandshakeTimeout,
		},
		log: zap.NewNop(),
	}
	if c.reconnectDelay <= 0 {
		c.reconnectDelay = time.Second
	}
	if c.writeTimeout <= 0 {
		c.writeTimeout = 5 * time.Second
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// OnMessage sets the callback for decoded inbound frames. It runs on the
// read goroutine and may block to apply backpressure.
func (c *Client) OnMessage(fn func(protocol.Message)) {
	c.onMessage = fn
}

// OnConnect sets a callback for when a connection is established.
func (c *Client) OnConnect(fn func()) {
	c.onConnect = fn
}

// OnDisconnect sets a callback for when a connection is lost.
func (c *Client) OnDisconnect(fn func()) {
	c.onDisconnect = fn
}

// Name returns the player name submitted on connect.
func (c *Client) Name() string {
	c.connMu.RLock()
	defer c.connMu.RUnlock()
	return c.name
}

// IsConnected reports whether a connection is open.
func (c *Client) IsConnected() bool {
	c.connMu.RLock()
	defer c.connMu.RUnlock()
	return c.conn != nil
}

// Stats returns connection counters.
func (c *Client) Stats() Stats {
	return Stats{
		Connected:    c.IsConnected(),
		Received:     c.received.Load(),
		DecodeErrors: c.decodeErrors.Load(),
		Reconnects:   c.reconnects.Load(),
		LastRTT:      time.Duration(c.lastRTT.Load()),
	}
}

// =============================================================================
// CONNECTION LOOP
// =============================================================================

// Run connects and keeps reconnecting with exponential backoff until ctx
// is cancelled. It always returns ctx.Err().
func (c *Client) Run(ctx context.Context) error {
	stop := context.AfterFunc(ctx, c.closeConn)
	defer stop()

	attempt := 0
	for ctx.Err() == nil {
		conn, err := c.dial(ctx)
		if err != nil {
			attempt++
			delay := c.backoff(attempt)
			c.log.Warn("⚠️ connect failed", zap.Error(err), zap.Int("attempt", attempt), zap.Duration("retry_in", delay))
			if !sleep(ctx, delay) {
				break
			}
			continue
		}
		attempt = 0

		c.connMu.Lock()
		c.conn = conn
		c.connMu.Unlock()
		c.log.Info("✅ connected", zap.String("url", c.url))

		if c.onConnect != nil {
			c.onConnect()
		}
		go c.join(ctx, conn)

		c.readLoop(conn)

		c.connMu.Lock()
		c.conn = nil
		c.connMu.Unlock()
		_ = conn.Close()

		if c.onDisconnect != nil {
			c.onDisconnect()
		}
		if ctx.Err() != nil {
			break
		}

		c.reconnects.Add(1)
		if c.observer != nil {
			c.observer.Reconnect()
		}
		c.log.Info("🔌 connection closed, reconnecting", zap.Duration("retry_in", c.reconnectDelay))
		if !sleep(ctx, c.reconnectDelay) {
			break
		}
	}

	c.log.Info("🔌 network client stopped")
	return ctx.Err()
}

func (c *Client) dial(ctx context.Context) (*websocket.Conn, error) {
	conn, resp, err := c.dialer.DialContext(ctx, c.url, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", c.url, err)
	}
	conn.SetReadLimit(MaxFrameSize)
	return conn, nil
}

// backoff returns the delay before reconnect attempt n (1-based).
func (c *Client) backoff(n int) time.Duration {
	d := c.reconnectDelay
	for i := 1; i < n && d < MaxReconnectDelay; i++ {
		d *= 2
	}
	return min(d, MaxReconnectDelay)
}

// join submits the player name once the connection has settled.
func (c *Client) join(ctx context.Context, conn *websocket.Conn) {
	if c.handshakeDelay > 0 && !sleep(ctx, c.handshakeDelay) {
		return
	}
	if err := c.writeJSON(conn, protocol.Join{Name: c.Name()}); err != nil {
		c.log.Warn("⚠️ failed to submit name", zap.Error(err))
	}
}

// Rejoin submits a new name on the open connection, for example after the
// server reported a duplicate.
func (c *Client) Rejoin(name string) error {
	c.connMu.Lock()
	c.name = name
	c.connMu.Unlock()
	return c.Send(protocol.Join{Name: name})
}

func (c *Client) readLoop(conn *websocket.Conn) {
	for {
		typ, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.log.Info("🔌 server closed connection")
			} else if !errors.Is(err, websocket.ErrCloseSent) {
				c.log.Warn("⚠️ read error", zap.Error(err))
			}
			return
		}
		c.handleFrame(typ, data)
	}
}

func (c *Client) handleFrame(typ int, data []byte) {
	var (
		msg protocol.Message
		err error
	)
	switch typ {
	case websocket.TextMessage:
		msg, err = protocol.DecodeText(data)
	case websocket.BinaryMessage:
		msg, err = protocol.DecodeBinary(data)
	default:
		return
	}
	if err != nil {
		c.decodeErrors.Add(1)
		if c.observer != nil {
			c.observer.Frame("error")
		}
		c.log.Warn("⚠️ failed to decode frame", zap.Error(err), zap.Int("bytes", len(data)))
		return
	}

	c.received.Add(1)
	if c.observer != nil {
		c.observer.Frame(msg.Kind.String())
	}

	// The chat shows the round trip in place of the server's PONG.
	if msg.Kind == protocol.KindText && msg.Text == protocol.PongText {
		if start := c.pingStart.Load(); start > 0 {
			rtt := time.Since(time.Unix(0, start))
			c.lastRTT.Store(int64(rtt))
			c.log.Info("🏓 pong", zap.Duration("rtt", rtt))
			msg.Text = RTTText(rtt)
		}
	}

	if c.onMessage != nil {
		c.onMessage(msg)
	}
}

// RTTText formats a ping round trip for the chat.
func RTTText(rtt time.Duration) string {
	return fmt.Sprintf("%d ms", rtt.Milliseconds())
}

// =============================================================================
// OUTBOUND
// =============================================================================

// Send writes v as a JSON text frame on the current connection.
func (c *Client) Send(v any) error {
	c.connMu.RLock()
	conn := c.conn
	c.connMu.RUnlock()
	if conn == nil {
		return ErrNotConnected
	}
	return c.writeJSON(conn, v)
}

// SendChat sends one chat line. The send time is kept to measure the reply
// to a ping command.
func (c *Client) SendChat(text string) error {
	c.pingStart.Store(time.Now().UnixNano())
	return c.Send(protocol.Chat{Message: text})
}

func (c *Client) writeJSON(conn *websocket.Conn, v any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	_ = conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	if err := conn.WriteJSON(v); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return nil
}

func (c *Client) closeConn() {
	c.connMu.RLock()
	conn := c.conn
	c.connMu.RUnlock()
	if conn == nil {
		return
	}

	c.writeMu.Lock()
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"),
		time.Now().Add(time.Second))
	c.writeMu.Unlock()
	_ = conn.Close()
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
