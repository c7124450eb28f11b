package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/modutalk/talkgate/domain"
	"github.com/modutalk/talkgate/domain/repositories"
)

const (
	defaultConnectTimeout = 15 * time.Second

	// Time allowed to write a message to the upstream.
	writeWait = 10 * time.Second
)

// State is the connection state of the realtime client. A closed client is
// terminal; no reconnection is attempted.
type State int

const (
	StateNotConnected State = iota
	StateConnecting
	StateConnected
	StateClosed
)

// Config configures an upstream realtime connection.
type Config struct {
	// URL is the base websocket URL of the realtime service.
	URL string

	// Model selects the realtime model, appended as a query parameter.
	Model string

	// APIKey authenticates the connection.
	APIKey string

	// Session is the configuration payload applied after the handshake.
	Session SessionConfig
}

// Client owns one websocket connection to the upstream realtime AI
// service. Messages sent before Connect resolves are queued FIFO and
// drained, in order, right after the session configuration frame.
type Client struct {
	cfg    Config
	dialer *websocket.Dialer
	logger *zap.Logger

	mu      sync.Mutex
	state   State
	conn    *websocket.Conn
	queue   [][]byte
	handler repositories.RealtimeHandler

	conv       *conversation
	closeOnce  sync.Once
	localClose bool
}

var _ repositories.RealtimeConnection = (*Client)(nil)

// NewClient creates a disconnected realtime client.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	return &Client{
		cfg:    cfg,
		dialer: websocket.DefaultDialer,
		logger: logger,
		conv:   newConversation(),
	}
}

// Subscribe registers the single event handler. Must be called before
// Connect so that no early event is lost.
func (c *Client) Subscribe(handler repositories.RealtimeHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handler = handler
}

// State returns the current connection state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Connect establishes the upstream websocket, applies the session
// configuration, and drains the pre-connection queue. The drain happens
// atomically with the transition to connected, so no message is reordered
// or delivered twice.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateNotConnected {
		state := c.state
		c.mu.Unlock()
		return fmt.Errorf("%w: connect from state %d", domain.ErrUpstreamConnectFailed, state)
	}
	c.state = StateConnecting
	c.mu.Unlock()

	if err := c.cfg.Session.Validate(); err != nil {
		c.fail()
		return fmt.Errorf("%w: invalid session configuration: %v", domain.ErrUpstreamConnectFailed, err)
	}

	dialCtx := ctx
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, defaultConnectTimeout)
		defer cancel()
	}

	headers := make(http.Header)
	if c.cfg.APIKey != "" {
		headers.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}
	headers.Set("OpenAI-Beta", "realtime=v1")

	url := c.cfg.URL
	if c.cfg.Model != "" {
		url = fmt.Sprintf("%s?model=%s", c.cfg.URL, c.cfg.Model)
	}

	conn, resp, err := c.dialer.DialContext(dialCtx, url, headers)
	if err != nil {
		c.fail()
		if resp != nil {
			return fmt.Errorf("%w: dial failed with status %d: %v", domain.ErrUpstreamConnectFailed, resp.StatusCode, err)
		}
		return fmt.Errorf("%w: dial failed: %v", domain.ErrUpstreamConnectFailed, err)
	}

	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(c.cfg.Session.updateEvent()); err != nil {
		conn.Close()
		c.fail()
		return fmt.Errorf("%w: failed to apply session configuration: %v", domain.ErrUpstreamConnectFailed, err)
	}

	c.mu.Lock()
	c.conn = conn
	c.state = StateConnected
	queued := c.queue
	c.queue = nil
	for _, raw := range queued {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, raw); err != nil {
			c.logger.Error("Failed to drain queued upstream message", zap.Error(err))
			break
		}
	}
	c.mu.Unlock()

	go c.readLoop(conn)

	c.logger.Info("Upstream realtime connection established",
		zap.String("url", c.cfg.URL),
		zap.String("model", c.cfg.Model),
		zap.Int("drained", len(queued)))
	return nil
}

// Send forwards a raw message if connected, queues it while not yet
// connected, and drops it after close. Non-JSON payloads are dropped with
// a warning and never treated as a connection error.
func (c *Client) Send(raw []byte) {
	if !json.Valid(raw) {
		c.logger.Warn("Dropping malformed upstream message",
			zap.Int("size", len(raw)))
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case StateConnected:
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, raw); err != nil {
			c.logger.Error("Failed to write upstream message", zap.Error(err))
		}
	case StateNotConnected, StateConnecting:
		c.queue = append(c.queue, raw)
	case StateClosed:
		c.logger.Warn("Dropping message sent after upstream close")
	}
}

// Disconnect closes the upstream socket if open and discards the queue.
// Safe to call any number of times.
func (c *Client) Disconnect() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		conn := c.conn
		c.state = StateClosed
		c.queue = nil
		c.localClose = true
		c.mu.Unlock()

		if conn != nil {
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			conn.Close()
		}
		c.logger.Info("Upstream realtime connection closed")
	})
}

// fail resets a half-open connect attempt to the terminal state.
func (c *Client) fail() {
	c.mu.Lock()
	c.state = StateClosed
	c.queue = nil
	c.mu.Unlock()
}

// readLoop dispatches upstream frames to the handler, one at a time, in
// arrival order. Handler calls are synchronous so a turn batch is fully
// processed before the next frame is read.
func (c *Client) readLoop(conn *websocket.Conn) {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			c.dispatchClose(err)
			return
		}

		c.mu.Lock()
		handler := c.handler
		c.mu.Unlock()
		if handler == nil {
			continue
		}

		handler.OnServerEvent(raw)
		if items, completed := c.conv.track(raw); completed {
			handler.OnItemsCompleted(items)
		}
	}
}

// dispatchClose reports the upstream closure to the handler unless the
// close was initiated locally via Disconnect.
func (c *Client) dispatchClose(err error) {
	c.mu.Lock()
	local := c.localClose
	c.state = StateClosed
	c.queue = nil
	handler := c.handler
	c.mu.Unlock()

	if local || handler == nil {
		return
	}

	code := websocket.CloseNoStatusReceived
	reason := ""
	hadError := true
	if closeErr, ok := err.(*websocket.CloseError); ok {
		code = closeErr.Code
		reason = closeErr.Text
		hadError = closeErr.Code != websocket.CloseNormalClosure &&
			closeErr.Code != websocket.CloseGoingAway
	}

	c.logger.Info("Upstream realtime connection closed by peer",
		zap.Int("code", code),
		zap.String("reason", reason),
		zap.Bool("hadError", hadError))
	handler.OnClose(hadError, code, reason)
}
