package websocket

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/modutalk/talkgate/domain/entities"
	"github.com/modutalk/talkgate/domain/repositories"
	"github.com/modutalk/talkgate/usecase"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Maximum message size allowed from peer.
	maxMessageSize = 512 * 1024 // 512KB for audio frames

	// ProtocolRealtime is the negotiated websocket subprotocol.
	ProtocolRealtime = "realtime"

	// Deadline for backend cleanup calls issued during teardown.
	cleanupTimeout = 5 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// TODO: Implement proper origin checking
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	Subprotocols:    []string{ProtocolRealtime},
}

// Relay ties one client websocket, one upstream realtime connection, and
// one talk session together for the lifetime of a single request. It owns
// the failure cascade: any fatal leg failure unwinds the other legs, each
// cleanup step at most once.
type Relay struct {
	backend  repositories.TalkBackend
	upstream repositories.RealtimeConnection
	itemSync *usecase.ItemSync
	logger   *zap.Logger

	parentTalkID string
	session      *entities.TalkSessionInfo

	// The client websocket connection.
	conn    *websocket.Conn
	writeMu sync.Mutex

	ctx    context.Context
	cancel context.CancelFunc

	cancelOnce     sync.Once
	closeOnce      sync.Once
	upstreamClosed atomic.Bool
}

var _ repositories.RealtimeHandler = (*Relay)(nil)

// NewRelay creates a relay for one inbound connection.
func NewRelay(
	backend repositories.TalkBackend,
	upstream repositories.RealtimeConnection,
	logger *zap.Logger,
) *Relay {
	return &Relay{
		backend:  backend,
		upstream: upstream,
		itemSync: usecase.NewItemSync(backend, logger),
		logger:   logger,
	}
}

// Handle runs the relay for the validated request. The talk session is
// created before the upgrade, so a session-creation failure is reported as
// an ordinary HTTP error and the client never sees a 101. After a
// successful upgrade every failure surfaces as a socket close instead.
func (r *Relay) Handle(c echo.Context, parentTalkID string) error {
	r.parentTalkID = parentTalkID

	session, err := r.backend.CreateSession(c.Request().Context(), parentTalkID)
	if err != nil {
		r.logger.Error("Failed to create talk session",
			zap.String("parentTalkID", parentTalkID),
			zap.Error(err))
		return echo.NewHTTPError(http.StatusBadGateway, "failed to create talk session")
	}
	r.session = session
	r.logger.Info("Talk session created",
		zap.String("parentTalkID", parentTalkID),
		zap.Int64("talkSessionID", session.TalkSessionID))

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		r.logger.Error("WebSocket upgrade failed", zap.Error(err))
		r.cancelSession()
		return err
	}
	r.conn = conn

	// The request context dies with the upgrade; the relay runs on its own.
	r.ctx, r.cancel = context.WithCancel(context.Background())
	defer r.cancel()

	r.upstream.Subscribe(r)

	if err := r.upstream.Connect(r.ctx); err != nil {
		r.logger.Error("Failed to connect upstream, unwinding",
			zap.String("parentTalkID", parentTalkID),
			zap.Error(err))
		r.closeClient(websocket.CloseInternalServerErr, "upstream connection failed")
		r.cancelSession()
		return nil
	}

	r.readPump()

	// The client leg ended. Unless the upstream hung up first, this is the
	// user abandoning mid-conversation: cancel rather than complete.
	r.upstream.Disconnect()
	if !r.upstreamClosed.Load() {
		r.cancelSession()
	}
	conn.Close()
	return nil
}

// readPump forwards every inbound client frame verbatim to the upstream
// until the client socket closes.
func (r *Relay) readPump() {
	r.conn.SetReadLimit(maxMessageSize)

	for {
		messageType, message, err := r.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				r.logger.Warn("Client websocket closed abnormally", zap.Error(err))
			}
			return
		}

		switch messageType {
		case websocket.TextMessage, websocket.BinaryMessage:
			r.upstream.Send(message)
		default:
			r.logger.Warn("Received unknown client message type", zap.Int("type", messageType))
		}
	}
}

// OnServerEvent relays one upstream frame verbatim to the client.
func (r *Relay) OnServerEvent(raw []byte) {
	r.writeClient(raw)
}

// OnItemsCompleted mirrors a turn batch to the backend. A persistence
// failure is fatal for the whole connection: the session is cancelled, the
// upstream disconnected, and the client socket closed.
func (r *Relay) OnItemsCompleted(items []entities.SessionItem) {
	if err := r.itemSync.Sync(r.ctx, r.session.TalkSessionID, items); err != nil {
		r.logger.Error("Item sync failed, tearing down relay",
			zap.Int64("talkSessionID", r.session.TalkSessionID),
			zap.Error(err))
		r.cancelSession()
		r.upstream.Disconnect()
		r.closeClient(websocket.CloseInternalServerErr, "failed to persist conversation")
	}
}

// OnClose mirrors an upstream closure to the client with the same close
// code and reason. The talk session stays uncancelled unless the closure
// carried an error.
func (r *Relay) OnClose(hadError bool, code int, reason string) {
	r.upstreamClosed.Store(true)
	r.closeClient(code, reason)
	if hadError {
		r.cancelSession()
	}
}

// writeClient writes one frame to the client socket. Serialized so the
// upstream read loop and teardown never interleave writes.
func (r *Relay) writeClient(raw []byte) {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	r.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := r.conn.WriteMessage(websocket.TextMessage, raw); err != nil {
		r.logger.Error("Failed to write to client", zap.Error(err))
	}
}

// closeClient sends a close frame and closes the client socket, once.
func (r *Relay) closeClient(code int, reason string) {
	r.closeOnce.Do(func() {
		if code == 0 || code == websocket.CloseNoStatusReceived {
			code = websocket.CloseNormalClosure
		}

		r.writeMu.Lock()
		r.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(code, reason),
			time.Now().Add(writeWait))
		r.writeMu.Unlock()

		r.conn.Close()
	})
}

// cancelSession marks the talk cancelled at the backend, once. Runs on its
// own deadline since the relay context may already be gone.
func (r *Relay) cancelSession() {
	r.cancelOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
		defer cancel()

		if err := r.backend.CancelTalk(ctx, r.parentTalkID); err != nil {
			r.logger.Error("Failed to cancel talk session",
				zap.String("parentTalkID", r.parentTalkID),
				zap.Error(err))
			return
		}
		r.logger.Info("Talk session cancelled",
			zap.String("parentTalkID", r.parentTalkID))
	})
}
