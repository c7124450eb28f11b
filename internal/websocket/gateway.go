package websocket

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/modutalk/talkgate/domain/repositories"
)

// Gateway builds a fresh relay per inbound connection. The backend client
// is scoped to the caller's JWT and the upstream connection is single-use,
// so both come from factories instead of being shared.
type Gateway struct {
	newBackend  func(jwtToken string) repositories.TalkBackend
	newUpstream func() repositories.RealtimeConnection
	logger      *zap.Logger
}

// NewGateway creates a gateway from per-connection factories.
func NewGateway(
	newBackend func(jwtToken string) repositories.TalkBackend,
	newUpstream func() repositories.RealtimeConnection,
	logger *zap.Logger,
) *Gateway {
	return &Gateway{
		newBackend:  newBackend,
		newUpstream: newUpstream,
		logger:      logger,
	}
}

// HandleTalk serves one validated talk request end to end.
func (g *Gateway) HandleTalk(c echo.Context, parentTalkID string, jwtToken string) error {
	relay := NewRelay(g.newBackend(jwtToken), g.newUpstream(), g.logger)
	return relay.Handle(c, parentTalkID)
}
