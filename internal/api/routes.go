package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/modutalk/talkgate/internal/auth"
	"github.com/modutalk/talkgate/internal/websocket"
)

// InitRoutes initializes all API routes
func InitRoutes(e *echo.Echo, gateway *websocket.Gateway, validator *auth.Validator, logger *zap.Logger) {
	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"service": "talkgate",
		})
	})

	// Realtime talk relay endpoint with JWT validation
	e.GET("/talk/realtime", func(c echo.Context) error {
		return talkRealtime(c, gateway, validator, logger)
	})
}

// talkRealtime validates the upgrade request, authenticates the caller, and
// hands the connection to the relay gateway.
func talkRealtime(c echo.Context, gateway *websocket.Gateway, validator *auth.Validator, logger *zap.Logger) error {
	req, err := ParseTalkRequest(c.Request())
	if err != nil {
		logger.Warn("Talk connection rejected", zap.Error(err))
		if errors.Is(err, ErrMissingToken) {
			return c.JSON(http.StatusUnauthorized, ErrorResponse{
				Error:   "missing_token",
				Message: "bearer token is required in the Sec-WebSocket-Protocol header",
			})
		}
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
	}

	claims, err := validator.ValidateToken(req.Token)
	if err != nil {
		logger.Warn("Talk connection rejected: invalid token", zap.Error(err))
		return c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "invalid_token",
			Message: "Invalid or expired JWT token",
		})
	}

	logger.Info("Talk connection authenticated",
		zap.String("userID", claims.UserID),
		zap.String("parentTalkID", req.ParentTalkID))

	return gateway.HandleTalk(c, req.ParentTalkID, req.Token)
}
