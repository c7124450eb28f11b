package api

import (
	"errors"
	"net/http"
	"strings"
)

// Validation failures for the inbound upgrade request.
var (
	ErrNotWebSocket        = errors.New("not a websocket upgrade request")
	ErrMissingParentTalkID = errors.New("parentTalkId query parameter is required")
	ErrMissingToken        = errors.New("bearer token is required")
)

// TalkRequest is the validated parameter pair extracted from the inbound
// upgrade request.
type TalkRequest struct {
	ParentTalkID string
	Token        string
}

// ParseTalkRequest validates the upgrade request and extracts the parent
// talk id from the query string and the bearer token from the
// Sec-WebSocket-Protocol header's bearer.<token> entry.
func ParseTalkRequest(r *http.Request) (*TalkRequest, error) {
	if !strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
		return nil, ErrNotWebSocket
	}

	parentTalkID := strings.TrimSpace(r.URL.Query().Get("parentTalkId"))
	if parentTalkID == "" {
		return nil, ErrMissingParentTalkID
	}

	token := extractBearerProtocol(r.Header.Get("Sec-WebSocket-Protocol"))
	if token == "" {
		return nil, ErrMissingToken
	}

	return &TalkRequest{
		ParentTalkID: parentTalkID,
		Token:        token,
	}, nil
}

// extractBearerProtocol finds the bearer.<token> entry among the offered
// websocket subprotocols.
func extractBearerProtocol(header string) string {
	for _, entry := range strings.Split(header, ",") {
		entry = strings.TrimSpace(entry)
		if strings.HasPrefix(entry, "bearer.") {
			return strings.TrimPrefix(entry, "bearer.")
		}
	}
	return ""
}
