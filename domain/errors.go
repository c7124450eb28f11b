package domain

import "errors"

// Connection-fatal error classes. Parse errors on individual relayed frames
// are logged and dropped, everything below tears the whole connection down.
var (
	ErrInvalidRequest        = errors.New("invalid websocket request")
	ErrSessionCreateFailed   = errors.New("talk session creation failed")
	ErrUpstreamConnectFailed = errors.New("upstream connection failed")
	ErrPersistenceFailed     = errors.New("session item persistence failed")
)
