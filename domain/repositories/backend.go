package repositories

import (
	"context"

	"github.com/modutalk/talkgate/domain/entities"
)

// TalkBackend abstracts the persistence backend's talk session API. Each
// call is a single network request; no retries and no batching here.
type TalkBackend interface {
	// CreateSession creates a new talk session under the given parent talk.
	CreateSession(ctx context.Context, parentTalkID string) (*entities.TalkSessionInfo, error)

	// AppendItem appends one conversation turn to the session's log.
	AppendItem(ctx context.Context, sessionID int64, item entities.SessionItem) error

	// CancelTalk marks the parent talk as cancelled.
	CancelTalk(ctx context.Context, parentTalkID string) error

	// CompleteTalk marks the parent talk as completed.
	CompleteTalk(ctx context.Context, parentTalkID string) error
}
