package entities

// TalkSessionStatus represents the status of a talk session as tracked by
// the persistence backend. Status transitions happen only through backend
// calls, never locally.
type TalkSessionStatus string

const (
	TalkSessionStatusCreated    TalkSessionStatus = "CREATED"
	TalkSessionStatusInProgress TalkSessionStatus = "IN_PROGRESS"
	TalkSessionStatusCompleted  TalkSessionStatus = "COMPLETED"
	TalkSessionStatusCancelled  TalkSessionStatus = "CANCELLED"
)

// TalkSessionInfo identifies one logical conversation. Exactly one exists
// per relayed connection, issued by the backend before any turn is persisted.
type TalkSessionInfo struct {
	TalkSessionID int64             `json:"talkSessionId"`
	ParentTalkID  int64             `json:"parentTalkId"`
	CreatedUserID int64             `json:"createdUserId"`
	Status        TalkSessionStatus `json:"status"`
	CreatedAt     string            `json:"createdAt"`
	CompletedAt   *string           `json:"completedAt"`
}
