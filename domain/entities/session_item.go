package entities

// SessionItemRole represents the speaker of a conversation turn
type SessionItemRole string

const (
	SessionItemRoleUser      SessionItemRole = "user"
	SessionItemRoleAssistant SessionItemRole = "assistant"
)

// SessionItemStatus represents the lifecycle state of a conversation turn
type SessionItemStatus string

const (
	SessionItemStatusInProgress SessionItemStatus = "in_progress"
	SessionItemStatusCompleted  SessionItemStatus = "completed"
)

// ContentType represents the media type of a conversation turn
type ContentType string

const (
	ContentTypeInputText  ContentType = "input_text"
	ContentTypeInputAudio ContentType = "input_audio"
	ContentTypeAudio      ContentType = "audio"
)

// SessionItem is one utterance (user or assistant) within a talk session.
// The ID is the stable turn identifier assigned by the upstream realtime
// service and is unique within one session.
type SessionItem struct {
	ID          string            `json:"id"`
	Role        SessionItemRole   `json:"role"`
	Status      SessionItemStatus `json:"status"`
	ContentText string            `json:"contentText"`
	ContentType ContentType       `json:"contentType"`
}

// SameContent reports whether other carries the same content text. Items
// with identical content are skipped during reconciliation; a changed text
// under the same ID is treated as an update.
func (i SessionItem) SameContent(other SessionItem) bool {
	return i.ContentText == other.ContentText
}
