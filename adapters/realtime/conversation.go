package realtime

import (
	"encoding/json"

	"github.com/modutalk/talkgate/domain/entities"
)

// serverEvent carries the minimal fields the gateway needs to track turns.
// Everything else in the frame is relayed untouched.
type serverEvent struct {
	Type   string `json:"type"`
	ItemID string `json:"item_id"`
	Item   *struct {
		ID      string `json:"id"`
		Role    string `json:"role"`
		Status  string `json:"status"`
		Content []struct {
			Type       string `json:"type"`
			Text       string `json:"text"`
			Transcript string `json:"transcript"`
		} `json:"content"`
	} `json:"item"`
	Transcript string `json:"transcript"`
}

// conversation assembles turn snapshots from the upstream event stream,
// keeping items in creation order. It deliberately understands only the
// handful of fields needed to deduplicate turns downstream.
type conversation struct {
	order []string
	items map[string]*entities.SessionItem
}

func newConversation() *conversation {
	return &conversation{
		items: make(map[string]*entities.SessionItem),
	}
}

// track feeds one raw upstream frame into the conversation. It returns the
// current item snapshot and true when the frame completed a turn, meaning
// the snapshot should be handed to the subscriber.
func (c *conversation) track(raw []byte) ([]entities.SessionItem, bool) {
	var event serverEvent
	if err := json.Unmarshal(raw, &event); err != nil {
		return nil, false
	}

	switch event.Type {
	case "conversation.item.created":
		if event.Item == nil || event.Item.ID == "" {
			return nil, false
		}
		item := c.upsert(event.Item.ID, event.Item.Role)
		item.ContentText, item.ContentType = itemContent(event)
		if event.Item.Status == string(entities.SessionItemStatusCompleted) {
			item.Status = entities.SessionItemStatusCompleted
			return c.snapshot(), true
		}
		return nil, false

	case "conversation.item.input_audio_transcription.completed":
		if event.ItemID == "" {
			return nil, false
		}
		item := c.upsert(event.ItemID, string(entities.SessionItemRoleUser))
		item.ContentText = event.Transcript
		item.ContentType = entities.ContentTypeInputAudio
		item.Status = entities.SessionItemStatusCompleted
		return c.snapshot(), true

	case "response.output_item.done":
		if event.Item == nil || event.Item.ID == "" {
			return nil, false
		}
		item := c.upsert(event.Item.ID, event.Item.Role)
		item.ContentText, item.ContentType = itemContent(event)
		item.Status = entities.SessionItemStatusCompleted
		return c.snapshot(), true
	}

	return nil, false
}

// upsert returns the tracked item for id, creating it in creation order if
// this is the first time the id is seen.
func (c *conversation) upsert(id string, role string) *entities.SessionItem {
	if item, ok := c.items[id]; ok {
		return item
	}
	itemRole := entities.SessionItemRole(role)
	if itemRole != entities.SessionItemRoleUser && itemRole != entities.SessionItemRoleAssistant {
		itemRole = entities.SessionItemRoleAssistant
	}
	item := &entities.SessionItem{
		ID:     id,
		Role:   itemRole,
		Status: entities.SessionItemStatusInProgress,
	}
	c.items[id] = item
	c.order = append(c.order, id)
	return item
}

// snapshot returns a copy of every tracked item in creation order.
func (c *conversation) snapshot() []entities.SessionItem {
	items := make([]entities.SessionItem, 0, len(c.order))
	for _, id := range c.order {
		items = append(items, *c.items[id])
	}
	return items
}

// itemContent extracts the first usable text and content type from the
// event's content parts. Audio parts carry their text as a transcript.
func itemContent(event serverEvent) (string, entities.ContentType) {
	if event.Item == nil {
		return "", entities.ContentTypeInputText
	}
	for _, part := range event.Item.Content {
		contentType := entities.ContentType(part.Type)
		switch contentType {
		case entities.ContentTypeInputText, entities.ContentTypeInputAudio, entities.ContentTypeAudio:
		case "text":
			contentType = entities.ContentTypeInputText
		default:
			continue
		}
		text := part.Text
		if text == "" {
			text = part.Transcript
		}
		return text, contentType
	}
	return "", entities.ContentTypeInputText
}
