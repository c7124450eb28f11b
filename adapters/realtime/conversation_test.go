package realtime

import (
	"testing"

	"github.com/modutalk/talkgate/domain/entities"
)

func TestTrackIgnoresUnrelatedEvents(t *testing.T) {
	conv := newConversation()

	for _, raw := range []string{
		`{"type":"session.created"}`,
		`{"type":"response.audio.delta","delta":"AAAA"}`,
		`not json`,
	} {
		if _, completed := conv.track([]byte(raw)); completed {
			t.Errorf("Expected no snapshot for %q", raw)
		}
	}
}

func TestTrackUserTextItem(t *testing.T) {
	conv := newConversation()

	raw := `{"type":"conversation.item.created","item":{"id":"a1","role":"user","status":"completed","content":[{"type":"input_text","text":"hello"}]}}`
	items, completed := conv.track([]byte(raw))
	if !completed {
		t.Fatal("Expected completed item to yield a snapshot")
	}
	if len(items) != 1 {
		t.Fatalf("Expected 1 item, got %d", len(items))
	}

	item := items[0]
	if item.ID != "a1" || item.Role != entities.SessionItemRoleUser {
		t.Errorf("Unexpected item identity: %+v", item)
	}
	if item.ContentText != "hello" {
		t.Errorf("Expected text hello, got %q", item.ContentText)
	}
	if item.ContentType != entities.ContentTypeInputText {
		t.Errorf("Expected input_text, got %s", item.ContentType)
	}
	if item.Status != entities.SessionItemStatusCompleted {
		t.Errorf("Expected completed, got %s", item.Status)
	}
}

func TestTrackAudioTranscriptionCompletesItem(t *testing.T) {
	conv := newConversation()

	created := `{"type":"conversation.item.created","item":{"id":"a1","role":"user","status":"in_progress","content":[{"type":"input_audio"}]}}`
	if _, completed := conv.track([]byte(created)); completed {
		t.Fatal("Expected in-progress item not to yield a snapshot")
	}

	transcribed := `{"type":"conversation.item.input_audio_transcription.completed","item_id":"a1","transcript":"hello there"}`
	items, completed := conv.track([]byte(transcribed))
	if !completed {
		t.Fatal("Expected transcription completion to yield a snapshot")
	}
	if items[0].ContentText != "hello there" {
		t.Errorf("Expected transcript text, got %q", items[0].ContentText)
	}
	if items[0].ContentType != entities.ContentTypeInputAudio {
		t.Errorf("Expected input_audio, got %s", items[0].ContentType)
	}
}

func TestTrackAssistantOutputItemDone(t *testing.T) {
	conv := newConversation()

	raw := `{"type":"response.output_item.done","item":{"id":"b1","role":"assistant","content":[{"type":"audio","transcript":"hi, how can I help?"}]}}`
	items, completed := conv.track([]byte(raw))
	if !completed {
		t.Fatal("Expected done output item to yield a snapshot")
	}

	item := items[0]
	if item.Role != entities.SessionItemRoleAssistant {
		t.Errorf("Expected assistant role, got %s", item.Role)
	}
	if item.ContentText != "hi, how can I help?" {
		t.Errorf("Expected transcript as text, got %q", item.ContentText)
	}
	if item.ContentType != entities.ContentTypeAudio {
		t.Errorf("Expected audio content type, got %s", item.ContentType)
	}
}

func TestSnapshotPreservesCreationOrder(t *testing.T) {
	conv := newConversation()

	conv.track([]byte(`{"type":"conversation.item.created","item":{"id":"a1","role":"user","status":"completed","content":[{"type":"input_text","text":"one"}]}}`))
	items, completed := conv.track([]byte(`{"type":"response.output_item.done","item":{"id":"b1","role":"assistant","content":[{"type":"text","text":"two"}]}}`))
	if !completed {
		t.Fatal("Expected snapshot")
	}

	if len(items) != 2 {
		t.Fatalf("Expected 2 items, got %d", len(items))
	}
	if items[0].ID != "a1" || items[1].ID != "b1" {
		t.Errorf("Expected creation order a1, b1; got %s, %s", items[0].ID, items[1].ID)
	}
}

func TestTrackUpdatesExistingItemText(t *testing.T) {
	conv := newConversation()

	conv.track([]byte(`{"type":"response.output_item.done","item":{"id":"b1","role":"assistant","content":[{"type":"text","text":"draft"}]}}`))
	items, completed := conv.track([]byte(`{"type":"response.output_item.done","item":{"id":"b1","role":"assistant","content":[{"type":"text","text":"final"}]}}`))
	if !completed {
		t.Fatal("Expected snapshot")
	}

	if len(items) != 1 {
		t.Fatalf("Expected 1 item, got %d", len(items))
	}
	if items[0].ContentText != "final" {
		t.Errorf("Expected updated text, got %q", items[0].ContentText)
	}
}
