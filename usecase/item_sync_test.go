package usecase

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/modutalk/talkgate/domain"
	"github.com/modutalk/talkgate/domain/entities"
)

type appendCall struct {
	sessionID int64
	item      entities.SessionItem
}

// recordingBackend implements repositories.TalkBackend and records calls.
type recordingBackend struct {
	appends   []appendCall
	appendErr error
	failAfter int // fail the append once this many have succeeded, -1 disables
}

func newRecordingBackend() *recordingBackend {
	return &recordingBackend{failAfter: -1}
}

func (b *recordingBackend) CreateSession(ctx context.Context, parentTalkID string) (*entities.TalkSessionInfo, error) {
	return &entities.TalkSessionInfo{TalkSessionID: 7, Status: entities.TalkSessionStatusCreated}, nil
}

func (b *recordingBackend) AppendItem(ctx context.Context, sessionID int64, item entities.SessionItem) error {
	if b.appendErr != nil {
		if b.failAfter < 0 || len(b.appends) >= b.failAfter {
			return b.appendErr
		}
	}
	b.appends = append(b.appends, appendCall{sessionID: sessionID, item: item})
	return nil
}

func (b *recordingBackend) CancelTalk(ctx context.Context, parentTalkID string) error {
	return nil
}

func (b *recordingBackend) CompleteTalk(ctx context.Context, parentTalkID string) error {
	return nil
}

func TestSyncPersistsCompletedTurnOnce(t *testing.T) {
	backend := newRecordingBackend()
	sync := NewItemSync(backend, zap.NewNop())

	item := userItem("a1", "hello")
	if err := sync.Sync(context.Background(), 7, []entities.SessionItem{item}); err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if err := sync.Sync(context.Background(), 7, []entities.SessionItem{item}); err != nil {
		t.Fatalf("Replay sync failed: %v", err)
	}

	if len(backend.appends) != 1 {
		t.Fatalf("Expected exactly 1 append for replayed identical turn, got %d", len(backend.appends))
	}
	if backend.appends[0].sessionID != 7 {
		t.Errorf("Expected sessionID 7, got %d", backend.appends[0].sessionID)
	}
	if backend.appends[0].item.ID != "a1" {
		t.Errorf("Expected item a1, got %s", backend.appends[0].item.ID)
	}
}

func TestSyncRePersistsUpdatedTurn(t *testing.T) {
	backend := newRecordingBackend()
	sync := NewItemSync(backend, zap.NewNop())

	if err := sync.Sync(context.Background(), 7, []entities.SessionItem{userItem("a1", "hello")}); err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if err := sync.Sync(context.Background(), 7, []entities.SessionItem{userItem("a1", "hello again")}); err != nil {
		t.Fatalf("Update sync failed: %v", err)
	}

	if len(backend.appends) != 2 {
		t.Fatalf("Expected 2 appends for an updated turn, got %d", len(backend.appends))
	}
	if backend.appends[1].item.ContentText != "hello again" {
		t.Errorf("Expected second append to carry the new text, got %q", backend.appends[1].item.ContentText)
	}
}

func TestSyncPersistsInBatchOrder(t *testing.T) {
	backend := newRecordingBackend()
	sync := NewItemSync(backend, zap.NewNop())

	batch := []entities.SessionItem{
		userItem("a1", "one"),
		userItem("a2", "two"),
		userItem("a3", "three"),
	}
	if err := sync.Sync(context.Background(), 7, batch); err != nil {
		t.Fatalf("Sync failed: %v", err)
	}

	if len(backend.appends) != 3 {
		t.Fatalf("Expected 3 appends, got %d", len(backend.appends))
	}
	for i, want := range []string{"a1", "a2", "a3"} {
		if backend.appends[i].item.ID != want {
			t.Errorf("Expected append %d to be %s, got %s", i, want, backend.appends[i].item.ID)
		}
	}
}

func TestSyncClearsStoreOnFailure(t *testing.T) {
	backend := newRecordingBackend()
	sync := NewItemSync(backend, zap.NewNop())

	backend.appendErr = errors.New("backend unavailable")
	err := sync.Sync(context.Background(), 7, []entities.SessionItem{userItem("a1", "hello")})
	if err == nil {
		t.Fatal("Expected sync to fail")
	}
	if !errors.Is(err, domain.ErrPersistenceFailed) {
		t.Errorf("Expected ErrPersistenceFailed, got %v", err)
	}
	if sync.store.Len() != 0 {
		t.Errorf("Expected store to be cleared after failure, got %d items", sync.store.Len())
	}

	// A subsequent batch with the previously-seen, unchanged item must be
	// persisted again.
	backend.appendErr = nil
	if err := sync.Sync(context.Background(), 7, []entities.SessionItem{userItem("a1", "hello")}); err != nil {
		t.Fatalf("Retry sync failed: %v", err)
	}
	if len(backend.appends) != 1 {
		t.Errorf("Expected previously-seen item to be re-persisted, got %d appends", len(backend.appends))
	}
}

func TestSyncStopsBatchOnFirstFailure(t *testing.T) {
	backend := newRecordingBackend()
	backend.appendErr = errors.New("backend unavailable")
	backend.failAfter = 1
	sync := NewItemSync(backend, zap.NewNop())

	batch := []entities.SessionItem{
		userItem("a1", "one"),
		userItem("a2", "two"),
		userItem("a3", "three"),
	}
	if err := sync.Sync(context.Background(), 7, batch); err == nil {
		t.Fatal("Expected sync to fail")
	}

	if len(backend.appends) != 1 {
		t.Errorf("Expected no appends after the failed one, got %d", len(backend.appends))
	}
}
