package usecase

import (
	"testing"

	"github.com/modutalk/talkgate/domain/entities"
)

func userItem(id, text string) entities.SessionItem {
	return entities.SessionItem{
		ID:          id,
		Role:        entities.SessionItemRoleUser,
		Status:      entities.SessionItemStatusCompleted,
		ContentText: text,
		ContentType: entities.ContentTypeInputText,
	}
}

func TestReconcileNewItem(t *testing.T) {
	store := NewItemStore()

	marked := store.Reconcile([]entities.SessionItem{userItem("a1", "hello")})

	if len(marked) != 1 {
		t.Fatalf("Expected 1 item marked for persist, got %d", len(marked))
	}
	if marked[0].ID != "a1" {
		t.Errorf("Expected item a1, got %s", marked[0].ID)
	}
	if store.Len() != 1 {
		t.Errorf("Expected store to hold 1 item, got %d", store.Len())
	}
}

func TestReconcileUnchangedItemSkipped(t *testing.T) {
	store := NewItemStore()
	store.Reconcile([]entities.SessionItem{userItem("a1", "hello")})

	marked := store.Reconcile([]entities.SessionItem{userItem("a1", "hello")})

	if len(marked) != 0 {
		t.Errorf("Expected unchanged item to be skipped, got %d marked", len(marked))
	}
}

func TestReconcileChangedItemReMarked(t *testing.T) {
	store := NewItemStore()
	store.Reconcile([]entities.SessionItem{userItem("a1", "hello")})

	marked := store.Reconcile([]entities.SessionItem{userItem("a1", "hello world")})

	if len(marked) != 1 {
		t.Fatalf("Expected changed item to be re-marked, got %d", len(marked))
	}
	if marked[0].ContentText != "hello world" {
		t.Errorf("Expected updated content, got %q", marked[0].ContentText)
	}
	if store.Len() != 1 {
		t.Errorf("Expected store to still hold 1 item, got %d", store.Len())
	}
}

func TestReconcilePreservesBatchOrder(t *testing.T) {
	store := NewItemStore()

	marked := store.Reconcile([]entities.SessionItem{
		userItem("a1", "one"),
		userItem("a2", "two"),
		userItem("a3", "three"),
	})

	if len(marked) != 3 {
		t.Fatalf("Expected 3 items marked, got %d", len(marked))
	}
	for i, want := range []string{"a1", "a2", "a3"} {
		if marked[i].ID != want {
			t.Errorf("Expected item %s at position %d, got %s", want, i, marked[i].ID)
		}
	}
}

func TestClearForcesRePersist(t *testing.T) {
	store := NewItemStore()
	store.Reconcile([]entities.SessionItem{userItem("a1", "hello")})

	store.Clear()

	if store.Len() != 0 {
		t.Fatalf("Expected empty store after clear, got %d items", store.Len())
	}
	marked := store.Reconcile([]entities.SessionItem{userItem("a1", "hello")})
	if len(marked) != 1 {
		t.Errorf("Expected previously-seen item to be re-marked after clear, got %d", len(marked))
	}
}
