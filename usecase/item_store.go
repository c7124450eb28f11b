package usecase

import "github.com/modutalk/talkgate/domain/entities"

// ItemStore holds the last-seen conversation turns for one relayed
// connection, keyed by turn ID. It is owned exclusively by one relay and
// only ever touched from that relay's event dispatch, so it needs no
// locking.
type ItemStore struct {
	items map[string]entities.SessionItem
}

// NewItemStore creates an empty item store.
func NewItemStore() *ItemStore {
	return &ItemStore{
		items: make(map[string]entities.SessionItem),
	}
}

// Reconcile decides, for each incoming item in order, whether it needs to
// be persisted. A turn ID not seen before is inserted and marked; a known
// ID with unchanged content is skipped; a known ID with changed content is
// overwritten and marked as an update. The returned slice preserves the
// input order.
func (s *ItemStore) Reconcile(items []entities.SessionItem) []entities.SessionItem {
	var toPersist []entities.SessionItem
	for _, item := range items {
		existing, ok := s.items[item.ID]
		if ok && existing.SameContent(item) {
			continue
		}
		s.items[item.ID] = item
		toPersist = append(toPersist, item)
	}
	return toPersist
}

// Clear drops every stored item. Called after a persistence failure so that
// the next batch re-derives and re-sends everything instead of silently
// diverging from backend truth.
func (s *ItemStore) Clear() {
	s.items = make(map[string]entities.SessionItem)
}

// Len returns the number of stored items.
func (s *ItemStore) Len() int {
	return len(s.items)
}
