package usecase

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/modutalk/talkgate/domain"
	"github.com/modutalk/talkgate/domain/entities"
	"github.com/modutalk/talkgate/domain/repositories"
)

// ItemSync mirrors completed conversation turns to the persistence backend,
// deduplicating through an ItemStore so that each distinct content value of
// a turn is persisted at most once.
type ItemSync struct {
	store   *ItemStore
	backend repositories.TalkBackend
	logger  *zap.Logger
}

// NewItemSync creates an item sync service for one talk session.
func NewItemSync(backend repositories.TalkBackend, logger *zap.Logger) *ItemSync {
	return &ItemSync{
		store:   NewItemStore(),
		backend: backend,
		logger:  logger,
	}
}

// Sync reconciles a batch of items against the store and persists the
// marked subset sequentially, in batch order, so that a later turn never
// visibly precedes an earlier one in the backend's append log. On the first
// failed append the store is cleared in full and the error is returned;
// remaining items of the batch are not sent.
func (s *ItemSync) Sync(ctx context.Context, sessionID int64, items []entities.SessionItem) error {
	for _, item := range s.store.Reconcile(items) {
		if err := s.backend.AppendItem(ctx, sessionID, item); err != nil {
			s.store.Clear()
			s.logger.Error("Failed to append session item",
				zap.Int64("sessionID", sessionID),
				zap.String("itemID", item.ID),
				zap.Error(err))
			return fmt.Errorf("%w: append item %s: %v", domain.ErrPersistenceFailed, item.ID, err)
		}
	}
	return nil
}
