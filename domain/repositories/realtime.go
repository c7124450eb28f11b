package repositories

import (
	"context"

	"github.com/modutalk/talkgate/domain/entities"
)

// RealtimeHandler receives events from the upstream realtime connection.
// A single handler is registered per connection; methods are invoked from
// the connection's read loop, one event at a time, in arrival order. A
// handler method must return before the next event is dispatched, so item
// batches are always processed to completion before the next batch.
type RealtimeHandler interface {
	// OnServerEvent is invoked with every raw upstream frame.
	OnServerEvent(raw []byte)

	// OnItemsCompleted is invoked when a turn reaches completed status,
	// carrying the full current item snapshot in creation/update order.
	OnItemsCompleted(items []entities.SessionItem)

	// OnClose is invoked once when the upstream connection closes.
	OnClose(hadError bool, code int, reason string)
}

// RealtimeConnection owns the websocket to the upstream realtime AI
// service. A closed connection is terminal; no reconnection is attempted.
type RealtimeConnection interface {
	// Subscribe registers the handler. Must be called before Connect.
	Subscribe(handler RealtimeHandler)

	// Connect establishes the upstream websocket, applies the session
	// configuration, and drains any messages queued before connection.
	Connect(ctx context.Context) error

	// Send forwards a raw message to the upstream if connected, or queues
	// it FIFO until Connect completes. Malformed (non-JSON) messages are
	// dropped with a logged warning.
	Send(raw []byte)

	// Disconnect closes the connection and discards the queue. Idempotent.
	Disconnect()
}
