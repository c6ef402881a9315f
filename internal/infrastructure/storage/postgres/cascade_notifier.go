package postgres

import (
	"context"

	"github.com/enxxi/v-board/internal/domain/cascade"
)

// AttachmentsTombstonedPayload is the outbox payload handed to the blob
// cleanup worker after a cascade commits.
type AttachmentsTombstonedPayload struct {
	RootKind string   `json:"rootKind"`
	RootID   string   `json:"rootId"`
	URLs     []string `json:"urls"`
}

// OutboxNotifier hands tombstoned attachment URLs to the outbox. It runs
// inside the deleting transaction, so the hand-off commits atomically with
// the tombstones and the relay picks it up afterwards.
type OutboxNotifier struct {
	publisher *OutboxPublisher
}

// NewOutboxNotifier creates the cascade-to-outbox adapter.
func NewOutboxNotifier(publisher *OutboxPublisher) *OutboxNotifier {
	return &OutboxNotifier{publisher: publisher}
}

// AttachmentsTombstoned publishes one event per cascade carrying every
// affected blob URL. Cascades without attachments publish nothing.
func (n *OutboxNotifier) AttachmentsTombstoned(ctx context.Context, plan *cascade.Plan) error {
	urls := plan.AttachmentURLs()
	if len(urls) == 0 {
		return nil
	}

	return n.publisher.Publish(ctx, DomainEvent{
		AggregateType: string(plan.RootKind),
		AggregateID:   plan.RootID,
		EventType:     EventAttachmentsTombstoned,
		Payload: AttachmentsTombstonedPayload{
			RootKind: string(plan.RootKind),
			RootID:   plan.RootID.String(),
			URLs:     urls,
		},
	})
}

var _ cascade.Notifier = (*OutboxNotifier)(nil)
