package blob

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/enxxi/v-board/internal/domain/attachment"
	"github.com/enxxi/v-board/internal/infrastructure/storage/postgres"
	"github.com/enxxi/v-board/pkg/logger"
)

// CleanupHandler deletes attachment blobs named by outbox events. Blob
// deletion is best-effort and happens strictly after the cascade commits:
// a failed delete only re-queues the event, never the cascade.
type CleanupHandler struct {
	store attachment.BlobStore
}

// NewCleanupHandler creates the outbox handler for blob cleanup.
func NewCleanupHandler(store attachment.BlobStore) *CleanupHandler {
	return &CleanupHandler{store: store}
}

// Handle processes one outbox message. Unknown event types are skipped so
// new producers do not wedge the relay.
func (h *CleanupHandler) Handle(ctx context.Context, msg *postgres.OutboxMessage) error {
	if msg.EventType != postgres.EventAttachmentsTombstoned {
		logger.Debug(ctx, "skipping unknown outbox event", "event_type", msg.EventType)
		return nil
	}

	var payload postgres.AttachmentsTombstonedPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal cleanup payload: %w", err)
	}

	for _, url := range payload.URLs {
		if err := h.store.Delete(ctx, url); err != nil {
			return fmt.Errorf("delete blob %s: %w", url, err)
		}
	}

	logger.Info(ctx, "attachment blobs cleaned up",
		"root_kind", payload.RootKind,
		"root_id", payload.RootID,
		"count", len(payload.URLs),
	)

	return nil
}

var _ postgres.OutboxHandler = (*CleanupHandler)(nil)
