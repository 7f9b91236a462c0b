package core

import (
	"context"
	"time"

	"go.uber.org/zap"

	"keepsake-backend-go/pkg/eventbus"
)

// publishEvent pushes a change event to the sync transport after a commit.
// Delivery failures are logged, never propagated: clients that miss an event
// reconcile on their next snapshot read.
func publishEvent(ctx context.Context, logger *zap.Logger, events eventbus.Publisher, eventType, entityType, entityID, vaultID, actorID string) {
	if events == nil {
		return
	}
	err := events.Publish(ctx, eventbus.Event{
		Type:       eventType,
		EntityType: entityType,
		EntityID:   entityID,
		VaultID:    vaultID,
		ActorID:    actorID,
		OccurredAt: time.Now().UTC(),
	})
	if err != nil {
		logger.Warn("failed to publish change event",
			zap.String("type", eventType),
			zap.String("entityId", entityID),
			zap.Error(err))
	}
}
