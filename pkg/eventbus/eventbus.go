// Package eventbus publishes entity-change events to the sync transport that
// pushes updates to subscribed clients. The core treats the transport as a
// consumed collaborator: it publishes after commit and never blocks a
// mutation on delivery.
package eventbus

import (
	"context"
	"time"
)

// Event describes one committed change to an entity, membership, or grant.
type Event struct {
	Type       string    `json:"type"` // e.g. "vault.created", "membership.revoked"
	EntityType string    `json:"entityType"`
	EntityID   string    `json:"entityId"`
	VaultID    string    `json:"vaultId,omitempty"`
	ActorID    string    `json:"actorId"`
	OccurredAt time.Time `json:"occurredAt"`
}

// Publisher pushes events to the transport.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// NopPublisher discards events. Used in tests and when no broker is
// configured.
type NopPublisher struct{}

func (NopPublisher) Publish(ctx context.Context, event Event) error { return nil }
func (NopPublisher) Close() error                                   { return nil }
