// Package events publishes complaint lifecycle changes to Kafka so other
// city systems (dashboards, analytics) can follow along. Publishing is
// best effort and never blocks or fails a transition.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// StatusEvent records one lifecycle change of a complaint.
type StatusEvent struct {
	ComplaintID        uuid.UUID `json:"complaint_id"`
	OwnerID            uuid.UUID `json:"owner_id"`
	Status             string    `json:"status"`
	VerificationStatus string    `json:"verification_status"`
	ActorID            uuid.UUID `json:"actor_id"`
	OccurredAt         time.Time `json:"occurred_at"`
}

// Publisher emits lifecycle events.
type Publisher interface {
	PublishStatusChange(ctx context.Context, event StatusEvent)
	Close()
}

// Noop drops all events. Used when Kafka is not configured.
type Noop struct{}

func (Noop) PublishStatusChange(context.Context, StatusEvent) {}

func (Noop) Close() {}
