// Package notify carries claim events from the API to the people involved.
// The API publishes events to a Kafka topic; cmd/notifier consumes them and
// delivers each one through a Sender.
package notify

import (
	"context"
	"time"
)

// EventType names what happened to a claim.
type EventType string

const (
	ClaimSubmitted EventType = "claim.submitted"
	ClaimReviewed  EventType = "claim.reviewed"
)

// Event is the JSON schema of messages on the claim events topic.
//
//	{
//	  "id":         "550e8400-e29b-41d4-a716-446655440000",
//	  "type":       "claim.reviewed",
//	  "claimId":    "c-1",
//	  "itemId":     "found-002",
//	  "claimantId": "user-1",
//	  "reviewerId": "admin-001",
//	  "status":     "approved",
//	  "occurredAt": "2025-10-01T09:00:00Z"
//	}
type Event struct {
	// ID is unique per event so replays of a partition can be deduplicated.
	ID         string    `json:"id"`
	Type       EventType `json:"type"`
	ClaimID    string    `json:"claimId"`
	ItemID     string    `json:"itemId"`
	ClaimantID string    `json:"claimantId"`
	ReviewerID string    `json:"reviewerId,omitempty"`
	Status     string    `json:"status"`
	OccurredAt time.Time `json:"occurredAt"`
}

// Publisher emits claim events.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
