package application

import (
	"context"
	"time"
)

const (
	EventAccountCreated = "account.created"
	EventAccountUpdated = "account.updated"
)

// AccountEvent is emitted after a successful write. It never carries credentials.
type AccountEvent struct {
	Type       string    `json:"type"`
	AccountID  string    `json:"account_id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	PrevEmail  string    `json:"prev_email,omitempty"`
	Changed    []string  `json:"changed,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// EventPublisher receives account events once the store write has committed.
type EventPublisher interface {
	Publish(ctx context.Context, ev AccountEvent) error
}
