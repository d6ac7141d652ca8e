// Package events delivers account events to the message broker and fans them
// out to other projections.
package events

import (
	"context"
	"errors"
	"time"

	"github.com/oksasatya/go-account-service/internal/application"
)

// JSONPublisher is implemented by helpers.RabbitPublisher.
type JSONPublisher interface {
	PublishJSON(ctx context.Context, msgType string, body any) error
}

// BrokerPublisher puts account events on the account events queue.
type BrokerPublisher struct {
	Pub     JSONPublisher
	Timeout time.Duration
}

func NewBrokerPublisher(pub JSONPublisher) *BrokerPublisher {
	return &BrokerPublisher{Pub: pub, Timeout: 3 * time.Second}
}

func (b *BrokerPublisher) Publish(ctx context.Context, ev application.AccountEvent) error {
	c, cancel := context.WithTimeout(ctx, b.Timeout)
	defer cancel()
	return b.Pub.PublishJSON(c, ev.Type, ev)
}

// Fanout delivers each event to every publisher and joins their errors.
type Fanout []application.EventPublisher

func (f Fanout) Publish(ctx context.Context, ev application.AccountEvent) error {
	var errs []error
	for _, p := range f {
		if err := p.Publish(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
