// Package events publishes ledger and notification events for downstream
// consumers (push delivery, analytics). Publishing is best-effort.
package events

import (
	"context"
	"time"
)

// Event types.
const (
	TypeTransferCompleted   = "ledger.transfer.completed"
	TypeDepositInitiated    = "ledger.deposit.initiated"
	TypeDepositCompleted    = "ledger.deposit.completed"
	TypeBasketCancelled     = "basket.cancelled"
	TypeDeliveryRequested   = "basket.delivery_requested"
	TypeNotificationCreated = "notification.created"
)

// Event is one message on the stream. Key orders events per user.
type Event struct {
	Type       string    `json:"type"`
	Key        string    `json:"-"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload"`
}

// New stamps an event of type typ for key.
func New(typ, key string, payload any) Event {
	return Event{Type: typ, Key: key, OccurredAt: time.Now().UTC(), Payload: payload}
}

// Publisher sends events.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// Nop discards every event. Used when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error { return nil }
