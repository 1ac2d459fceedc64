package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	OrderCreated              Type = "order.created"
	OrderStatusChanged        Type = "order.status_changed"
	OrderPaymentStatusChanged Type = "order.payment_status_changed"
)

type Event struct {
	ID        uuid.UUID         `json:"id"`
	Type      Type              `json:"type"`
	OrderID   string            `json:"order_id"`
	UserID    string            `json:"user_id,omitempty"`
	Data      map[string]string `json:"data,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

func NewEvent(eventType Type, orderID, userID string, data map[string]string) Event {
	return Event{
		ID:        uuid.New(),
		Type:      eventType,
		OrderID:   orderID,
		UserID:    userID,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}
}

// Publisher delivers order lifecycle events. Failures are reported, never retried.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

type noopPublisher struct{}

func NewNoopPublisher() Publisher {
	return noopPublisher{}
}

func (noopPublisher) Publish(ctx context.Context, event Event) error {
	return nil
}

func (noopPublisher) Close() error {
	return nil
}
