// Package notify delivers lifecycle events to interested parties after the
// change that produced them has committed. Delivery is at-least-once; every
// event carries a unique id for deduplication.
package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	RequestCreated     EventType = "request.created"
	RequestOpened      EventType = "request.opened"
	RequestCancelled   EventType = "request.cancelled"
	RequestExpired     EventType = "request.expired"
	BidReceived        EventType = "bid.received"
	BidUpdated         EventType = "bid.updated"
	BidCancelled       EventType = "bid.cancelled"
	BidAccepted        EventType = "bid.accepted"
	BidRejected        EventType = "bid.rejected"
	OrderCreated       EventType = "order.created"
	OrderStatusChanged EventType = "order.status_changed"
)

type Event struct {
	ID         uuid.UUID      `json:"id"`
	Type       EventType      `json:"type"`
	OccurredAt time.Time      `json:"occurredAt"`
	Recipients []int64        `json:"recipients"`
	RequestID  int64          `json:"requestId,omitempty"`
	BidID      int64          `json:"bidId,omitempty"`
	OrderID    int64          `json:"orderId,omitempty"`
	Payload    map[string]any `json:"payload,omitempty"`
}

func NewEvent(t EventType, occurredAt time.Time, recipients ...int64) Event {
	return Event{
		ID:         uuid.New(),
		Type:       t,
		OccurredAt: occurredAt.UTC(),
		Recipients: recipients,
	}
}

// Notifier delivers one event. Implementations may be slow or fail; callers
// go through a Dispatcher so neither affects the lifecycle operation.
type Notifier interface {
	Notify(ctx context.Context, e Event) error
}

// LogNotifier writes events to the structured log.
type LogNotifier struct {
	log *slog.Logger
}

func NewLogNotifier(log *slog.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Notify(ctx context.Context, e Event) error {
	n.log.InfoContext(ctx, "notification",
		"event_id", e.ID.String(),
		"type", string(e.Type),
		"recipients", e.Recipients,
		"request_id", e.RequestID,
		"bid_id", e.BidID,
		"order_id", e.OrderID,
	)
	return nil
}

// Multi fans an event out to several notifiers and returns the first error.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, e Event) error {
	var first error
	for _, n := range m {
		if err := n.Notify(ctx, e); err != nil && first == nil {
			first = err
		}
	}
	return first
}
