// Package events defines the order event envelope and the publishers that
// ship it to a broker.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/flicky/marketplace-api/internal/model"
)

type Type string

const (
	TypeOrderPlaced    Type = "order.placed"
	TypeOrderDelivered Type = "order.delivered"
)

type OrderEvent struct {
	EventID    string       `json:"event_id"`
	Type       Type         `json:"type"`
	OccurredAt time.Time    `json:"occurred_at"`
	Order      OrderPayload `json:"order"`
}

type OrderPayload struct {
	ID          int64              `json:"id"`
	UserID      int64              `json:"user_id"`
	TotalAmount decimal.Decimal    `json:"total_amount"`
	Status      model.OrderStatus  `json:"status"`
	Items       []OrderItemPayload `json:"items"`
}

type OrderItemPayload struct {
	ProductID int64           `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// NewOrderEvent snapshots the order into a fresh envelope.
func NewOrderEvent(t Type, order *model.Order) OrderEvent {
	items := make([]OrderItemPayload, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, OrderItemPayload{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Price,
		})
	}
	return OrderEvent{
		EventID:    uuid.NewString(),
		Type:       t,
		OccurredAt: time.Now().UTC(),
		Order: OrderPayload{
			ID:          order.ID,
			UserID:      order.UserID,
			TotalAmount: order.TotalAmount,
			Status:      order.Status,
			Items:       items,
		},
	}
}

type Publisher interface {
	Publish(ctx context.Context, event OrderEvent) error
	Close() error
}

// Noop discards events; used when no broker is configured.
type Noop struct{}

func (Noop) Publish(context.Context, OrderEvent) error { return nil }
func (Noop) Close() error                              { return nil }
