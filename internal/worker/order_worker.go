package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/flicky/marketplace-api/internal/events"
	"github.com/flicky/marketplace-api/internal/metrics"
	"github.com/flicky/marketplace-api/internal/model"
)

// ErrMalformedEvent marks messages that will never succeed and must not be
// redelivered.
var ErrMalformedEvent = errors.New("malformed order event")

type IdempotencyStore interface {
	Claim(ctx context.Context, eventID string) (bool, error)
	Release(ctx context.Context, eventID string) error
}

type StatsRecorder interface {
	RecordPlaced(ctx context.Context, sellerID int64, units int64, revenue decimal.Decimal) error
	RecordDelivered(ctx context.Context, sellerID int64) error
}

type ProductLookup interface {
	GetByID(ctx context.Context, id int64) (*model.Product, error)
}

// OrderWorker folds order events into per-seller statistics. Each event id
// is applied at most once.
type OrderWorker struct {
	seen     IdempotencyStore
	stats    StatsRecorder
	products ProductLookup
	metrics  *metrics.OrderMetrics
	log      *slog.Logger
}

func NewOrderWorker(
	seen IdempotencyStore,
	stats StatsRecorder,
	products ProductLookup,
	m *metrics.OrderMetrics,
	log *slog.Logger,
) *OrderWorker {
	return &OrderWorker{seen: seen, stats: stats, products: products, metrics: m, log: log}
}

// Decode parses a broker payload. Every failure wraps ErrMalformedEvent.
func Decode(body []byte) (events.OrderEvent, error) {
	var event events.OrderEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return event, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if event.EventID == "" {
		return event, fmt.Errorf("%w: missing event_id", ErrMalformedEvent)
	}
	switch event.Type {
	case events.TypeOrderPlaced, events.TypeOrderDelivered:
	default:
		return event, fmt.Errorf("%w: unknown type %q", ErrMalformedEvent, event.Type)
	}
	return event, nil
}

type sellerShare struct {
	units   int64
	revenue decimal.Decimal
}

func (w *OrderWorker) Handle(ctx context.Context, event events.OrderEvent) error {
	log := w.log.With("event_id", event.EventID, "event_type", event.Type, "order_id", event.Order.ID)

	claimed, err := w.seen.Claim(ctx, event.EventID)
	if err != nil {
		return fmt.Errorf("claim idempotency key: %w", err)
	}
	if !claimed {
		log.Info("order event already handled, skipping")
		w.metrics.EventHandled(string(event.Type), "duplicate")
		return nil
	}

	if err := w.apply(ctx, event); err != nil {
		if relErr := w.seen.Release(ctx, event.EventID); relErr != nil {
			log.Error("release idempotency key", "error", relErr)
		}
		return err
	}
	w.metrics.EventHandled(string(event.Type), "ok")
	log.Info("order event handled")
	return nil
}

func (w *OrderWorker) apply(ctx context.Context, event events.OrderEvent) error {
	shares, err := w.sellerShares(ctx, event.Order.Items)
	if err != nil {
		return err
	}

	for sellerID, share := range shares {
		switch event.Type {
		case events.TypeOrderPlaced:
			err = w.stats.RecordPlaced(ctx, sellerID, share.units, share.revenue)
		case events.TypeOrderDelivered:
			err = w.stats.RecordDelivered(ctx, sellerID)
		default:
			return fmt.Errorf("%w: unknown type %q", ErrMalformedEvent, event.Type)
		}
		if err != nil {
			return fmt.Errorf("record seller %d stats: %w", sellerID, err)
		}
	}
	return nil
}

// sellerShares groups the order lines by the seller of each product. Lines
// whose product has since been deleted are skipped.
func (w *OrderWorker) sellerShares(ctx context.Context, items []events.OrderItemPayload) (map[int64]sellerShare, error) {
	shares := make(map[int64]sellerShare)
	sellers := make(map[int64]int64)
	for _, item := range items {
		sellerID, ok := sellers[item.ProductID]
		if !ok {
			product, err := w.products.GetByID(ctx, item.ProductID)
			if err != nil {
				return nil, fmt.Errorf("get product %d: %w", item.ProductID, err)
			}
			if product == nil {
				w.log.Warn("order event references unknown product", "product_id", item.ProductID)
				continue
			}
			sellerID = product.SellerID
			sellers[item.ProductID] = sellerID
		}

		share := shares[sellerID]
		share.units += int64(item.Quantity)
		share.revenue = share.revenue.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
		shares[sellerID] = share
	}
	return shares, nil
}
