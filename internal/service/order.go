package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/flicky/marketplace-api/internal/dto"
	"github.com/flicky/marketplace-api/internal/events"
	"github.com/flicky/marketplace-api/internal/metrics"
	"github.com/flicky/marketplace-api/internal/model"
	"github.com/flicky/marketplace-api/internal/repository"
)

// StatusChange says what UpdateStatus actually did.
type StatusChange int

const (
	StatusUpdated StatusChange = iota
	StatusDelivered
	StatusAlreadyDelivered
)

type OrderService struct {
	orderRepo repository.OrderRepository
	publisher events.Publisher
	metrics   *metrics.OrderMetrics
	log       *slog.Logger
}

func NewOrderService(
	orderRepo repository.OrderRepository,
	publisher events.Publisher,
	m *metrics.OrderMetrics,
	log *slog.Logger,
) *OrderService {
	if publisher == nil {
		publisher = events.Noop{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &OrderService{orderRepo: orderRepo, publisher: publisher, metrics: m, log: log}
}

// PlaceOrder checks out the submitted lines. The order, its items and the
// removal of the referenced cart lines are committed together. The client
// total is stored as given.
func (s *OrderService) PlaceOrder(ctx context.Context, req dto.PlaceOrderRequest) (*model.Order, error) {
	if err := validatePlaceOrder(req); err != nil {
		return nil, err
	}

	order := &model.Order{
		UserID:      req.UserID,
		TotalAmount: *req.TotalAmount,
		Items:       make([]model.OrderItem, 0, len(req.Items)),
	}
	for _, item := range req.Items {
		order.Items = append(order.Items, model.OrderItem{
			ProductID:  item.ProductID,
			Quantity:   item.Quantity,
			Price:      *item.Price,
			CartLineID: item.ID,
		})
	}

	if lines := order.LinesTotal(); !lines.Equal(order.TotalAmount) {
		s.log.Warn("order total differs from line total",
			"user_id", order.UserID,
			"total_amount", order.TotalAmount.StringFixed(2),
			"lines_total", lines.StringFixed(2),
		)
	}

	if err := s.orderRepo.PlaceOrder(ctx, order); err != nil {
		switch {
		case errors.Is(err, repository.ErrReferenced):
			return nil, invalid("unknown user or product")
		case errors.Is(err, repository.ErrInvalidValue):
			return nil, errOutOfRange
		}
		return nil, fmt.Errorf("place order: %w", err)
	}

	s.metrics.OrderPlaced()
	s.publish(ctx, events.TypeOrderPlaced, order)
	s.log.Info("order placed", "order_id", order.ID, "user_id", order.UserID, "items", len(order.Items))
	return order, nil
}

func (s *OrderService) GetDetail(ctx context.Context, id int64) (*model.Order, error) {
	order, err := s.orderRepo.GetDetail(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// ListForSeller returns the orders holding the seller's products, newest
// first. Each order only carries the seller's own lines.
func (s *OrderService) ListForSeller(ctx context.Context, sellerID int64) ([]model.Order, error) {
	orders, err := s.orderRepo.ListBySeller(ctx, sellerID)
	if err != nil {
		return nil, fmt.Errorf("list seller orders: %w", err)
	}
	return orders, nil
}

// UpdateStatus moves an order along Pending -> Delivered. Delivered is
// terminal and removes the order; delivering an order that is already gone
// succeeds without doing anything.
func (s *OrderService) UpdateStatus(ctx context.Context, sellerID, orderID int64, status model.OrderStatus) (StatusChange, error) {
	if !status.Valid() {
		return 0, invalid("status must be Pending or Delivered")
	}

	order, err := s.orderRepo.GetDetail(ctx, orderID)
	if err != nil {
		return 0, fmt.Errorf("get order: %w", err)
	}
	if order == nil {
		if status == model.OrderStatusDelivered {
			return StatusAlreadyDelivered, nil
		}
		return 0, ErrOrderNotFound
	}

	owns, err := s.orderRepo.SellerHasItems(ctx, orderID, sellerID)
	if err != nil {
		return 0, fmt.Errorf("check order ownership: %w", err)
	}
	if !owns {
		return 0, ErrOrderAccessDenied
	}

	if status == model.OrderStatusPending {
		if err := s.orderRepo.UpdateStatus(ctx, orderID, status); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return 0, ErrOrderNotFound
			}
			return 0, fmt.Errorf("update order status: %w", err)
		}
		return StatusUpdated, nil
	}

	deleted, err := s.orderRepo.Delete(ctx, orderID)
	if err != nil {
		return 0, fmt.Errorf("deliver order: %w", err)
	}
	if !deleted {
		return StatusAlreadyDelivered, nil
	}

	order.Status = model.OrderStatusDelivered
	s.metrics.OrderDelivered()
	s.publish(ctx, events.TypeOrderDelivered, order)
	s.log.Info("order delivered", "order_id", orderID, "seller_id", sellerID)
	return StatusDelivered, nil
}

// publish is best effort: the order is already committed, so a broker
// failure is logged and counted but never returned.
func (s *OrderService) publish(ctx context.Context, t events.Type, order *model.Order) {
	event := events.NewOrderEvent(t, order)
	if err := s.publisher.Publish(context.WithoutCancel(ctx), event); err != nil {
		s.metrics.PublishFailed(string(t))
		s.log.Error("publish order event",
			"order_id", order.ID, "event_type", t, "event_id", event.EventID, "error", err)
	}
}

func validatePlaceOrder(req dto.PlaceOrderRequest) error {
	if req.UserID <= 0 {
		return invalid("user_id is required")
	}
	if req.TotalAmount == nil {
		return invalid("total_amount is required")
	}
	if req.TotalAmount.IsNegative() {
		return invalid("total_amount must not be negative")
	}
	if len(req.Items) == 0 {
		return invalid("order must contain at least one item")
	}
	for i, item := range req.Items {
		switch {
		case item.ProductID <= 0:
			return invalid(fmt.Sprintf("items[%d]: product_id is required", i))
		case item.Quantity < 1:
			return invalid(fmt.Sprintf("items[%d]: quantity must be at least 1", i))
		case item.Quantity > maxColumnInt:
			return invalid(fmt.Sprintf("items[%d]: quantity is too large", i))
		case item.Price == nil:
			return invalid(fmt.Sprintf("items[%d]: price is required", i))
		case item.Price.IsNegative():
			return invalid(fmt.Sprintf("items[%d]: price must not be negative", i))
		}
	}
	return nil
}
