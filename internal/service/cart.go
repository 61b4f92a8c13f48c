package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/flicky/marketplace-api/internal/dto"
	"github.com/flicky/marketplace-api/internal/model"
	"github.com/flicky/marketplace-api/internal/repository"
)

type CartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
	merge       bool
}

// NewCartService builds the cart service. With merge set, adding a product
// that is already in the cart bumps the existing line's quantity.
func NewCartService(cartRepo repository.CartRepository, productRepo repository.ProductRepository, merge bool) *CartService {
	return &CartService{cartRepo: cartRepo, productRepo: productRepo, merge: merge}
}

// GetCart returns the user's lines with live product data. An empty cart is
// not an error.
func (s *CartService) GetCart(ctx context.Context, userID int64) (*model.Cart, error) {
	lines, err := s.cartRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list cart: %w", err)
	}
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Subtotal())
	}
	return &model.Cart{UserID: userID, Lines: lines, Total: total}, nil
}

func (s *CartService) AddItem(ctx context.Context, req dto.AddToCartRequest) (*model.CartLine, error) {
	if req.UserID <= 0 {
		return nil, invalid("user_id is required")
	}
	if req.ProductID <= 0 {
		return nil, invalid("product_id is required")
	}
	quantity := req.Quantity
	if quantity == 0 {
		quantity = 1
	}
	if quantity < 0 {
		return nil, invalid("quantity must be at least 1")
	}
	if quantity > maxColumnInt {
		return nil, invalid("quantity is too large")
	}

	product, err := s.productRepo.GetByID(ctx, req.ProductID)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}

	line := &model.CartLine{UserID: req.UserID, ProductID: req.ProductID, Quantity: quantity}
	if err := s.cartRepo.AddLine(ctx, line, s.merge); err != nil {
		switch {
		case errors.Is(err, repository.ErrReferenced):
			return nil, invalid("user does not exist")
		case errors.Is(err, repository.ErrInvalidValue):
			return nil, errOutOfRange
		}
		return nil, fmt.Errorf("add cart line: %w", err)
	}
	return line, nil
}

// RemoveLine deletes one cart line and returns the owner's refreshed cart.
func (s *CartService) RemoveLine(ctx context.Context, lineID int64) (*model.Cart, error) {
	line, err := s.cartRepo.GetLine(ctx, lineID)
	if err != nil {
		return nil, fmt.Errorf("get cart line: %w", err)
	}
	if line == nil {
		return nil, ErrCartItemNotFound
	}
	if err := s.cartRepo.DeleteLine(ctx, lineID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCartItemNotFound
		}
		return nil, fmt.Errorf("delete cart line: %w", err)
	}
	return s.GetCart(ctx, line.UserID)
}
