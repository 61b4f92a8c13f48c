package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/flicky/marketplace-api/internal/dto"
	"github.com/flicky/marketplace-api/internal/model"
	"github.com/flicky/marketplace-api/internal/repository"
)

// ProductCache is the read-through cache in front of the catalog. A miss is
// reported as (false, nil).
type ProductCache interface {
	Get(ctx context.Context, id int64, dst any) (bool, error)
	Set(ctx context.Context, id int64, v any) error
	GetList(ctx context.Context, dst any) (bool, error)
	SetList(ctx context.Context, v any) error
	Invalidate(ctx context.Context, id int64) error
	InvalidateList(ctx context.Context) error
}

type ProductService struct {
	productRepo repository.ProductRepository
	cache       ProductCache
	log         *slog.Logger
}

// NewProductService accepts a nil cache, in which case every read goes to
// the database.
func NewProductService(productRepo repository.ProductRepository, cache ProductCache, log *slog.Logger) *ProductService {
	if log == nil {
		log = slog.Default()
	}
	return &ProductService{productRepo: productRepo, cache: cache, log: log}
}

func (s *ProductService) Create(ctx context.Context, sellerID int64, req dto.ProductRequest) (int64, error) {
	if err := validateProduct(req); err != nil {
		return 0, err
	}
	product := &model.Product{SellerID: sellerID}
	applyProductRequest(product, req)
	if err := s.productRepo.Create(ctx, product); err != nil {
		switch {
		case errors.Is(err, repository.ErrReferenced):
			return 0, invalid("seller does not exist")
		case errors.Is(err, repository.ErrInvalidValue):
			return 0, errOutOfRange
		}
		return 0, fmt.Errorf("create product: %w", err)
	}
	s.invalidateList(ctx)
	return product.ID, nil
}

func (s *ProductService) GetByID(ctx context.Context, id int64) (*dto.ProductResponse, error) {
	if s.cache != nil {
		var cached dto.ProductResponse
		hit, err := s.cache.Get(ctx, id, &cached)
		if err != nil {
			s.log.Warn("product cache read", "product_id", id, "error", err)
		}
		if hit {
			return &cached, nil
		}
	}

	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}

	resp := toProductResponse(product)
	if s.cache != nil {
		if err := s.cache.Set(ctx, id, resp); err != nil {
			s.log.Warn("product cache write", "product_id", id, "error", err)
		}
	}
	return &resp, nil
}

// List returns the catalog, newest first. Only the unfiltered listing is
// cached.
func (s *ProductService) List(ctx context.Context, category string) ([]dto.ProductResponse, error) {
	if category == "" && s.cache != nil {
		var cached []dto.ProductResponse
		if hit, err := s.cache.GetList(ctx, &cached); err == nil && hit {
			return cached, nil
		}
	}

	products, err := s.productRepo.List(ctx, category)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	items := make([]dto.ProductResponse, 0, len(products))
	for i := range products {
		items = append(items, toProductResponse(&products[i]))
	}

	if category == "" && s.cache != nil {
		if err := s.cache.SetList(ctx, items); err != nil {
			s.log.Warn("product list cache write", "error", err)
		}
	}
	return items, nil
}

func (s *ProductService) Update(ctx context.Context, sellerID, id int64, req dto.ProductRequest) error {
	if err := validateProduct(req); err != nil {
		return err
	}
	product, err := s.owned(ctx, sellerID, id)
	if err != nil {
		return err
	}
	applyProductRequest(product, req)
	if err := s.productRepo.Update(ctx, product); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return ErrProductNotFound
		case errors.Is(err, repository.ErrInvalidValue):
			return errOutOfRange
		}
		return fmt.Errorf("update product: %w", err)
	}
	s.invalidate(ctx, id)
	return nil
}

func (s *ProductService) Delete(ctx context.Context, sellerID, id int64) error {
	if _, err := s.owned(ctx, sellerID, id); err != nil {
		return err
	}
	if err := s.productRepo.Delete(ctx, id); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return ErrProductNotFound
		case errors.Is(err, repository.ErrReferenced):
			return ErrProductInUse
		}
		return fmt.Errorf("delete product: %w", err)
	}
	s.invalidate(ctx, id)
	return nil
}

func (s *ProductService) owned(ctx context.Context, sellerID, id int64) (*model.Product, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	if product.SellerID != sellerID {
		return nil, ErrProductAccessDenied
	}
	return product, nil
}

func (s *ProductService) invalidate(ctx context.Context, id int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, id); err != nil {
		s.log.Warn("product cache invalidate", "product_id", id, "error", err)
	}
}

func (s *ProductService) invalidateList(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateList(ctx); err != nil {
		s.log.Warn("product list cache invalidate", "error", err)
	}
}

func validateProduct(req dto.ProductRequest) error {
	if req.Price == nil {
		return invalid("price is required")
	}
	if req.Price.IsNegative() {
		return invalid("price must not be negative")
	}
	if req.Stock != nil && *req.Stock < 0 {
		return invalid("stock must not be negative")
	}
	if req.Stock != nil && *req.Stock > maxColumnInt {
		return invalid("stock is too large")
	}
	return nil
}

func applyProductRequest(p *model.Product, req dto.ProductRequest) {
	p.Name = req.Name
	p.Description = req.Description
	p.Price = *req.Price
	p.ImageURL = req.ImageURL
	p.Category = req.Category
	if req.Stock != nil {
		p.Stock = *req.Stock
	}
}

func toProductResponse(p *model.Product) dto.ProductResponse {
	return dto.ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		ImageURL:    p.ImageURL,
		Category:    p.Category,
		Stock:       p.Stock,
		SellerID:    p.SellerID,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}
