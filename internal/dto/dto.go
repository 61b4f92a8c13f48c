package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/flicky/marketplace-api/internal/model"
)

// --- Common ---

type MessageResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

// --- Auth ---

type SignupRequest struct {
	Name     string     `json:"name" binding:"required"`
	Email    string     `json:"email" binding:"required,email"`
	Password string     `json:"password" binding:"required"`
	Phone    string     `json:"phone"`
	Address  string     `json:"address"`
	Role     model.Role `json:"role" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Message string     `json:"message"`
	Token   string     `json:"token"`
	ID      int64      `json:"id"`
	Role    model.Role `json:"role"`
	Name    string     `json:"name"`
	Address string     `json:"address"`
	Email   string     `json:"email"`
}

// --- Profile ---

type ProfileResponse struct {
	ID      int64      `json:"id"`
	Name    string     `json:"name"`
	Email   string     `json:"email"`
	Phone   string     `json:"phone"`
	Address string     `json:"address"`
	Image   string     `json:"image"`
	Role    model.Role `json:"role"`
}

type UpdateProfileRequest struct {
	Name    string `json:"name" binding:"required"`
	Email   string `json:"email" binding:"required,email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	Image   string `json:"image"`
}

// --- Product ---

type ProductRequest struct {
	Name        string           `json:"name" binding:"required"`
	Description string           `json:"description" binding:"required"`
	Price       *decimal.Decimal `json:"price" binding:"required"`
	ImageURL    string           `json:"image_url" binding:"required"`
	Category    string           `json:"category" binding:"required"`
	Stock       *int             `json:"stock" binding:"required"`
}

type ProductResponse struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	ImageURL    string          `json:"image_url"`
	Category    string          `json:"category"`
	Stock       int             `json:"stock"`
	SellerID    int64           `json:"seller_id"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

type ProductCreatedResponse struct {
	Message string `json:"message"`
	ID      int64  `json:"id"`
}

// --- Cart ---

type AddToCartRequest struct {
	UserID    int64 `json:"user_id"`
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

type CartLineResponse struct {
	ID        int64           `json:"id"`
	ProductID int64           `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	ImageURL  string          `json:"image_url"`
}

type RemoveCartLineResponse struct {
	Message string             `json:"message"`
	Cart    []CartLineResponse `json:"cart"`
}

// --- Order ---

type PlaceOrderRequest struct {
	UserID      int64            `json:"user_id"`
	TotalAmount *decimal.Decimal `json:"total_amount"`
	Items       []PlaceOrderItem `json:"items"`
}

// PlaceOrderItem is one checked-out cart line. ID is the cart line id and
// may be omitted for items that did not come from the cart.
type PlaceOrderItem struct {
	ID        int64            `json:"id"`
	ProductID int64            `json:"product_id"`
	Quantity  int              `json:"quantity"`
	Price     *decimal.Decimal `json:"price"`
}

type PlaceOrderResponse struct {
	Message string `json:"message"`
	OrderID int64  `json:"order_id"`
}

type UpdateOrderRequest struct {
	Status model.OrderStatus `json:"status" binding:"required"`
}

type SellerOrderResponse struct {
	OrderID      int64               `json:"order_id"`
	CustomerName string              `json:"customer_name"`
	TotalAmount  decimal.Decimal     `json:"total_amount"`
	Status       model.OrderStatus   `json:"status"`
	OrderDate    time.Time           `json:"order_date"`
	Items        []OrderItemResponse `json:"items"`
}

type OrderItemResponse struct {
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
}

type OrderDetailResponse struct {
	ID           int64               `json:"id"`
	UserID       int64               `json:"user_id"`
	CustomerName string              `json:"customer_name"`
	Address      string              `json:"address"`
	TotalAmount  decimal.Decimal     `json:"total_amount"`
	Status       model.OrderStatus   `json:"status"`
	OrderDate    time.Time           `json:"order_date"`
	Items        []OrderItemResponse `json:"items"`
}

// --- Seller stats ---

type SellerStatsResponse struct {
	SellerID        int64           `json:"seller_id"`
	OrdersReceived  int64           `json:"orders_received"`
	OrdersDelivered int64           `json:"orders_delivered"`
	UnitsSold       int64           `json:"units_sold"`
	Revenue         decimal.Decimal `json:"revenue"`
}
