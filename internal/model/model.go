package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Role string

const (
	RoleCustomer   Role = "customer"
	RoleShopkeeper Role = "shopkeeper"
)

func (r Role) Valid() bool {
	return r == RoleCustomer || r == RoleShopkeeper
}

type User struct {
	ID        int64
	Name      string
	Email     string
	Password  string
	Phone     string
	Address   string
	Image     string
	Role      Role
	CreatedAt time.Time
}

type Product struct {
	ID          int64
	Name        string
	Description string
	Price       decimal.Decimal
	ImageURL    string
	Category    string
	Stock       int
	SellerID    int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CartLine is one pending selection. Name, Price and ImageURL come from the
// live product row when read through the cart view.
type CartLine struct {
	ID        int64
	UserID    int64
	ProductID int64
	Quantity  int
	Name      string
	Price     decimal.Decimal
	ImageURL  string
}

// Subtotal uses the live product price.
func (l CartLine) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

type Cart struct {
	UserID int64
	Lines  []CartLine
	Total  decimal.Decimal
}

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "Pending"
	OrderStatusDelivered OrderStatus = "Delivered"
)

func (s OrderStatus) Valid() bool {
	return s == OrderStatusPending || s == OrderStatusDelivered
}

type Order struct {
	ID           int64
	UserID       int64
	CustomerName string
	Address      string
	TotalAmount  decimal.Decimal
	Status       OrderStatus
	OrderDate    time.Time
	Items        []OrderItem
}

// OrderItem is an order line. Price is the snapshot taken at checkout.
type OrderItem struct {
	ID          int64
	OrderID     int64
	ProductID   int64
	ProductName string
	Quantity    int
	Price       decimal.Decimal
	// CartLineID is the cart line this item was checked out from, if any.
	CartLineID int64
}

// LinesTotal is Σ(price × quantity) over the snapshot prices.
func (o *Order) LinesTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}

type SellerStats struct {
	SellerID        int64
	OrdersReceived  int64
	OrdersDelivered int64
	UnitsSold       int64
	Revenue         decimal.Decimal
}
