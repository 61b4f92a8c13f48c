package handler

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/flicky/marketplace-api/internal/model"
	"github.com/flicky/marketplace-api/internal/repository"
)

// store backs every fake repository so joins (cart -> product, order ->
// user) behave like the SQL ones.
type store struct {
	mu       sync.Mutex
	users    map[int64]*model.User
	products map[int64]*model.Product
	cart     map[int64]*model.CartLine
	orders   map[int64]*model.Order
	seq      int64
}

func newStore() *store {
	return &store{
		users:    make(map[int64]*model.User),
		products: make(map[int64]*model.Product),
		cart:     make(map[int64]*model.CartLine),
		orders:   make(map[int64]*model.Order),
	}
}

func (s *store) next() int64 {
	s.seq++
	return s.seq
}

type fakeUsers struct{ *store }

func (f fakeUsers) Create(_ context.Context, u *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, other := range f.users {
		if other.Email == u.Email {
			return repository.ErrDuplicate
		}
	}
	u.ID = f.next()
	u.CreatedAt = time.Now()
	cp := *u
	f.users[u.ID] = &cp
	return nil
}

func (f fakeUsers) GetByID(_ context.Context, id int64) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (f fakeUsers) GetByEmail(_ context.Context, email string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (f fakeUsers) UpdateProfile(_ context.Context, u *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, other := range f.users {
		if other.Email == u.Email && other.ID != u.ID {
			return repository.ErrDuplicate
		}
	}
	if _, ok := f.users[u.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *u
	f.users[u.ID] = &cp
	return nil
}

type fakeProducts struct{ *store }

func (f fakeProducts) Create(_ context.Context, p *model.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p.ID = f.next()
	p.CreatedAt, p.UpdatedAt = time.Now(), time.Now()
	cp := *p
	f.products[p.ID] = &cp
	return nil
}

func (f fakeProducts) GetByID(_ context.Context, id int64) (*model.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (f fakeProducts) List(_ context.Context, category string) ([]model.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.Product{}
	for _, p := range f.products {
		if category == "" || p.Category == category {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (f fakeProducts) Update(_ context.Context, p *model.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.products[p.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *p
	f.products[p.ID] = &cp
	return nil
}

func (f fakeProducts) Delete(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.products[id]; !ok {
		return repository.ErrNotFound
	}
	for _, o := range f.orders {
		for _, item := range o.Items {
			if item.ProductID == id {
				return repository.ErrReferenced
			}
		}
	}
	delete(f.products, id)
	return nil
}

type fakeCart struct{ *store }

func (f fakeCart) AddLine(_ context.Context, line *model.CartLine, merge bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[line.UserID]; !ok {
		return repository.ErrReferenced
	}
	if merge {
		for _, l := range f.cart {
			if l.UserID == line.UserID && l.ProductID == line.ProductID {
				l.Quantity += line.Quantity
				line.ID, line.Quantity = l.ID, l.Quantity
				return nil
			}
		}
	}
	line.ID = f.next()
	cp := *line
	f.cart[line.ID] = &cp
	return nil
}

func (f fakeCart) GetLine(_ context.Context, id int64) (*model.CartLine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.cart[id]
	if !ok {
		return nil, nil
	}
	cp := *l
	return &cp, nil
}

func (f fakeCart) ListByUser(_ context.Context, userID int64) ([]model.CartLine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.CartLine{}
	for _, l := range f.cart {
		if l.UserID != userID {
			continue
		}
		view := *l
		if p, ok := f.products[l.ProductID]; ok {
			view.Name, view.Price, view.ImageURL = p.Name, p.Price, p.ImageURL
		}
		out = append(out, view)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f fakeCart) DeleteLine(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.cart[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.cart, id)
	return nil
}

type fakeOrders struct{ *store }

func (f fakeOrders) PlaceOrder(_ context.Context, o *model.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[o.UserID]; !ok {
		return repository.ErrReferenced
	}
	for _, item := range o.Items {
		if _, ok := f.products[item.ProductID]; !ok {
			return repository.ErrReferenced
		}
	}
	o.ID = f.next()
	o.Status = model.OrderStatusPending
	o.OrderDate = time.Now()
	for i := range o.Items {
		o.Items[i].ID = f.next()
		o.Items[i].OrderID = o.ID
		item := o.Items[i]
		for id, l := range f.cart {
			if l.UserID != o.UserID {
				continue
			}
			if item.CartLineID == id || (item.CartLineID == 0 && item.ProductID == l.ProductID) {
				delete(f.cart, id)
			}
		}
	}
	cp := *o
	cp.Items = append([]model.OrderItem(nil), o.Items...)
	f.orders[o.ID] = &cp
	return nil
}

func (f fakeOrders) view(o *model.Order, sellerID int64) model.Order {
	cp := *o
	cp.Items = nil
	if u, ok := f.users[o.UserID]; ok {
		cp.CustomerName, cp.Address = u.Name, u.Address
	}
	for _, item := range o.Items {
		p := f.products[item.ProductID]
		if sellerID != 0 && (p == nil || p.SellerID != sellerID) {
			continue
		}
		if p != nil {
			item.ProductName = p.Name
		}
		cp.Items = append(cp.Items, item)
	}
	return cp
}

func (f fakeOrders) GetDetail(_ context.Context, id int64) (*model.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return nil, nil
	}
	v := f.view(o, 0)
	return &v, nil
}

func (f fakeOrders) ListBySeller(_ context.Context, sellerID int64) ([]model.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.Order{}
	for _, o := range f.orders {
		if v := f.view(o, sellerID); len(v.Items) > 0 {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (f fakeOrders) SellerHasItems(_ context.Context, orderID, sellerID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[orderID]
	if !ok {
		return false, nil
	}
	return len(f.view(o, sellerID).Items) > 0, nil
}

func (f fakeOrders) UpdateStatus(_ context.Context, id int64, status model.OrderStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return repository.ErrNotFound
	}
	o.Status = status
	return nil
}

func (f fakeOrders) Delete(_ context.Context, id int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.orders[id]; !ok {
		return false, nil
	}
	delete(f.orders, id)
	return true, nil
}

type fakeStats struct{}

func (fakeStats) Get(_ context.Context, sellerID int64) (*model.SellerStats, error) {
	return &model.SellerStats{SellerID: sellerID, OrdersReceived: 1, UnitsSold: 2, Revenue: decimal.RequireFromString("20.00")}, nil
}
