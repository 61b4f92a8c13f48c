package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flicky/marketplace-api/internal/model"
)

type OrderRepository interface {
	// PlaceOrder writes the order, its items and removes the checked-out cart
	// lines in one transaction. Lines are matched by cart line id when the item
	// carries one and by product otherwise.
	PlaceOrder(ctx context.Context, order *model.Order) error
	GetDetail(ctx context.Context, id int64) (*model.Order, error)
	ListBySeller(ctx context.Context, sellerID int64) ([]model.Order, error)
	SellerHasItems(ctx context.Context, orderID, sellerID int64) (bool, error)
	UpdateStatus(ctx context.Context, id int64, status model.OrderStatus) error
	// Delete removes the order and its items. It reports false when the
	// order did not exist.
	Delete(ctx context.Context, id int64) (bool, error)
}

type pgOrderRepo struct{ pool *pgxpool.Pool }

func NewOrderRepository(pool *pgxpool.Pool) OrderRepository {
	return &pgOrderRepo{pool: pool}
}

func (r *pgOrderRepo) PlaceOrder(ctx context.Context, order *model.Order) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	order.Status = model.OrderStatusPending
	err = tx.QueryRow(ctx,
		`INSERT INTO orders (user_id, total_amount, status) VALUES ($1, $2, $3)
		 RETURNING id, order_date`,
		order.UserID, order.TotalAmount, order.Status,
	).Scan(&order.ID, &order.OrderDate)
	if err != nil {
		return fmt.Errorf("insert order: %w", translate(err))
	}

	batch := &pgx.Batch{}
	for i := range order.Items {
		order.Items[i].OrderID = order.ID
		batch.Queue(
			`INSERT INTO order_items (order_id, product_id, quantity, price) VALUES ($1, $2, $3, $4) RETURNING id`,
			order.ID, order.Items[i].ProductID, order.Items[i].Quantity, order.Items[i].Price,
		)
	}
	results := tx.SendBatch(ctx, batch)
	for i := range order.Items {
		if err := results.QueryRow().Scan(&order.Items[i].ID); err != nil {
			results.Close()
			return fmt.Errorf("insert order item: %w", translate(err))
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("insert order items: %w", translate(err))
	}

	// Items sent without a cart line id clear the user's lines for that product.
	var cartLineIDs, productIDs []int64
	for _, item := range order.Items {
		if item.CartLineID > 0 {
			cartLineIDs = append(cartLineIDs, item.CartLineID)
		} else {
			productIDs = append(productIDs, item.ProductID)
		}
	}
	if len(cartLineIDs) > 0 {
		if _, err := tx.Exec(ctx,
			`DELETE FROM cart WHERE id = ANY($1) AND user_id = $2`, cartLineIDs, order.UserID,
		); err != nil {
			return fmt.Errorf("clear cart lines: %w", err)
		}
	}
	if len(productIDs) > 0 {
		if _, err := tx.Exec(ctx,
			`DELETE FROM cart WHERE product_id = ANY($1) AND user_id = $2`, productIDs, order.UserID,
		); err != nil {
			return fmt.Errorf("clear cart products: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (r *pgOrderRepo) GetDetail(ctx context.Context, id int64) (*model.Order, error) {
	order := &model.Order{}
	err := r.pool.QueryRow(ctx,
		`SELECT o.id, o.user_id, u.name, u.address, o.total_amount, o.status, o.order_date
		 FROM orders o
		 JOIN users u ON o.user_id = u.id
		 WHERE o.id = $1`, id,
	).Scan(&order.ID, &order.UserID, &order.CustomerName, &order.Address,
		&order.TotalAmount, &order.Status, &order.OrderDate)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT oi.id, oi.product_id, p.name, oi.quantity, oi.price
		 FROM order_items oi
		 JOIN products p ON oi.product_id = p.id
		 WHERE oi.order_id = $1
		 ORDER BY oi.id`, id,
	)
	if err != nil {
		return nil, fmt.Errorf("get order items: %w", err)
	}
	defer rows.Close()

	order.Items = []model.OrderItem{}
	for rows.Next() {
		item := model.OrderItem{OrderID: order.ID}
		if err := rows.Scan(&item.ID, &item.ProductID, &item.ProductName, &item.Quantity, &item.Price); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		order.Items = append(order.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get order items: %w", err)
	}
	return order, nil
}

// ListBySeller returns the orders containing the seller's products, most
// recent first, each carrying only the seller's own items.
func (r *pgOrderRepo) ListBySeller(ctx context.Context, sellerID int64) ([]model.Order, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT o.id, o.user_id, u.name, o.total_amount, o.status, o.order_date,
		        oi.id, oi.product_id, p.name, oi.quantity, oi.price
		 FROM orders o
		 JOIN order_items oi ON o.id = oi.order_id
		 JOIN products p ON oi.product_id = p.id
		 JOIN users u ON o.user_id = u.id
		 WHERE p.seller_id = $1
		 ORDER BY o.order_date DESC, o.id DESC, oi.id`, sellerID,
	)
	if err != nil {
		return nil, fmt.Errorf("list seller orders: %w", err)
	}
	defer rows.Close()

	orders := []model.Order{}
	index := make(map[int64]int)
	for rows.Next() {
		var o model.Order
		var item model.OrderItem
		if err := rows.Scan(&o.ID, &o.UserID, &o.CustomerName, &o.TotalAmount, &o.Status, &o.OrderDate,
			&item.ID, &item.ProductID, &item.ProductName, &item.Quantity, &item.Price); err != nil {
			return nil, fmt.Errorf("scan seller order: %w", err)
		}
		item.OrderID = o.ID

		pos, ok := index[o.ID]
		if !ok {
			pos = len(orders)
			index[o.ID] = pos
			orders = append(orders, o)
		}
		orders[pos].Items = append(orders[pos].Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list seller orders: %w", err)
	}
	return orders, nil
}

func (r *pgOrderRepo) SellerHasItems(ctx context.Context, orderID, sellerID int64) (bool, error) {
	var ok bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM order_items oi
			JOIN products p ON oi.product_id = p.id
			WHERE oi.order_id = $1 AND p.seller_id = $2
		)`, orderID, sellerID,
	).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("check order ownership: %w", err)
	}
	return ok, nil
}

func (r *pgOrderRepo) UpdateStatus(ctx context.Context, id int64, status model.OrderStatus) error {
	ct, err := r.pool.Exec(ctx, `UPDATE orders SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgOrderRepo) Delete(ctx context.Context, id int64) (bool, error) {
	var deleted bool
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM order_items WHERE order_id = $1`, id); err != nil {
			return fmt.Errorf("delete order items: %w", err)
		}
		ct, err := tx.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("delete order: %w", err)
		}
		deleted = ct.RowsAffected() > 0
		return nil
	})
	if err != nil {
		return false, err
	}
	return deleted, nil
}
