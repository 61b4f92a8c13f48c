package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flicky/marketplace-api/internal/model"
)

type CartRepository interface {
	// AddLine inserts a new cart line. With merge set, an existing line for
	// the same user and product has its quantity incremented instead.
	AddLine(ctx context.Context, line *model.CartLine, merge bool) error
	GetLine(ctx context.Context, id int64) (*model.CartLine, error)
	ListByUser(ctx context.Context, userID int64) ([]model.CartLine, error)
	DeleteLine(ctx context.Context, id int64) error
}

type pgCartRepo struct{ pool *pgxpool.Pool }

func NewCartRepository(pool *pgxpool.Pool) CartRepository {
	return &pgCartRepo{pool: pool}
}

func (r *pgCartRepo) AddLine(ctx context.Context, line *model.CartLine, merge bool) error {
	if !merge {
		err := r.pool.QueryRow(ctx,
			`INSERT INTO cart (user_id, product_id, quantity) VALUES ($1, $2, $3) RETURNING id`,
			line.UserID, line.ProductID, line.Quantity,
		).Scan(&line.ID)
		if err != nil {
			return fmt.Errorf("add cart line: %w", translate(err))
		}
		return nil
	}

	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		var existingID int64
		var existingQty int
		err := tx.QueryRow(ctx,
			`SELECT id, quantity FROM cart WHERE user_id = $1 AND product_id = $2
			 ORDER BY id LIMIT 1 FOR UPDATE`,
			line.UserID, line.ProductID,
		).Scan(&existingID, &existingQty)
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return tx.QueryRow(ctx,
				`INSERT INTO cart (user_id, product_id, quantity) VALUES ($1, $2, $3) RETURNING id`,
				line.UserID, line.ProductID, line.Quantity,
			).Scan(&line.ID)
		case err != nil:
			return err
		}
		line.ID = existingID
		line.Quantity += existingQty
		_, err = tx.Exec(ctx, `UPDATE cart SET quantity = $2 WHERE id = $1`, existingID, line.Quantity)
		return err
	})
	if err != nil {
		return fmt.Errorf("merge cart line: %w", translate(err))
	}
	return nil
}

func (r *pgCartRepo) GetLine(ctx context.Context, id int64) (*model.CartLine, error) {
	line := &model.CartLine{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, user_id, product_id, quantity FROM cart WHERE id = $1`, id,
	).Scan(&line.ID, &line.UserID, &line.ProductID, &line.Quantity)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get cart line: %w", err)
	}
	return line, nil
}

// ListByUser joins each line with the live product row.
func (r *pgCartRepo) ListByUser(ctx context.Context, userID int64) ([]model.CartLine, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT c.id, c.user_id, c.product_id, c.quantity, p.name, p.price, p.image_url
		 FROM cart c
		 JOIN products p ON c.product_id = p.id
		 WHERE c.user_id = $1
		 ORDER BY c.id`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list cart: %w", err)
	}
	defer rows.Close()

	lines := []model.CartLine{}
	for rows.Next() {
		var l model.CartLine
		if err := rows.Scan(&l.ID, &l.UserID, &l.ProductID, &l.Quantity, &l.Name, &l.Price, &l.ImageURL); err != nil {
			return nil, fmt.Errorf("scan cart line: %w", err)
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list cart: %w", err)
	}
	return lines, nil
}

func (r *pgCartRepo) DeleteLine(ctx context.Context, id int64) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM cart WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete cart line: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
