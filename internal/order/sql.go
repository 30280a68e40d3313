package order

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/cart"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// SQLHistory stores orders in the orders and order_items tables.
type SQLHistory struct {
	db *sql.DB
}

func NewSQLHistory(db *sql.DB) *SQLHistory {
	return &SQLHistory{db: db}
}

const selectOrder = `SELECT id, owner, user_id, shipping, payment_method, reference, total, status, created_at FROM orders`

func (r *SQLHistory) Append(ctx context.Context, o Order) error {
	shipping, err := json.Marshal(o.Shipping)
	if err != nil {
		return fmt.Errorf("encode shipping: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO orders (id, owner, user_id, shipping, payment_method, reference, total, status, created_at)
         VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		o.ID, o.Owner, o.UserID, shipping, string(o.PaymentMethod), o.Reference, o.Total, string(o.Status), o.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicate
		}
		return fmt.Errorf("insert order: %w", err)
	}

	for i, it := range o.Items {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO order_items (id, order_id, position, product_id, name, image, price, quantity)
             VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			uuid.NewString(), o.ID, i, it.ProductID, it.Name, it.Image, it.Price, it.Quantity,
		)
		if err != nil {
			return fmt.Errorf("insert order_item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (r *SQLHistory) List(ctx context.Context, owner string) ([]Order, error) {
	return r.query(ctx, selectOrder+` WHERE owner = $1 ORDER BY created_at DESC`, owner)
}

func (r *SQLHistory) All(ctx context.Context) ([]Order, error) {
	return r.query(ctx, selectOrder+` ORDER BY created_at DESC`)
}

func (r *SQLHistory) Get(ctx context.Context, owner, id string) (Order, error) {
	orders, err := r.query(ctx, selectOrder+` WHERE id = $1 AND owner = $2`, id, owner)
	if err != nil {
		return Order{}, err
	}
	if len(orders) == 0 {
		return Order{}, ErrNotFound
	}
	return orders[0], nil
}

func (r *SQLHistory) query(ctx context.Context, q string, args ...any) ([]Order, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("select orders: %w", err)
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		var (
			o        Order
			shipping []byte
			method   string
			status   string
		)
		if err := rows.Scan(&o.ID, &o.Owner, &o.UserID, &shipping, &method, &o.Reference, &o.Total, &status, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		if err := json.Unmarshal(shipping, &o.Shipping); err != nil {
			return nil, fmt.Errorf("decode shipping of %s: %w", o.ID, err)
		}
		o.PaymentMethod = PaymentMethod(method)
		o.Status = Status(status)
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	rows.Close()

	for i := range orders {
		if err := r.loadItems(ctx, &orders[i]); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

func (r *SQLHistory) loadItems(ctx context.Context, o *Order) error {
	rows, err := r.db.QueryContext(ctx,
		`SELECT product_id, name, image, price, quantity FROM order_items WHERE order_id = $1 ORDER BY position`,
		o.ID,
	)
	if err != nil {
		return fmt.Errorf("select order_items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var it cart.LineItem
		if err := rows.Scan(&it.ProductID, &it.Name, &it.Image, &it.Price, &it.Quantity); err != nil {
			return fmt.Errorf("scan order_item: %w", err)
		}
		o.Items = append(o.Items, it)
	}
	return rows.Err()
}
