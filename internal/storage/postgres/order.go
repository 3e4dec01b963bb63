package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/food-ordering-api/internal/domain/order"
)

const (
	createOrderSQL = `INSERT INTO orders (id, customer_name, customer_email, customer_phone,
		customer_address, total_amount, delivery_fee, delivery_platform, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	createOrderItemSQL = `INSERT INTO order_items (id, order_id, position, menu_item_id, quantity, price)
		VALUES ($1, $2, $3, $4, $5, $6)`

	getOrderSQL = `SELECT id, customer_name, customer_email, customer_phone, customer_address,
		total_amount, delivery_fee, delivery_platform, status, created_at
		FROM orders WHERE id = $1`

	listOrderItemsSQL = `SELECT id, order_id, menu_item_id, quantity, price
		FROM order_items WHERE order_id = $1 ORDER BY position`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create persists the order and its line items in a single transaction.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		c := o.Customer
		if _, err := tx.Exec(ctx, createOrderSQL,
			o.ID, c.Name, c.Email, c.Phone, c.Address,
			o.TotalAmount, o.DeliveryFee, o.DeliveryPlatform, string(o.Status), o.CreatedAt,
		); err != nil {
			return fmt.Errorf("inserting order: %w", err)
		}

		batch := &pgx.Batch{}
		for i, li := range o.Items {
			batch.Queue(createOrderItemSQL, li.ID, o.ID, i, li.MenuItemID, li.Quantity, li.Price)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("inserting order items: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("creating order %q: %w", o.ID, err)
	}
	return nil
}

// GetByID returns order.ErrNotFound when no order has the given id.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*order.Order, error) {
	rows, err := r.pool.Query(ctx, getOrderSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}

	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}
	return &o, nil
}

// ListItems returns the line items of an order in submission order.
func (r *OrderRepository) ListItems(ctx context.Context, orderID string) ([]order.LineItem, error) {
	rows, err := r.pool.Query(ctx, listOrderItemsSQL, orderID)
	if err != nil {
		return nil, fmt.Errorf("listing items of order %q: %w", orderID, err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (order.LineItem, error) {
		var li order.LineItem
		err := row.Scan(&li.ID, &li.OrderID, &li.MenuItemID, &li.Quantity, &li.Price)
		return li, err
	})
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o      order.Order
		status string
	)
	err := row.Scan(
		&o.ID, &o.Customer.Name, &o.Customer.Email, &o.Customer.Phone, &o.Customer.Address,
		&o.TotalAmount, &o.DeliveryFee, &o.DeliveryPlatform, &status, &o.CreatedAt,
	)
	o.Status = order.Status(status)
	o.CreatedAt = o.CreatedAt.UTC()
	return o, err
}
