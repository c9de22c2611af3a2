package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"storefront-service/internal/entity"
	"storefront-service/internal/sharding"
)

// OrderRepository spreads orders across database shards by order id.
type OrderRepository struct {
	dbShards []*sql.DB
	router   *sharding.ShardRouter
	now      func() time.Time
}

func NewOrderRepository(dbShards []*sql.DB, router *sharding.ShardRouter) *OrderRepository {
	return &OrderRepository{dbShards: dbShards, router: router, now: time.Now}
}

func (r *OrderRepository) shardFor(orderID string) *sql.DB {
	return r.dbShards[r.router.GetShard(orderID)]
}

const orderColumns = `id, user_id, shipping_address, payment_method, payment_status, order_status, subtotal, shipping_cost, total, gateway_order_id, gateway_payment_id, created_at, updated_at`

func scanOrder(s scanner) (*entity.Order, error) {
	order := &entity.Order{}
	var address []byte
	err := s.Scan(&order.ID, &order.UserID, &address, &order.PaymentMethod, &order.PaymentStatus, &order.OrderStatus,
		&order.Subtotal, &order.ShippingCost, &order.Total, &order.GatewayOrderID, &order.GatewayPaymentID,
		&order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(address, &order.ShippingAddress); err != nil {
		return nil, err
	}
	return order, nil
}

func (r *OrderRepository) loadItems(ctx context.Context, db *sql.DB, order *entity.Order) error {
	query := `SELECT product_id, product_name, product_image, price, quantity FROM order_items WHERE order_id = ? ORDER BY id`
	rows, err := db.QueryContext(ctx, query, order.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	order.Items = []entity.LineItem{}
	for rows.Next() {
		item := entity.LineItem{}
		err := rows.Scan(&item.ProductID, &item.ProductName, &item.ProductImage, &item.Price, &item.Quantity)
		if err != nil {
			return err
		}
		order.Items = append(order.Items, item)
	}
	return rows.Err()
}

func (r *OrderRepository) GetOrderByID(ctx context.Context, id string) (*entity.Order, error) {
	db := r.shardFor(id)

	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = ?`
	order, err := scanOrder(db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, notFound(err)
	}

	if err := r.loadItems(ctx, db, order); err != nil {
		return nil, err
	}
	return order, nil
}

// CreateOrder stores the order and its line items in one transaction.
func (r *OrderRepository) CreateOrder(ctx context.Context, order *entity.Order) (*entity.Order, error) {
	db := r.shardFor(order.ID)

	address, err := json.Marshal(order.ShippingAddress)
	if err != nil {
		return nil, err
	}
	now := r.now().UTC()

	// Start a transaction
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}

	orderQuery := `INSERT INTO orders (` + orderColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = tx.ExecContext(ctx, orderQuery, order.ID, order.UserID, address, order.PaymentMethod, order.PaymentStatus,
		order.OrderStatus, order.Subtotal, order.ShippingCost, order.Total, order.GatewayOrderID, order.GatewayPaymentID, now, now)
	if err != nil {
		tx.Rollback()
		return nil, duplicate(err)
	}

	// Insert line items with batch
	var placeholders []string
	var values []interface{}
	for _, item := range order.Items {
		placeholders = append(placeholders, "(?, ?, ?, ?, ?, ?)")
		values = append(values, order.ID, item.ProductID, item.ProductName, item.ProductImage, item.Price, item.Quantity)
	}
	if len(placeholders) > 0 {
		itemQuery := `INSERT INTO order_items (order_id, product_id, product_name, product_image, price, quantity) VALUES ` +
			strings.Join(placeholders, ",")
		_, err = tx.ExecContext(ctx, itemQuery, values...)
		if err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	order.CreatedAt = now
	order.UpdatedAt = now
	return order, nil
}

// UpdateOrder writes the mutable fields of an order: statuses and gateway
// references. Items and totals are never rewritten.
func (r *OrderRepository) UpdateOrder(ctx context.Context, order *entity.Order) (*entity.Order, error) {
	db := r.shardFor(order.ID)
	now := r.now().UTC()

	query := `UPDATE orders SET payment_status = ?, order_status = ?, gateway_order_id = ?, gateway_payment_id = ?, updated_at = ? WHERE id = ?`
	res, err := db.ExecContext(ctx, query, order.PaymentStatus, order.OrderStatus, order.GatewayOrderID, order.GatewayPaymentID, now, order.ID)
	if err != nil {
		return nil, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, ErrNotFound
	}

	order.UpdatedAt = now
	return order, nil
}

// ListOrdersByUser returns a user's orders from every shard, newest first.
func (r *OrderRepository) ListOrdersByUser(ctx context.Context, userID string) ([]*entity.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE user_id = ? ORDER BY created_at DESC`
	return r.fanOut(ctx, query, userID)
}

// ListOrders returns all orders from every shard, newest first.
func (r *OrderRepository) ListOrders(ctx context.Context) ([]*entity.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders ORDER BY created_at DESC`
	return r.fanOut(ctx, query)
}

func (r *OrderRepository) fanOut(ctx context.Context, query string, args ...interface{}) ([]*entity.Order, error) {
	orders := []*entity.Order{}
	for _, db := range r.dbShards {
		shardOrders, err := r.queryOrders(ctx, db, query, args...)
		if err != nil {
			return nil, err
		}
		orders = append(orders, shardOrders...)
	}

	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
	return orders, nil
}

func (r *OrderRepository) queryOrders(ctx context.Context, db *sql.DB, query string, args ...interface{}) ([]*entity.Order, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	var orders []*entity.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for _, order := range orders {
		if err := r.loadItems(ctx, db, order); err != nil {
			return nil, err
		}
	}
	return orders, nil
}
