package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"storefront-service/internal/entity"
)

type ProductRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewProductRepository(db *sql.DB) *ProductRepository {
	return &ProductRepository{db: db, now: time.Now}
}

const productColumns = `id, name, description, price, discount_price, images, category, stock, cod_available, featured, created_at, updated_at`

func scanProduct(s scanner) (*entity.Product, error) {
	var product entity.Product
	var images []byte
	err := s.Scan(&product.ID, &product.Name, &product.Description, &product.Price, &product.DiscountPrice,
		&images, &product.Category, &product.Stock, &product.CODAvailable, &product.Featured,
		&product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if len(images) > 0 {
		if err := json.Unmarshal(images, &product.Images); err != nil {
			return nil, err
		}
	}
	if product.Images == nil {
		product.Images = []string{}
	}
	return &product, nil
}

func (r *ProductRepository) GetProductByID(ctx context.Context, id string) (*entity.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = ?`
	product, err := scanProduct(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, notFound(err)
	}
	return product, nil
}

// GetProducts returns all products, newest first.
func (r *ProductRepository) GetProducts(ctx context.Context) ([]*entity.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := []*entity.Product{}
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, product)
	}
	return products, rows.Err()
}

func (r *ProductRepository) CreateProduct(ctx context.Context, product *entity.Product) (*entity.Product, error) {
	images, err := json.Marshal(nonNil(product.Images))
	if err != nil {
		return nil, err
	}
	now := r.now().UTC()

	query := `INSERT INTO products (` + productColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = r.db.ExecContext(ctx, query, product.ID, product.Name, product.Description, product.Price, product.DiscountPrice,
		images, product.Category, product.Stock, product.CODAvailable, product.Featured, now, now)
	if err != nil {
		return nil, duplicate(err)
	}

	product.CreatedAt = now
	product.UpdatedAt = now
	return product, nil
}

func (r *ProductRepository) UpdateProduct(ctx context.Context, product *entity.Product) (*entity.Product, error) {
	images, err := json.Marshal(nonNil(product.Images))
	if err != nil {
		return nil, err
	}
	now := r.now().UTC()

	query := `UPDATE products SET name = ?, description = ?, price = ?, discount_price = ?, images = ?, category = ?, stock = ?, cod_available = ?, featured = ?, updated_at = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query, product.Name, product.Description, product.Price, product.DiscountPrice,
		images, product.Category, product.Stock, product.CODAvailable, product.Featured, now, product.ID)
	if err != nil {
		return nil, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, ErrNotFound
	}

	product.UpdatedAt = now
	return product, nil
}

func (r *ProductRepository) DeleteProduct(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// AdjustStock adds delta to a product's stock. A decrement that would take
// stock below zero is refused with ErrInsufficientStock.
func (r *ProductRepository) AdjustStock(ctx context.Context, id string, delta int) error {
	query := `UPDATE products SET stock = stock + ?, updated_at = ? WHERE id = ? AND stock + ? >= 0`
	res, err := r.db.ExecContext(ctx, query, delta, r.now().UTC(), id, delta)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		if _, err := r.GetProductByID(ctx, id); err != nil {
			return err
		}
		return ErrInsufficientStock
	}
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
