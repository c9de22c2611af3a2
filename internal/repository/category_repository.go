package repository

import (
	"context"
	"database/sql"
	"time"

	"storefront-service/internal/entity"
)

type CategoryRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewCategoryRepository(db *sql.DB) *CategoryRepository {
	return &CategoryRepository{db: db, now: time.Now}
}

const categoryColumns = `id, slug, name, description, image_url, display_order, is_active, created_at, updated_at`

func scanCategory(s scanner) (*entity.Category, error) {
	var c entity.Category
	var description, imageURL sql.NullString
	err := s.Scan(&c.ID, &c.Slug, &c.Name, &description, &imageURL, &c.DisplayOrder, &c.Active, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if description.Valid {
		c.Description = &description.String
	}
	if imageURL.Valid {
		c.ImageURL = &imageURL.String
	}
	return &c, nil
}

// GetCategories returns categories in ascending display order.
func (r *CategoryRepository) GetCategories(ctx context.Context, activeOnly bool) ([]*entity.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories`
	if activeOnly {
		query += ` WHERE is_active = 1`
	}
	query += ` ORDER BY display_order ASC, name ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := []*entity.Category{}
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (r *CategoryRepository) GetCategoryByID(ctx context.Context, id string) (*entity.Category, error) {
	c, err := scanCategory(r.db.QueryRowContext(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = ?`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return c, nil
}

func (r *CategoryRepository) CreateCategory(ctx context.Context, c *entity.Category) (*entity.Category, error) {
	now := r.now().UTC()
	query := `INSERT INTO categories (` + categoryColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query, c.ID, c.Slug, c.Name, c.Description, c.ImageURL, c.DisplayOrder, c.Active, now, now)
	if err != nil {
		return nil, duplicate(err)
	}
	c.CreatedAt = now
	c.UpdatedAt = now
	return c, nil
}

func (r *CategoryRepository) UpdateCategory(ctx context.Context, c *entity.Category) (*entity.Category, error) {
	now := r.now().UTC()
	query := `UPDATE categories SET slug = ?, name = ?, description = ?, image_url = ?, display_order = ?, is_active = ?, updated_at = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query, c.Slug, c.Name, c.Description, c.ImageURL, c.DisplayOrder, c.Active, now, c.ID)
	if err != nil {
		return nil, duplicate(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, ErrNotFound
	}
	c.UpdatedAt = now
	return c, nil
}

func (r *CategoryRepository) DeleteCategory(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *CategoryRepository) SetActive(ctx context.Context, id string, active bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE categories SET is_active = ?, updated_at = ? WHERE id = ?`, active, r.now().UTC(), id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}
