package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-service/internal/entity"
)

var fixedNow = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func productRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "name", "description", "price", "discount_price", "images", "category",
		"stock", "cod_available", "featured", "created_at", "updated_at"})
}

func TestProductRepository_GetProductByID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewProductRepository(db)

	mock.ExpectQuery("SELECT (.+) FROM products WHERE id = ?").
		WithArgs("p1").
		WillReturnRows(productRows().AddRow("p1", "Clay Mug", "Hand thrown", "300.00", "199.00",
			[]byte(`["mug.jpg"]`), "pottery", 4, true, false, fixedNow, fixedNow))

	product, err := repo.GetProductByID(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "Clay Mug", product.Name)
	assert.True(t, product.Price.Equal(decimal.NewFromInt(300)))
	assert.True(t, product.DiscountPrice.Valid)
	assert.True(t, product.EffectivePrice().Equal(decimal.NewFromInt(199)))
	assert.Equal(t, []string{"mug.jpg"}, product.Images)
	assert.Equal(t, 4, product.Stock)
	assert.True(t, product.CODAvailable)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_GetProductByID_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewProductRepository(db)

	mock.ExpectQuery("SELECT (.+) FROM products WHERE id = ?").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetProductByID(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestProductRepository_GetProducts_NullDiscount(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewProductRepository(db)

	mock.ExpectQuery("SELECT (.+) FROM products ORDER BY created_at DESC").
		WillReturnRows(productRows().
			AddRow("p2", "Scarf", "Wool", "450.00", nil, []byte(`[]`), "textiles", 10, false, true, fixedNow, fixedNow).
			AddRow("p1", "Mug", "Clay", "300.00", nil, []byte(`[]`), "pottery", 0, true, false, fixedNow, fixedNow))

	products, err := repo.GetProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "p2", products[0].ID)
	assert.False(t, products[0].DiscountPrice.Valid)
	assert.Empty(t, products[1].Images)
}

func TestProductRepository_CreateProduct(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewProductRepository(db)
	repo.now = func() time.Time { return fixedNow }

	mock.ExpectExec("INSERT INTO products").
		WithArgs("p1", "Mug", "Clay", sqlmock.AnyArg(), sqlmock.AnyArg(), []byte(`[]`), "pottery", 3, true, false, fixedNow, fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 1))

	product, err := repo.CreateProduct(context.Background(), &entity.Product{
		ID: "p1", Name: "Mug", Description: "Clay", Price: decimal.NewFromInt(300), Category: "pottery", Stock: 3, CODAvailable: true,
	})
	require.NoError(t, err)
	assert.Equal(t, fixedNow, product.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_CreateProduct_Duplicate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewProductRepository(db)

	mock.ExpectExec("INSERT INTO products").WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})

	_, err := repo.CreateProduct(context.Background(), &entity.Product{ID: "p1"})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestProductRepository_UpdateProduct_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewProductRepository(db)

	mock.ExpectExec("UPDATE products SET").WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := repo.UpdateProduct(context.Background(), &entity.Product{ID: "nope"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestProductRepository_DeleteProduct(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewProductRepository(db)

	mock.ExpectExec("DELETE FROM products WHERE id = ?").WithArgs("p1").WillReturnResult(sqlmock.NewResult(0, 1))
	assert.NoError(t, repo.DeleteProduct(context.Background(), "p1"))

	mock.ExpectExec("DELETE FROM products WHERE id = ?").WithArgs("p1").WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.DeleteProduct(context.Background(), "p1"), ErrNotFound)
}

func TestProductRepository_AdjustStock(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewProductRepository(db)
	repo.now = func() time.Time { return fixedNow }

	mock.ExpectExec("UPDATE products SET stock = stock").
		WithArgs(-2, fixedNow, "p1", -2).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.AdjustStock(context.Background(), "p1", -2))

	// Refused decrement on an existing product.
	mock.ExpectExec("UPDATE products SET stock = stock").
		WithArgs(-9, fixedNow, "p1", -9).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT (.+) FROM products WHERE id = ?").
		WithArgs("p1").
		WillReturnRows(productRows().AddRow("p1", "Mug", "Clay", "300.00", nil, []byte(`[]`), "pottery", 1, true, false, fixedNow, fixedNow))
	assert.ErrorIs(t, repo.AdjustStock(context.Background(), "p1", -9), ErrInsufficientStock)

	// Unknown product.
	mock.ExpectExec("UPDATE products SET stock = stock").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT (.+) FROM products WHERE id = ?").WillReturnError(sql.ErrNoRows)
	assert.ErrorIs(t, repo.AdjustStock(context.Background(), "ghost", 1), ErrNotFound)

	mock.ExpectExec("UPDATE products SET stock = stock").WillReturnError(errors.New("connection reset"))
	assert.EqualError(t, repo.AdjustStock(context.Background(), "p1", 1), "connection reset")

	assert.NoError(t, mock.ExpectationsWereMet())
}
