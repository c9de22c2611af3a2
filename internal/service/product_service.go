package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"storefront-service/internal/apperr"
	"storefront-service/internal/entity"
	"storefront-service/internal/realtime"
)

const productCacheTTL = time.Minute

type ProductRepository interface {
	GetProductByID(ctx context.Context, id string) (*entity.Product, error)
	GetProducts(ctx context.Context) ([]*entity.Product, error)
	CreateProduct(ctx context.Context, product *entity.Product) (*entity.Product, error)
	UpdateProduct(ctx context.Context, product *entity.Product) (*entity.Product, error)
	DeleteProduct(ctx context.Context, id string) error
	AdjustStock(ctx context.Context, id string, delta int) error
}

// ProductFilter narrows the catalog listing. Zero values match everything.
type ProductFilter struct {
	Categories []string
	CODOnly    bool
	MinPrice   decimal.NullDecimal
	MaxPrice   decimal.NullDecimal
	Query      string
}

type ProductInput struct {
	Name          string              `json:"name"`
	Description   string              `json:"description"`
	Price         decimal.Decimal     `json:"price"`
	DiscountPrice decimal.NullDecimal `json:"discount_price"`
	Images        []string            `json:"images"`
	Category      string              `json:"category"`
	Stock         int                 `json:"stock"`
	CODAvailable  bool                `json:"cod_available"`
	Featured      bool                `json:"featured"`
}

type ProductService struct {
	productRepo ProductRepository
	rdb         *redis.Client
	publisher   Publisher
	newID       func() string
}

func NewProductService(productRepo ProductRepository, rdb *redis.Client, publisher Publisher) *ProductService {
	return &ProductService{
		productRepo: productRepo,
		rdb:         rdb,
		publisher:   publisher,
		newID:       uuid.NewString,
	}
}

func productKey(id string) string {
	return fmt.Sprintf("product:%s", id)
}

// GetProduct reads through the Redis cache.
func (p *ProductService) GetProduct(ctx context.Context, id string) (*entity.Product, error) {
	key := productKey(id)
	productCache, err := p.rdb.Get(ctx, key).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		logger.Error().Err(err).Msgf("Error getting product %s from cache", id)
	}

	if productCache != "" {
		var product entity.Product
		if err := json.Unmarshal([]byte(productCache), &product); err == nil {
			return &product, nil
		}
		logger.Warn().Msgf("Discarding unreadable cache entry for product %s", id)
	}

	product, err := p.productRepo.GetProductByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "product")
	}

	p.cache(ctx, product)
	return product, nil
}

// ListProducts returns products matching filter, newest first.
func (p *ProductService) ListProducts(ctx context.Context, filter ProductFilter) ([]*entity.Product, error) {
	products, err := p.productRepo.GetProducts(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Error getting products")
		return nil, storeError(err, "product")
	}

	matched := []*entity.Product{}
	for _, product := range products {
		if filter.Matches(product) {
			matched = append(matched, product)
		}
	}
	return matched, nil
}

func (p *ProductService) FeaturedProducts(ctx context.Context) ([]*entity.Product, error) {
	products, err := p.productRepo.GetProducts(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Error getting products")
		return nil, storeError(err, "product")
	}

	featured := []*entity.Product{}
	for _, product := range products {
		if product.Featured {
			featured = append(featured, product)
		}
	}
	return featured, nil
}

// Matches reports whether product passes every set criterion. Price bounds
// apply to the effective price.
func (f ProductFilter) Matches(product *entity.Product) bool {
	if len(f.Categories) > 0 {
		found := false
		for _, c := range f.Categories {
			if c == product.Category {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.CODOnly && !product.CODAvailable {
		return false
	}

	price := product.EffectivePrice()
	if f.MinPrice.Valid && price.LessThan(f.MinPrice.Decimal) {
		return false
	}
	if f.MaxPrice.Valid && price.GreaterThan(f.MaxPrice.Decimal) {
		return false
	}

	if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" {
		haystack := strings.ToLower(product.Name + " " + product.Description + " " + product.Category)
		if !strings.Contains(haystack, q) {
			return false
		}
	}
	return true
}

func (in ProductInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return apperr.Validation("name", "name is required")
	}
	if strings.TrimSpace(in.Description) == "" {
		return apperr.Validation("description", "description is required")
	}
	if !in.Price.IsPositive() {
		return apperr.Validation("price", "price must be greater than 0")
	}
	if in.DiscountPrice.Valid && in.DiscountPrice.Decimal.IsNegative() {
		return apperr.Validation("discount_price", "discount price cannot be negative")
	}
	if in.Stock < 0 {
		return apperr.Validation("stock", "stock cannot be negative")
	}
	return nil
}

func (in ProductInput) apply(product *entity.Product) {
	product.Name = strings.TrimSpace(in.Name)
	product.Description = strings.TrimSpace(in.Description)
	product.Price = in.Price
	product.DiscountPrice = in.DiscountPrice
	// A zero discount means no discount.
	if product.DiscountPrice.Valid && product.DiscountPrice.Decimal.IsZero() {
		product.DiscountPrice = decimal.NullDecimal{}
	}
	product.Images = in.Images
	if product.Images == nil {
		product.Images = []string{}
	}
	product.Category = in.Category
	product.Stock = in.Stock
	product.CODAvailable = in.CODAvailable
	product.Featured = in.Featured
}

func (p *ProductService) CreateProduct(ctx context.Context, in ProductInput) (*entity.Product, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	product := &entity.Product{ID: p.newID()}
	in.apply(product)

	created, err := p.productRepo.CreateProduct(ctx, product)
	if err != nil {
		logger.Error().Err(err).Msg("Error creating product")
		return nil, storeError(err, "product")
	}

	publish(ctx, p.publisher, realtime.EntityProduct, realtime.EventCreated, created.ID, created)
	return created, nil
}

func (p *ProductService) UpdateProduct(ctx context.Context, id string, in ProductInput) (*entity.Product, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	product, err := p.productRepo.GetProductByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "product")
	}
	in.apply(product)

	updated, err := p.productRepo.UpdateProduct(ctx, product)
	if err != nil {
		logger.Error().Err(err).Msgf("Error updating product %s", id)
		return nil, storeError(err, "product")
	}

	p.invalidate(ctx, id)
	publish(ctx, p.publisher, realtime.EntityProduct, realtime.EventUpdated, id, updated)
	return updated, nil
}

func (p *ProductService) DeleteProduct(ctx context.Context, id string) error {
	if err := p.productRepo.DeleteProduct(ctx, id); err != nil {
		logger.Error().Err(err).Msgf("Error deleting product %s", id)
		return storeError(err, "product")
	}

	p.invalidate(ctx, id)
	publish(ctx, p.publisher, realtime.EntityProduct, realtime.EventDeleted, id, map[string]string{"id": id})
	return nil
}

// ReserveProductStock takes quantity units out of stock for a placed order.
func (p *ProductService) ReserveProductStock(ctx context.Context, productID string, quantity int) error {
	return p.adjustStock(ctx, productID, -quantity)
}

// ReleaseProductStock returns quantity units when an order is cancelled.
func (p *ProductService) ReleaseProductStock(ctx context.Context, productID string, quantity int) error {
	return p.adjustStock(ctx, productID, quantity)
}

func (p *ProductService) adjustStock(ctx context.Context, productID string, delta int) error {
	if err := p.productRepo.AdjustStock(ctx, productID, delta); err != nil {
		logger.Error().Err(err).Msgf("Error adjusting stock for product %s by %d", productID, delta)
		return storeError(err, "product")
	}
	p.invalidate(ctx, productID)

	product, err := p.productRepo.GetProductByID(ctx, productID)
	if err != nil {
		logger.Error().Err(err).Msgf("Error reloading product %s", productID)
		return nil
	}
	publish(ctx, p.publisher, realtime.EntityProduct, realtime.EventUpdated, productID, product)
	return nil
}

// PreWarmCache loads every product into the cache.
func (p *ProductService) PreWarmCache(ctx context.Context) error {
	products, err := p.productRepo.GetProducts(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Error getting products")
		return err
	}

	for _, product := range products {
		p.cache(ctx, product)
	}
	return nil
}

func (p *ProductService) cache(ctx context.Context, product *entity.Product) {
	data, err := json.Marshal(product)
	if err != nil {
		logger.Error().Err(err).Msgf("Error marshalling product %s", product.ID)
		return
	}
	if err := p.rdb.Set(ctx, productKey(product.ID), data, productCacheTTL).Err(); err != nil {
		logger.Error().Err(err).Msgf("Error setting product %s in cache", product.ID)
	}
}

func (p *ProductService) invalidate(ctx context.Context, id string) {
	if err := p.rdb.Del(ctx, productKey(id)).Err(); err != nil {
		logger.Error().Err(err).Msgf("Error deleting product %s from cache", id)
	}
}
