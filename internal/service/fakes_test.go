package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"

	"storefront-service/internal/entity"
	"storefront-service/internal/payment"
	"storefront-service/internal/repository"
)

func newRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return rdb, mr
}

func testProduct(id string, price int64, stock int, cod bool) *entity.Product {
	return &entity.Product{
		ID:           id,
		Name:         "Product " + id,
		Description:  "Handmade " + id,
		Price:        decimal.NewFromInt(price),
		Images:       []string{id + ".jpg"},
		Category:     "pottery",
		Stock:        stock,
		CODAvailable: cod,
	}
}

type memProducts struct {
	mu       sync.Mutex
	products map[string]*entity.Product
	reads    int
	err      error
}

func newMemProducts(products ...*entity.Product) *memProducts {
	m := &memProducts{products: map[string]*entity.Product{}}
	for _, p := range products {
		m.products[p.ID] = p
	}
	return m
}

func (m *memProducts) GetProductByID(_ context.Context, id string) (*entity.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reads++
	if m.err != nil {
		return nil, m.err
	}
	p, ok := m.products[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memProducts) GetProducts(_ context.Context) ([]*entity.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var out []*entity.Product
	for _, p := range m.products {
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memProducts) CreateProduct(_ context.Context, p *entity.Product) (*entity.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[p.ID]; ok {
		return nil, repository.ErrDuplicate
	}
	cp := *p
	m.products[p.ID] = &cp
	return p, nil
}

func (m *memProducts) UpdateProduct(_ context.Context, p *entity.Product) (*entity.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[p.ID]; !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	m.products[p.ID] = &cp
	return p, nil
}

func (m *memProducts) DeleteProduct(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.products, id)
	return nil
}

func (m *memProducts) AdjustStock(_ context.Context, id string, delta int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return repository.ErrNotFound
	}
	if p.Stock+delta < 0 {
		return repository.ErrInsufficientStock
	}
	p.Stock += delta
	return nil
}

type memOrders struct {
	mu        sync.Mutex
	orders    map[string]*entity.Order
	createErr error
	updates   int
}

func newMemOrders(orders ...*entity.Order) *memOrders {
	m := &memOrders{orders: map[string]*entity.Order{}}
	for _, o := range orders {
		m.orders[o.ID] = o
	}
	return m
}

func (m *memOrders) CreateOrder(_ context.Context, o *entity.Order) (*entity.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return nil, m.createErr
	}
	cp := *o
	m.orders[o.ID] = &cp
	return o, nil
}

func (m *memOrders) GetOrderByID(_ context.Context, id string) (*entity.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *memOrders) UpdateOrder(_ context.Context, o *entity.Order) (*entity.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.orders[o.ID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	m.updates++
	stored.PaymentStatus = o.PaymentStatus
	stored.OrderStatus = o.OrderStatus
	stored.GatewayOrderID = o.GatewayOrderID
	stored.GatewayPaymentID = o.GatewayPaymentID
	cp := *stored
	return &cp, nil
}

func (m *memOrders) list(match func(*entity.Order) bool) []*entity.Order {
	var out []*entity.Order
	for _, o := range m.orders {
		if match(o) {
			cp := *o
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (m *memOrders) ListOrdersByUser(_ context.Context, userID string) ([]*entity.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.list(func(o *entity.Order) bool { return o.UserID == userID }), nil
}

func (m *memOrders) ListOrders(_ context.Context) ([]*entity.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.list(func(*entity.Order) bool { return true }), nil
}

type published struct {
	entity string
	event  string
	id     string
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []published
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, entity, event, id string, _ interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, published{entity, event, id})
	return p.err
}

type fakeGateway struct {
	calls  int
	amount int64
	notes  map[string]string
	err    error
}

func (g *fakeGateway) CreateOrder(_ context.Context, receipt string, amountMinor int64, notes map[string]string) (*payment.GatewayOrder, error) {
	g.calls++
	g.amount = amountMinor
	g.notes = notes
	if g.err != nil {
		return nil, g.err
	}
	return &payment.GatewayOrder{ID: "order_" + receipt, Amount: amountMinor, Currency: payment.DefaultCurrency, KeyID: "rzp_test"}, nil
}

var errStoreDown = errors.New("store down")

var testTime = time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)
