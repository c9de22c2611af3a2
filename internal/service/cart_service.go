package service

import (
	"context"

	"github.com/shopspring/decimal"

	"storefront-service/internal/cart"
	"storefront-service/internal/checkout"
	"storefront-service/internal/entity"
)

// ProductReader looks up a current product snapshot.
type ProductReader interface {
	GetProduct(ctx context.Context, id string) (*entity.Product, error)
}

// CartSummary is the cart page: the ledger plus checkout arithmetic.
type CartSummary struct {
	cart.View
	ShippingCost decimal.Decimal `json:"shipping_cost"`
	Total        decimal.Decimal `json:"total"`
	CODAvailable bool            `json:"cod_available"`
	Outcome      string          `json:"outcome,omitempty"`
}

type CartService struct {
	carts    *cart.Registry
	products ProductReader
}

func NewCartService(carts *cart.Registry, products ProductReader) *CartService {
	return &CartService{carts: carts, products: products}
}

func summarize(session *cart.Session, outcome cart.Outcome) CartSummary {
	view := session.View()
	totals := checkout.ComputeTotals(view.Items)
	summary := CartSummary{
		View:         view,
		ShippingCost: totals.ShippingCost,
		Total:        totals.Total,
		CODAvailable: len(view.Items) > 0 && checkout.CODAvailable(view.Items),
	}
	if outcome != cart.Unchanged {
		summary.Outcome = outcome.String()
	}
	return summary
}

func (s *CartService) GetCart(ctx context.Context, sessionID string) CartSummary {
	return summarize(s.carts.Open(ctx, sessionID), cart.Unchanged)
}

// AddItem adds quantity of a product at its current price and stock.
func (s *CartService) AddItem(ctx context.Context, sessionID, productID string, quantity int) (CartSummary, error) {
	product, err := s.products.GetProduct(ctx, productID)
	if err != nil {
		return CartSummary{}, err
	}

	session := s.carts.Open(ctx, sessionID)
	outcome, err := session.Add(ctx, *product, quantity)
	if err != nil {
		return CartSummary{}, err
	}
	return summarize(session, outcome), nil
}

func (s *CartService) UpdateItem(ctx context.Context, sessionID, productID string, quantity int) (CartSummary, error) {
	session := s.carts.Open(ctx, sessionID)
	outcome, err := session.UpdateQuantity(ctx, productID, quantity)
	if err != nil {
		return CartSummary{}, err
	}
	return summarize(session, outcome), nil
}

func (s *CartService) RemoveItem(ctx context.Context, sessionID, productID string) (CartSummary, error) {
	session := s.carts.Open(ctx, sessionID)
	outcome, err := session.Remove(ctx, productID)
	if err != nil {
		return CartSummary{}, err
	}
	return summarize(session, outcome), nil
}

func (s *CartService) Clear(ctx context.Context, sessionID string) (CartSummary, error) {
	session := s.carts.Open(ctx, sessionID)
	outcome, err := session.Clear(ctx)
	if err != nil {
		return CartSummary{}, err
	}
	return summarize(session, outcome), nil
}

// Discard drops the session and its stored ledger.
func (s *CartService) Discard(ctx context.Context, sessionID string) error {
	return s.carts.Discard(ctx, sessionID)
}
