// Package checkout turns a cart snapshot into an order record.
package checkout

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"storefront-service/internal/apperr"
	"storefront-service/internal/cart"
	"storefront-service/internal/entity"
)

var (
	// FreeShippingThreshold is the subtotal at which shipping becomes free.
	FreeShippingThreshold = decimal.NewFromInt(500)
	// FlatShippingCost applies below the threshold.
	FlatShippingCost = decimal.NewFromInt(50)

	phonePattern   = regexp.MustCompile(`^\d{10}$`)
	pincodePattern = regexp.MustCompile(`^\d{6}$`)
)

// Composer builds orders. Now and NewID are injectable for tests.
type Composer struct {
	Now   func() time.Time
	NewID func() string
}

func NewComposer() *Composer {
	return &Composer{
		Now:   time.Now,
		NewID: uuid.NewString,
	}
}

// ValidateAddress checks required fields in form order, then the phone and
// pincode formats. The first failure is returned.
func ValidateAddress(a entity.ShippingAddress) error {
	required := []struct {
		field string
		label string
		value string
	}{
		{"full_name", "full name", a.FullName},
		{"phone", "phone", a.Phone},
		{"address_line1", "address line1", a.AddressLine1},
		{"city", "city", a.City},
		{"state", "state", a.State},
		{"pincode", "pincode", a.Pincode},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return apperr.Validation(r.field, "please fill in "+r.label)
		}
	}

	if !phonePattern.MatchString(a.Phone) {
		return apperr.Validation("phone", "please enter a valid 10-digit phone number")
	}
	if !pincodePattern.MatchString(a.Pincode) {
		return apperr.Validation("pincode", "please enter a valid 6-digit pincode")
	}
	return nil
}

// ShippingCost is free at or above FreeShippingThreshold, flat below it.
func ShippingCost(subtotal decimal.Decimal) decimal.Decimal {
	if subtotal.GreaterThanOrEqual(FreeShippingThreshold) {
		return decimal.Zero
	}
	return FlatShippingCost
}

// Totals holds the arithmetic shared by the cart page and order creation.
type Totals struct {
	Subtotal     decimal.Decimal `json:"subtotal"`
	ShippingCost decimal.Decimal `json:"shipping_cost"`
	Total        decimal.Decimal `json:"total"`
}

func ComputeTotals(entries []entity.CartEntry) Totals {
	subtotal := cart.Subtotal(entries)
	shipping := ShippingCost(subtotal)
	return Totals{
		Subtotal:     subtotal,
		ShippingCost: shipping,
		Total:        subtotal.Add(shipping),
	}
}

// CODAvailable reports whether every entry may be paid on delivery.
func CODAvailable(entries []entity.CartEntry) bool {
	for _, e := range entries {
		if !e.Product.CODAvailable {
			return false
		}
	}
	return true
}

// Compose validates the inputs and returns a pending order whose line items
// are frozen copies of the cart entries. Nothing is persisted or mutated.
func (c *Composer) Compose(entries []entity.CartEntry, address entity.ShippingAddress, method entity.PaymentMethod, userID string) (*entity.Order, error) {
	if err := ValidateAddress(address); err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, apperr.Validation("items", "cart is empty")
	}
	if !method.Valid() {
		return nil, apperr.Validation("payment_method", "unknown payment method")
	}

	totals := ComputeTotals(entries)

	if method == entity.PaymentCOD && !CODAvailable(entries) {
		return nil, apperr.Validation("payment_method", "COD unavailable")
	}

	items := make([]entity.LineItem, 0, len(entries))
	for _, e := range entries {
		items = append(items, entity.LineItem{
			ProductID:    e.Product.ID,
			ProductName:  e.Product.Name,
			ProductImage: e.Product.FirstImage(),
			Price:        e.Product.EffectivePrice(),
			Quantity:     e.Quantity,
		})
	}

	now := c.Now().UTC()
	return &entity.Order{
		ID:              c.NewID(),
		UserID:          userID,
		Items:           items,
		ShippingAddress: address,
		PaymentMethod:   method,
		PaymentStatus:   entity.PaymentPending,
		OrderStatus:     entity.OrderPending,
		Subtotal:        totals.Subtotal,
		ShippingCost:    totals.ShippingCost,
		Total:           totals.Total,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}
