// Package cart keeps a shopper's selected products and quantities before an
// order is placed.
package cart

import (
	"github.com/shopspring/decimal"

	"storefront-service/internal/apperr"
	"storefront-service/internal/entity"
)

// ErrStockExceeded is returned when a mutation would put more units in the
// cart than the product has in stock. The ledger is left unchanged.
var ErrStockExceeded = apperr.Validation("quantity", "not enough stock available")

// Outcome tells the caller which notification a mutation deserves.
type Outcome int

const (
	Unchanged Outcome = iota
	ItemAdded
	QuantityUpdated
	ItemRemoved
	Cleared
)

func (o Outcome) String() string {
	switch o {
	case ItemAdded:
		return "item_added"
	case QuantityUpdated:
		return "quantity_updated"
	case ItemRemoved:
		return "item_removed"
	case Cleared:
		return "cleared"
	}
	return "unchanged"
}

// Ledger is an ordered list of cart entries, unique by product id. It does no
// I/O; Session adds persistence on top.
type Ledger struct {
	entries []entity.CartEntry
}

// NewLedger builds a ledger from previously stored entries. Entries with a
// missing product id, a quantity below one, or a duplicate product id are
// dropped.
func NewLedger(entries []entity.CartEntry) *Ledger {
	l := &Ledger{}
	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if e.Product.ID == "" || e.Quantity < 1 {
			continue
		}
		if _, ok := seen[e.Product.ID]; ok {
			continue
		}
		seen[e.Product.ID] = struct{}{}
		l.entries = append(l.entries, e)
	}
	return l
}

func (l *Ledger) indexOf(productID string) int {
	for i := range l.entries {
		if l.entries[i].Product.ID == productID {
			return i
		}
	}
	return -1
}

// Add puts quantity units of product in the ledger, merging with an existing
// entry. The resulting quantity must not exceed product.Stock.
func (l *Ledger) Add(product entity.Product, quantity int) (Outcome, error) {
	if quantity < 1 {
		return Unchanged, apperr.Validation("quantity", "quantity must be at least 1")
	}

	i := l.indexOf(product.ID)
	if i >= 0 {
		next := l.entries[i].Quantity + quantity
		if next > product.Stock {
			return Unchanged, ErrStockExceeded
		}
		l.entries[i] = entity.CartEntry{Product: product, Quantity: next}
		return QuantityUpdated, nil
	}

	if quantity > product.Stock {
		return Unchanged, ErrStockExceeded
	}
	l.entries = append(l.entries, entity.CartEntry{Product: product, Quantity: quantity})
	return ItemAdded, nil
}

// Remove deletes the entry for productID. Removing an absent product is not an
// error.
func (l *Ledger) Remove(productID string) Outcome {
	i := l.indexOf(productID)
	if i >= 0 {
		l.entries = append(l.entries[:i], l.entries[i+1:]...)
	}
	return ItemRemoved
}

// UpdateQuantity replaces the quantity of an existing entry. A quantity below
// one removes the entry.
func (l *Ledger) UpdateQuantity(productID string, quantity int) (Outcome, error) {
	if quantity < 1 {
		return l.Remove(productID), nil
	}

	i := l.indexOf(productID)
	if i < 0 {
		return Unchanged, nil
	}
	if quantity > l.entries[i].Product.Stock {
		return Unchanged, ErrStockExceeded
	}
	l.entries[i].Quantity = quantity
	return QuantityUpdated, nil
}

func (l *Ledger) Clear() Outcome {
	l.entries = nil
	return Cleared
}

// Entries returns a copy of the ledger contents in insertion order.
func (l *Ledger) Entries() []entity.CartEntry {
	out := make([]entity.CartEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

func (l *Ledger) Len() int { return len(l.entries) }

func (l *Ledger) TotalItems() int {
	return TotalItems(l.entries)
}

func (l *Ledger) Subtotal() decimal.Decimal {
	return Subtotal(l.entries)
}

// TotalItems is the sum of entry quantities.
func TotalItems(entries []entity.CartEntry) int {
	total := 0
	for _, e := range entries {
		total += e.Quantity
	}
	return total
}

// Subtotal is the sum of effective unit price times quantity. Order
// composition uses the same function so both agree to the last unit.
func Subtotal(entries []entity.CartEntry) decimal.Decimal {
	sum := decimal.Zero
	for _, e := range entries {
		sum = sum.Add(e.Product.EffectivePrice().Mul(decimal.NewFromInt(int64(e.Quantity))))
	}
	return sum
}
