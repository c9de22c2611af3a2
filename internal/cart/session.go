package cart

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"storefront-service/internal/entity"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Str("component", "cart").Logger()

// View is a read-only snapshot of a ledger with its derived totals.
type View struct {
	SessionID  string             `json:"session_id"`
	Items      []entity.CartEntry `json:"items"`
	TotalItems int                `json:"total_items"`
	Subtotal   decimal.Decimal    `json:"subtotal"`
}

// Session owns one shopper's ledger. Mutations are serialized and each one
// is written through to the store before the next is applied.
type Session struct {
	id    string
	store Store

	mu       sync.Mutex
	ledger   *Ledger
	lastUsed time.Time
}

func (s *Session) ID() string { return s.id }

func (s *Session) Add(ctx context.Context, product entity.Product, quantity int) (Outcome, error) {
	return s.mutate(ctx, func(l *Ledger) (Outcome, error) {
		return l.Add(product, quantity)
	})
}

func (s *Session) Remove(ctx context.Context, productID string) (Outcome, error) {
	return s.mutate(ctx, func(l *Ledger) (Outcome, error) {
		return l.Remove(productID), nil
	})
}

func (s *Session) UpdateQuantity(ctx context.Context, productID string, quantity int) (Outcome, error) {
	return s.mutate(ctx, func(l *Ledger) (Outcome, error) {
		return l.UpdateQuantity(productID, quantity)
	})
}

func (s *Session) Clear(ctx context.Context) (Outcome, error) {
	return s.mutate(ctx, func(l *Ledger) (Outcome, error) {
		return l.Clear(), nil
	})
}

func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.ledger.Entries()
	return View{
		SessionID:  s.id,
		Items:      entries,
		TotalItems: TotalItems(entries),
		Subtotal:   Subtotal(entries),
	}
}

// Entries returns a snapshot of the ledger for order composition.
func (s *Session) Entries() []entity.CartEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Entries()
}

// mutate applies fn and, when the ledger changed, writes the full ledger to
// the store. A failed write is logged: the in-memory ledger stays
// authoritative for the session and the next mutation writes it again.
func (s *Session) mutate(ctx context.Context, fn func(*Ledger) (Outcome, error)) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastUsed = time.Now()
	outcome, err := fn(s.ledger)
	if err != nil {
		return outcome, err
	}
	if outcome == Unchanged {
		return outcome, nil
	}

	if err := s.store.Save(ctx, s.id, s.ledger.Entries()); err != nil {
		logger.Error().Err(err).Msgf("Error saving cart %s", s.id)
	}
	return outcome, nil
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsed
}
