package realtime

import (
	"context"
	"sync"
)

// Broker fans events out to subscribers of a channel name. Each subscriber
// holds at most one pending event; a newer one replaces it.
type Broker struct {
	mu   sync.Mutex
	subs map[string]map[chan Event]struct{}
}

func NewBroker() *Broker {
	return &Broker{subs: make(map[string]map[chan Event]struct{})}
}

// OrderChannel is the channel name for a single order's snapshots.
func OrderChannel(orderID string) string {
	return EntityOrder + ":" + orderID
}

const (
	ProductsChannel   = "products"
	CategoriesChannel = "categories"
)

// Subscribe registers for name until ctx is done, then closes the channel.
func (b *Broker) Subscribe(ctx context.Context, name string) <-chan Event {
	ch := make(chan Event, 1)

	b.mu.Lock()
	if b.subs[name] == nil {
		b.subs[name] = make(map[chan Event]struct{})
	}
	b.subs[name][ch] = struct{}{}
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.subs[name], ch)
		if len(b.subs[name]) == 0 {
			delete(b.subs, name)
		}
		b.mu.Unlock()
		close(ch)
	}()

	return ch
}

func (b *Broker) Publish(name string, ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for ch := range b.subs[name] {
		select {
		case ch <- ev:
		default:
			// Drop the stale pending event.
			select {
			case <-ch:
			default:
			}
			ch <- ev
		}
	}
}

// Subscribers returns the number of live subscriptions on name.
func (b *Broker) Subscribers(name string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[name])
}

// Dispatch routes an event to the channels that care about it.
func (b *Broker) Dispatch(ev Event) {
	switch ev.Entity {
	case EntityOrder:
		b.Publish(OrderChannel(ev.ID), ev)
	case EntityProduct:
		b.Publish(ProductsChannel, ev)
	case EntityCategory:
		b.Publish(CategoriesChannel, ev)
	}
}

// Pump dispatches events into b until the source closes.
func (b *Broker) Pump(events <-chan Event) {
	for ev := range events {
		b.Dispatch(ev)
	}
}
