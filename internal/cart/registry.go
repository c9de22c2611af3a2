package cart

import (
	"context"
	"sync"
	"time"
)

// Registry hands out one Session per session id. A session's ledger is
// rehydrated from the store only when the session is first opened.
type Registry struct {
	store Store

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewRegistry(store Store) *Registry {
	return &Registry{
		store:    store,
		sessions: make(map[string]*Session),
	}
}

// Open returns the live session for id, loading it from the store if needed.
// Missing or unreadable stored data yields an empty ledger. The store is read
// without holding the registry lock; when two callers race on the same id the
// first session inserted wins.
func (r *Registry) Open(ctx context.Context, id string) *Session {
	if s := r.lookup(id); s != nil {
		return s
	}

	entries, err := r.store.Load(ctx, id)
	if err != nil {
		logger.Warn().Err(err).Msgf("Discarding stored cart %s", id)
		entries = nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[id]; ok {
		return s
	}
	s := &Session{
		id:       id,
		store:    r.store,
		ledger:   NewLedger(entries),
		lastUsed: time.Now(),
	}
	r.sessions[id] = s
	return s
}

func (r *Registry) lookup(id string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessions[id]
}

// Close tears down the in-memory session. Stored data is kept so the next
// Open rehydrates it.
func (r *Registry) Close(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

// Discard closes the session and removes its stored ledger.
func (r *Registry) Discard(ctx context.Context, id string) error {
	r.Close(id)
	return r.store.Delete(ctx, id)
}

// Sweep closes sessions idle for longer than maxIdle and returns how many
// were closed.
func (r *Registry) Sweep(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)

	r.mu.Lock()
	defer r.mu.Unlock()

	closed := 0
	for id, s := range r.sessions {
		if s.idleSince().Before(cutoff) {
			delete(r.sessions, id)
			closed++
		}
	}
	return closed
}

// Len reports how many sessions are live in memory.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// RunSweeper sweeps every interval until ctx is cancelled.
func (r *Registry) RunSweeper(ctx context.Context, interval, maxIdle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(maxIdle); n > 0 {
				logger.Info().Msgf("Closed %d idle cart sessions, %d still open", n, r.Len())
			}
		}
	}
}
