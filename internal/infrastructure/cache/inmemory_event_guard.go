package cache

import (
	"context"
	"sync"
	"time"

	"github.com/santabrisa/backend/internal/domain/shared"
)

// entry represents a seen external id with expiration
type entry struct {
	expiresAt time.Time
}

// InMemoryEventGuard implements shared.EventGuard using an in-memory map.
// Suitable for single-instance deployments and testing; state is not shared
// across processes, so the durable ledger remains the source of truth.
type InMemoryEventGuard struct {
	mu        sync.RWMutex
	entries   map[string]entry
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryEventGuard creates a new in-memory event guard. It starts a
// background goroutine to clean up expired entries.
func NewInMemoryEventGuard() *InMemoryEventGuard {
	guard := &InMemoryEventGuard{
		entries:  make(map[string]entry),
		stopChan: make(chan struct{}),
	}

	guard.wg.Add(1)
	go guard.cleanupLoop()

	return guard
}

// MarkSeen records an external id with a TTL. Returns true if the id was
// newly recorded, false if it was already present and not expired.
func (g *InMemoryEventGuard) MarkSeen(ctx context.Context, externalID string, ttl time.Duration) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if e, exists := g.entries[externalID]; exists {
		if time.Now().Before(e.expiresAt) {
			return false, nil
		}
		// Expired entry, overwrite below.
	}

	g.entries[externalID] = entry{
		expiresAt: time.Now().Add(ttl),
	}

	return true, nil
}

// Close stops the cleanup goroutine. Safe to call multiple times.
func (g *InMemoryEventGuard) Close() error {
	g.closeOnce.Do(func() {
		close(g.stopChan)
		g.wg.Wait()
	})
	return nil
}

// cleanupLoop periodically removes expired entries
func (g *InMemoryEventGuard) cleanupLoop() {
	defer g.wg.Done()

	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-g.stopChan:
			return
		case <-ticker.C:
			g.cleanup()
		}
	}
}

func (g *InMemoryEventGuard) cleanup() {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := time.Now()
	for id, e := range g.entries {
		if now.After(e.expiresAt) {
			delete(g.entries, id)
		}
	}
}

// Size returns the number of entries in the guard (for testing/monitoring)
func (g *InMemoryEventGuard) Size() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.entries)
}

// Ensure InMemoryEventGuard implements EventGuard
var _ shared.EventGuard = (*InMemoryEventGuard)(nil)
