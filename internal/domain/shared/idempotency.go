package shared

import (
	"context"
	"time"
)

// EventGuard is the fast-path duplicate check in front of the durable webhook
// ledger. It stores recently seen external event ids with a TTL so obviously
// duplicated deliveries are dropped without touching the database.
//
// The guard is best-effort: the ledger remains the source of truth, so a
// guard miss (expired TTL, flushed cache) only costs a ledger lookup.
type EventGuard interface {
	// MarkSeen marks an external event id as seen with a TTL.
	// Returns true if the id was newly marked, false if it was already present.
	MarkSeen(ctx context.Context, externalID string, ttl time.Duration) (bool, error)

	// Close releases resources held by the guard.
	Close() error
}

// DefaultEventGuardTTL is how long a seen event id is remembered. External
// platforms stop retrying a delivery well within this window.
const DefaultEventGuardTTL = 24 * time.Hour
