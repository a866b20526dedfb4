package pipeline

import (
	"context"
	"fmt"
	"sync"

	"github.com/santabrisa/backend/internal/domain/queue"
)

// Worker executes one job kind. Workers are idempotent: a job re-run after a
// crash mid-execution must converge on the same end state, not duplicate its
// side effects. Workers signal retryability through error types
// (shared.TerminalError, integration.APIError) and never touch queue-control
// operations; the dispatcher alone decides retry versus fail.
type Worker interface {
	// Kind returns the job kind this worker executes.
	Kind() queue.JobKind
	// Execute runs the job and returns an optional result payload.
	Execute(ctx context.Context, job *queue.Job) ([]byte, error)
}

// Registry is the closed mapping from job kind to worker. A job whose kind
// has no registered worker fails terminally, never silently dropped.
//
// The dependency chains between kinds, kept here so they stay auditable in
// one place rather than implicit in scattered enqueue calls:
//
//	webhook intake      → upsert_inbound_order → create_shipment_from_order
//	                                           → create_invoice_from_order (delayed)
//	manual order confirmation (API) → create_shipment_from_order
//	warehouse ops (API) → validate_shipment → create_delivery_note
//	                      → create_carrier_label → mark_shipped
//	sync_contacts       → sync_contacts (next page)
//	sync_purchases      → sync_purchases (next page)
//	sync_products       → sync_products (next page)
//	scheduler           → reconcile_labels
//
// The shipment chain is driven by warehouse API calls in sequence; each
// worker guards its own preconditions so an out-of-order enqueue fails
// terminally instead of corrupting state.
type Registry struct {
	mu      sync.RWMutex
	workers map[queue.JobKind]Worker
}

// NewRegistry creates an empty worker registry.
func NewRegistry() *Registry {
	return &Registry{
		workers: make(map[queue.JobKind]Worker),
	}
}

// Register adds a worker for its kind. Registering two workers for the same
// kind is a wiring bug and returns an error.
func (r *Registry) Register(w Worker) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	kind := w.Kind()
	if !kind.IsValid() {
		return fmt.Errorf("register worker: unknown job kind %q", kind)
	}
	if _, exists := r.workers[kind]; exists {
		return fmt.Errorf("register worker: kind %q already registered", kind)
	}
	r.workers[kind] = w
	return nil
}

// Lookup returns the worker for a kind, or false when none is registered.
func (r *Registry) Lookup(kind queue.JobKind) (Worker, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.workers[kind]
	return w, ok
}

// Kinds returns the registered kinds, for startup logging.
func (r *Registry) Kinds() []queue.JobKind {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]queue.JobKind, 0, len(r.workers))
	for k := range r.workers {
		kinds = append(kinds, k)
	}
	return kinds
}
