package pipeline

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/santabrisa/backend/internal/domain/billing"
	"github.com/santabrisa/backend/internal/domain/partner"
	"github.com/santabrisa/backend/internal/domain/queue"
	"github.com/santabrisa/backend/internal/domain/shared"
	"github.com/santabrisa/backend/internal/domain/shipping"
	"go.uber.org/zap"
)

// DeliveryNoteWorker creates the delivery note for a validated shipment:
// business number, rendered document archived in the document store, and
// the number back-linked onto the shipment.
type DeliveryNoteWorker struct {
	shipments shipping.ShipmentRepository
	accounts  partner.AccountRepository
	notes     billing.DeliveryNoteRepository
	renderer  Renderer
	store     DocumentStore
	logger    *zap.Logger
}

// NewDeliveryNoteWorker creates a new worker.
func NewDeliveryNoteWorker(
	shipments shipping.ShipmentRepository,
	accounts partner.AccountRepository,
	notes billing.DeliveryNoteRepository,
	renderer Renderer,
	store DocumentStore,
	logger *zap.Logger,
) *DeliveryNoteWorker {
	return &DeliveryNoteWorker{
		shipments: shipments,
		accounts:  accounts,
		notes:     notes,
		renderer:  renderer,
		store:     store,
		logger:    logger,
	}
}

// Kind returns the job kind this worker executes.
func (w *DeliveryNoteWorker) Kind() queue.JobKind {
	return queue.JobKindCreateDeliveryNote
}

// Execute creates the delivery note. Running it before the visual check has
// passed is an ordering bug upstream and fails terminally. A crash between
// saving the note and back-linking the shipment converges on re-run: the
// existing note is found by shipment id and only the back-link is repaired.
func (w *DeliveryNoteWorker) Execute(ctx context.Context, job *queue.Job) ([]byte, error) {
	var p queue.ShipmentRefPayload
	if err := queue.DecodePayload(job.Payload, &p); err != nil {
		return nil, err
	}
	shipmentID, err := uuid.Parse(p.ShipmentID)
	if err != nil {
		return nil, shared.Terminalf("invalid shipment id %q: %v", p.ShipmentID, err)
	}

	shipment, err := w.shipments.FindByID(ctx, shipmentID)
	if err != nil {
		if err == shared.ErrNotFound {
			return nil, shared.Terminalf("shipment %s not found", shipmentID)
		}
		return nil, err
	}

	if shipment.DeliveryNoteNumber != "" {
		return nil, nil
	}
	if !shipment.CanCreateDeliveryNote() {
		return nil, shared.Terminalf("shipment %s has not passed the visual check", shipmentID)
	}

	existing, err := w.notes.FindByShipmentID(ctx, shipmentID)
	if err == nil {
		if err := w.backLink(ctx, shipmentID, existing.Number); err != nil {
			return nil, err
		}
		return queue.EncodePayload(deliveryNoteResult{Number: existing.Number, DocumentURL: existing.DocumentURL})
	}
	if err != shared.ErrNotFound {
		return nil, err
	}

	account, err := w.accounts.FindByID(ctx, shipment.AccountID)
	if err != nil {
		if err == shared.ErrNotFound {
			return nil, shared.Terminalf("account %s for shipment %s not found", shipment.AccountID, shipmentID)
		}
		return nil, err
	}

	note := billing.NewDeliveryNote(shipment.ID, shipment.OrderID)
	doc, contentType, err := w.renderer.Render(ctx, &RenderRequest{
		Kind:   DocumentKindDeliveryNote,
		Number: note.Number,
		Data: map[string]any{
			"AccountName":     account.Name,
			"ShippingAddress": account.ShippingAddress,
			"Lines":           deliveryNoteLines(shipment),
			"Mode":            string(shipment.Mode),
		},
	})
	if err != nil {
		return nil, shared.Terminalf("render delivery note for shipment %s: %v", shipmentID, err)
	}

	url, err := w.store.Store(ctx, fmt.Sprintf("delivery-notes/%s.html", note.Number), doc, contentType)
	if err != nil {
		return nil, err
	}
	note.DocumentURL = url

	if err := w.notes.Save(ctx, note); err != nil {
		return nil, err
	}
	if err := w.backLink(ctx, shipmentID, note.Number); err != nil {
		return nil, err
	}

	w.logger.Info("delivery note created",
		zap.String("shipment_id", shipmentID.String()),
		zap.String("number", note.Number),
		zap.String("document_url", note.DocumentURL),
	)
	return queue.EncodePayload(deliveryNoteResult{Number: note.Number, DocumentURL: note.DocumentURL})
}

func (w *DeliveryNoteWorker) backLink(ctx context.Context, shipmentID uuid.UUID, number string) error {
	return w.shipments.Patch(ctx, shipmentID, shipping.ShipmentPatch{DeliveryNoteNumber: &number})
}

type deliveryNoteResult struct {
	Number      string `json:"number"`
	DocumentURL string `json:"documentUrl"`
}

func deliveryNoteLines(shipment *shipping.Shipment) []map[string]any {
	lines := make([]map[string]any, 0, len(shipment.Lines))
	for _, l := range shipment.Lines {
		lines = append(lines, map[string]any{
			"SKU":       l.SKU,
			"Name":      l.Name,
			"Qty":       l.Qty.String(),
			"UOM":       l.UOM,
			"LotNumber": l.LotNumber,
		})
	}
	return lines
}

var _ Worker = (*DeliveryNoteWorker)(nil)
