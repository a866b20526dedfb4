package pipeline

import (
	"context"
	"time"

	"github.com/santabrisa/backend/internal/domain/billing"
	"github.com/santabrisa/backend/internal/domain/catalog"
	"github.com/santabrisa/backend/internal/domain/integration"
	"github.com/santabrisa/backend/internal/domain/partner"
	"github.com/santabrisa/backend/internal/domain/queue"
	"github.com/santabrisa/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// The sync workers pull the invoicing platform page by page. Each full page
// enqueues the next page as a fresh job, so one slow or failing page retries
// on its own without restarting the whole pull. A short page ends the chain.

type syncPageResult struct {
	Page  int `json:"page"`
	Count int `json:"count"`
}

// ContactSyncWorker mirrors invoicing-platform contacts into accounts.
type ContactSyncWorker struct {
	holded   integration.HoldedClient
	accounts partner.AccountRepository
	enqueuer *Enqueuer
	logger   *zap.Logger
}

// NewContactSyncWorker creates a new worker.
func NewContactSyncWorker(
	holded integration.HoldedClient,
	accounts partner.AccountRepository,
	enqueuer *Enqueuer,
	logger *zap.Logger,
) *ContactSyncWorker {
	return &ContactSyncWorker{
		holded:   holded,
		accounts: accounts,
		enqueuer: enqueuer,
		logger:   logger,
	}
}

// Kind returns the job kind this worker executes.
func (w *ContactSyncWorker) Kind() queue.JobKind {
	return queue.JobKindSyncContacts
}

// Execute pulls one page of contacts. A contact already linked by platform
// id is refreshed in place; an unlinked account with the same email gets
// linked; anything else becomes a new account. Individual bad contacts are
// skipped with a log line rather than failing the page.
func (w *ContactSyncWorker) Execute(ctx context.Context, job *queue.Job) ([]byte, error) {
	page := decodePage(job.Payload)

	contacts, err := w.holded.FetchContacts(ctx, page)
	if err != nil {
		return nil, err
	}

	for _, c := range contacts {
		if err := w.upsertContact(ctx, c); err != nil {
			if shared.IsTerminal(err) {
				w.logger.Warn("skipping unusable contact",
					zap.String("holded_contact_id", c.ID),
					zap.Error(err),
				)
				continue
			}
			return nil, err
		}
	}

	if len(contacts) >= integration.HoldedPageSize {
		if err := enqueueNextPage(ctx, w.enqueuer, queue.JobKindSyncContacts, page, job.CorrelationID); err != nil {
			return nil, err
		}
	}

	w.logger.Info("contact page synced", zap.Int("page", page), zap.Int("count", len(contacts)))
	return queue.EncodePayload(syncPageResult{Page: page, Count: len(contacts)})
}

func (w *ContactSyncWorker) upsertContact(ctx context.Context, c integration.HoldedContact) error {
	if c.ID == "" {
		return shared.Terminalf("contact has no platform id")
	}

	account, err := w.accounts.FindByHoldedContactID(ctx, c.ID)
	if err == nil {
		account.Name = c.Name
		if c.Email != "" {
			account.Email = partner.NormalizeEmail(c.Email)
		}
		account.Phone = c.Phone
		return w.accounts.Update(ctx, account)
	}
	if err != shared.ErrNotFound {
		return err
	}

	if c.Email != "" {
		account, err = w.accounts.FindByEmail(ctx, c.Email)
		if err == nil {
			account.HoldedContactID = c.ID
			account.Phone = c.Phone
			return w.accounts.Update(ctx, account)
		}
		if err != shared.ErrNotFound {
			return err
		}
	}

	account, err = partner.NewAccount(c.Name, c.Email)
	if err != nil {
		return shared.Terminal(err)
	}
	account.HoldedContactID = c.ID
	account.Phone = c.Phone
	return w.accounts.Save(ctx, account)
}

// PurchaseSyncWorker mirrors purchase/expense documents for finance
// reporting.
type PurchaseSyncWorker struct {
	holded    integration.HoldedClient
	purchases billing.PurchaseDocumentRepository
	enqueuer  *Enqueuer
	logger    *zap.Logger
}

// NewPurchaseSyncWorker creates a new worker.
func NewPurchaseSyncWorker(
	holded integration.HoldedClient,
	purchases billing.PurchaseDocumentRepository,
	enqueuer *Enqueuer,
	logger *zap.Logger,
) *PurchaseSyncWorker {
	return &PurchaseSyncWorker{
		holded:    holded,
		purchases: purchases,
		enqueuer:  enqueuer,
		logger:    logger,
	}
}

// Kind returns the job kind this worker executes.
func (w *PurchaseSyncWorker) Kind() queue.JobKind {
	return queue.JobKindSyncPurchases
}

// Execute pulls one page of purchase documents and upserts the local
// mirrors keyed by platform document id.
func (w *PurchaseSyncWorker) Execute(ctx context.Context, job *queue.Job) ([]byte, error) {
	page := decodePage(job.Payload)

	docs, err := w.holded.FetchPurchases(ctx, page)
	if err != nil {
		return nil, err
	}

	for _, d := range docs {
		if d.ID == "" {
			w.logger.Warn("skipping purchase document without platform id", zap.Int("page", page))
			continue
		}
		doc := billing.NewPurchaseDocument(
			d.ID, d.DocType, d.Contact,
			decimal.NewFromFloat(d.Total), d.Currency,
			time.Unix(d.Date, 0),
		)
		if err := w.purchases.Upsert(ctx, doc); err != nil {
			return nil, err
		}
	}

	if len(docs) >= integration.HoldedPageSize {
		if err := enqueueNextPage(ctx, w.enqueuer, queue.JobKindSyncPurchases, page, job.CorrelationID); err != nil {
			return nil, err
		}
	}

	w.logger.Info("purchase page synced", zap.Int("page", page), zap.Int("count", len(docs)))
	return queue.EncodePayload(syncPageResult{Page: page, Count: len(docs)})
}

// ProductSyncWorker mirrors invoicing-platform products keyed by SKU.
type ProductSyncWorker struct {
	holded   integration.HoldedClient
	products catalog.ProductRepository
	enqueuer *Enqueuer
	logger   *zap.Logger
}

// NewProductSyncWorker creates a new worker.
func NewProductSyncWorker(
	holded integration.HoldedClient,
	products catalog.ProductRepository,
	enqueuer *Enqueuer,
	logger *zap.Logger,
) *ProductSyncWorker {
	return &ProductSyncWorker{
		holded:   holded,
		products: products,
		enqueuer: enqueuer,
		logger:   logger,
	}
}

// Kind returns the job kind this worker executes.
func (w *ProductSyncWorker) Kind() queue.JobKind {
	return queue.JobKindSyncProducts
}

// Execute pulls one page of products. Products without a SKU cannot join
// onto order or shipment lines and are skipped.
func (w *ProductSyncWorker) Execute(ctx context.Context, job *queue.Job) ([]byte, error) {
	page := decodePage(job.Payload)

	items, err := w.holded.FetchProducts(ctx, page)
	if err != nil {
		return nil, err
	}

	for _, it := range items {
		if it.SKU == "" {
			w.logger.Warn("skipping product without sku", zap.String("holded_product_id", it.ID))
			continue
		}
		product, err := catalog.NewProduct(it.SKU, it.Name)
		if err != nil {
			w.logger.Warn("skipping unusable product", zap.String("sku", it.SKU), zap.Error(err))
			continue
		}
		product.HoldedProductID = it.ID
		product.Price = decimal.NewFromFloat(it.Price)
		product.Stock = decimal.NewFromFloat(it.Stock)
		if err := w.products.Upsert(ctx, product); err != nil {
			return nil, err
		}
	}

	if len(items) >= integration.HoldedPageSize {
		if err := enqueueNextPage(ctx, w.enqueuer, queue.JobKindSyncProducts, page, job.CorrelationID); err != nil {
			return nil, err
		}
	}

	w.logger.Info("product page synced", zap.Int("page", page), zap.Int("count", len(items)))
	return queue.EncodePayload(syncPageResult{Page: page, Count: len(items)})
}

// decodePage reads the page number out of a sync payload. Sync jobs are
// internally enqueued and tolerate an empty first payload: it means page 1.
func decodePage(payload []byte) int {
	var p queue.SyncPagePayload
	if len(payload) > 0 {
		if err := queue.DecodePayload(payload, &p); err != nil {
			return 1
		}
	}
	if p.Page < 1 {
		return 1
	}
	return p.Page
}

func enqueueNextPage(ctx context.Context, enqueuer *Enqueuer, kind queue.JobKind, page int, correlationID string) error {
	_, err := enqueuer.Enqueue(ctx, kind,
		queue.SyncPagePayload{Page: page + 1},
		queue.WithCorrelationID(correlationID),
	)
	return err
}

var (
	_ Worker = (*ContactSyncWorker)(nil)
	_ Worker = (*PurchaseSyncWorker)(nil)
	_ Worker = (*ProductSyncWorker)(nil)
)
