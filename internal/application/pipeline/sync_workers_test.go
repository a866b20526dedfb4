package pipeline

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/santabrisa/backend/internal/domain/billing"
	"github.com/santabrisa/backend/internal/domain/catalog"
	"github.com/santabrisa/backend/internal/domain/integration"
	"github.com/santabrisa/backend/internal/domain/partner"
	"github.com/santabrisa/backend/internal/domain/queue"
	"github.com/santabrisa/backend/internal/domain/shared"
	"github.com/santabrisa/backend/internal/infrastructure/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func syncJob(page int) *queue.Job {
	return queue.NewJob(queue.JobKindSyncContacts, mustPayload(queue.SyncPagePayload{Page: page}))
}

func fullContactPage() []integration.HoldedContact {
	contacts := make([]integration.HoldedContact, integration.HoldedPageSize)
	for i := range contacts {
		contacts[i] = integration.HoldedContact{
			ID:    fmt.Sprintf("contact-%d", i),
			Name:  fmt.Sprintf("Cliente %d", i),
			Email: fmt.Sprintf("cliente%d@example.com", i),
		}
	}
	return contacts
}

func TestSyncContactsFullPageChainsNextPage(t *testing.T) {
	holded := new(MockHoldedClient)
	accounts := new(MockAccountRepository)
	jobs := persistence.NewInMemoryJobRepository()
	worker := NewContactSyncWorker(holded, accounts, NewEnqueuer(jobs, zap.NewNop()), zap.NewNop())

	holded.On("FetchContacts", mock.Anything, 3).Return(fullContactPage(), nil)
	accounts.On("FindByHoldedContactID", mock.Anything, mock.Anything).Return(nil, shared.ErrNotFound)
	accounts.On("FindByEmail", mock.Anything, mock.Anything).Return(nil, shared.ErrNotFound)
	accounts.On("Save", mock.Anything, mock.Anything).Return(nil)

	_, err := worker.Execute(context.Background(),
		queue.NewJob(queue.JobKindSyncContacts, mustPayload(queue.SyncPagePayload{Page: 3})))
	require.NoError(t, err)

	due, err := jobs.ClaimDue(context.Background(), time.Now(), 10)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, queue.JobKindSyncContacts, due[0].Kind)

	var next queue.SyncPagePayload
	require.NoError(t, queue.DecodePayload(due[0].Payload, &next))
	assert.Equal(t, 4, next.Page)
}

func TestSyncContactsShortPageEndsChain(t *testing.T) {
	holded := new(MockHoldedClient)
	accounts := new(MockAccountRepository)
	jobs := persistence.NewInMemoryJobRepository()
	worker := NewContactSyncWorker(holded, accounts, NewEnqueuer(jobs, zap.NewNop()), zap.NewNop())

	holded.On("FetchContacts", mock.Anything, 1).Return([]integration.HoldedContact{
		{ID: "contact-1", Name: "Bar Manolo", Email: "manolo@example.com"},
	}, nil)
	accounts.On("FindByHoldedContactID", mock.Anything, "contact-1").Return(nil, shared.ErrNotFound)
	accounts.On("FindByEmail", mock.Anything, "manolo@example.com").Return(nil, shared.ErrNotFound)

	var created *partner.Account
	accounts.On("Save", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		created = args.Get(1).(*partner.Account)
	}).Return(nil)

	_, err := worker.Execute(context.Background(), syncJob(1))
	require.NoError(t, err)

	require.NotNil(t, created)
	assert.Equal(t, "contact-1", created.HoldedContactID)

	due, err := jobs.ClaimDue(context.Background(), time.Now().Add(time.Hour), 10)
	require.NoError(t, err)
	assert.Empty(t, due, "short page must not enqueue a next page")
}

func TestSyncContactsRefreshesLinkedAccount(t *testing.T) {
	holded := new(MockHoldedClient)
	accounts := new(MockAccountRepository)
	jobs := persistence.NewInMemoryJobRepository()
	worker := NewContactSyncWorker(holded, accounts, NewEnqueuer(jobs, zap.NewNop()), zap.NewNop())

	account := testAccount(t)
	account.HoldedContactID = "contact-1"

	holded.On("FetchContacts", mock.Anything, 1).Return([]integration.HoldedContact{
		{ID: "contact-1", Name: "Bar Manolo SL", Email: "nuevo@example.com", Phone: "+34911222333"},
	}, nil)
	accounts.On("FindByHoldedContactID", mock.Anything, "contact-1").Return(account, nil)
	accounts.On("Update", mock.Anything, account).Return(nil)

	_, err := worker.Execute(context.Background(), syncJob(1))
	require.NoError(t, err)

	assert.Equal(t, "Bar Manolo SL", account.Name)
	assert.Equal(t, "nuevo@example.com", account.Email)
	assert.Equal(t, "+34911222333", account.Phone)
	accounts.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestSyncContactsSkipsUnusableEntries(t *testing.T) {
	holded := new(MockHoldedClient)
	accounts := new(MockAccountRepository)
	jobs := persistence.NewInMemoryJobRepository()
	worker := NewContactSyncWorker(holded, accounts, NewEnqueuer(jobs, zap.NewNop()), zap.NewNop())

	holded.On("FetchContacts", mock.Anything, 1).Return([]integration.HoldedContact{
		{ID: "", Name: "Huerfano"},
		{ID: "contact-2", Name: ""},
	}, nil)
	accounts.On("FindByHoldedContactID", mock.Anything, "contact-2").Return(nil, shared.ErrNotFound)

	_, err := worker.Execute(context.Background(), syncJob(1))
	require.NoError(t, err, "bad individual entries must not fail the page")
	accounts.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestSyncPurchasesUpsertsMirrors(t *testing.T) {
	holded := new(MockHoldedClient)
	purchases := new(MockPurchaseDocumentRepository)
	jobs := persistence.NewInMemoryJobRepository()
	worker := NewPurchaseSyncWorker(holded, purchases, NewEnqueuer(jobs, zap.NewNop()), zap.NewNop())

	issued := time.Date(2026, 8, 14, 0, 0, 0, 0, time.UTC)
	holded.On("FetchPurchases", mock.Anything, 1).Return([]integration.HoldedDocument{
		{ID: "doc-55", DocType: "purchase", Contact: "Vidrios del Norte", Date: issued.Unix(), Total: 1240.80, Currency: "EUR"},
	}, nil)

	var upserted *billing.PurchaseDocument
	purchases.On("Upsert", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		upserted = args.Get(1).(*billing.PurchaseDocument)
	}).Return(nil)

	_, err := worker.Execute(context.Background(),
		queue.NewJob(queue.JobKindSyncPurchases, mustPayload(queue.SyncPagePayload{Page: 1})))
	require.NoError(t, err)

	require.NotNil(t, upserted)
	assert.Equal(t, "doc-55", upserted.HoldedDocumentID)
	assert.Equal(t, "Vidrios del Norte", upserted.ContactName)
	assert.Equal(t, "1240.8", upserted.Total.String())
	assert.True(t, upserted.IssuedAt.Equal(issued))
}

func TestSyncProductsSkipsEntriesWithoutSKU(t *testing.T) {
	holded := new(MockHoldedClient)
	products := new(MockProductRepository)
	jobs := persistence.NewInMemoryJobRepository()
	worker := NewProductSyncWorker(holded, products, NewEnqueuer(jobs, zap.NewNop()), zap.NewNop())

	holded.On("FetchProducts", mock.Anything, 1).Return([]integration.HoldedProduct{
		{ID: "prod-1", Name: "Santa Brisa 750ml", SKU: "SB-750", Price: 18.50, Stock: 2400},
		{ID: "prod-2", Name: "Merchandising sin SKU"},
	}, nil)

	var upserted []*catalog.Product
	products.On("Upsert", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		upserted = append(upserted, args.Get(1).(*catalog.Product))
	}).Return(nil)

	_, err := worker.Execute(context.Background(),
		queue.NewJob(queue.JobKindSyncProducts, mustPayload(queue.SyncPagePayload{Page: 1})))
	require.NoError(t, err)

	require.Len(t, upserted, 1)
	assert.Equal(t, "SB-750", upserted[0].SKU)
	assert.Equal(t, "prod-1", upserted[0].HoldedProductID)
	assert.Equal(t, "18.5", upserted[0].Price.String())
}

func TestSyncWorkersDefaultToFirstPage(t *testing.T) {
	assert.Equal(t, 1, decodePage(nil))
	assert.Equal(t, 1, decodePage(mustPayload(queue.SyncPagePayload{Page: 0})))
	assert.Equal(t, 7, decodePage(mustPayload(queue.SyncPagePayload{Page: 7})))
}
