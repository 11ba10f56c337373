package service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rl1809/ims/internal/core/domain"
)

func seedSupplier(store *memStore, id, name string) {
	store.suppliers[id] = domain.Supplier{ID: id, Name: name, CreatedAt: time.Now().UTC()}
}

func seedStock(store *memStore, id, name string, amount int, sellPrice float64) {
	store.stocks[id] = domain.Stock{
		ID:         id,
		Name:       name,
		SupplierID: "supplier-1",
		Amount:     amount,
		SellPrice:  sellPrice,
		CreatedAt:  time.Now().UTC(),
		UpdatedAt:  time.Now().UTC(),
	}
}

func seedSeller(store *memStore, id, name string, status domain.SellerStatus) {
	store.sellers[id] = domain.Seller{ID: id, Name: name, Status: status, CreatedAt: time.Now().UTC()}
}

func newPurchaseService(store *memStore, cache *mockCache) *PurchaseService {
	if cache == nil {
		return NewPurchaseService(store, store, store, nil, zap.NewNop())
	}
	return NewPurchaseService(store, store, store, cache, zap.NewNop())
}

func TestCreatePurchase_Success(t *testing.T) {
	store := newMemStore()
	seedSupplier(store, "supplier-1", "Acme")
	seedSeller(store, "seller-1", "Alice", domain.SellerStatusActive)
	seedStock(store, "widget-1", "Widget", 10, 5.00)
	seedStock(store, "gadget-1", "Gadget", 1, 12.50)

	svc := newPurchaseService(store, nil)

	id, err := svc.CreatePurchase(context.Background(), "", "seller-1", "John", []PurchaseLine{
		{StockID: "widget-1", Amount: 2},
		{StockID: "gadget-1", Amount: 1},
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	assert.Equal(t, 8, store.stockAmount("widget-1"))
	assert.Equal(t, 0, store.stockAmount("gadget-1"))

	require.Equal(t, 1, store.auditCount())
	entry := store.audit[0]
	assert.Equal(t, domain.AuditStockSold, entry.Type)
	assert.Contains(t, entry.Description, "Alice")
	assert.Contains(t, entry.Description, "John")
	assert.Contains(t, entry.Description, "Widget (id widget-1) x 2")
	assert.Contains(t, entry.Description, "Gadget (id gadget-1) x 1")
}

func TestCreatePurchase_EmptyBuyerName(t *testing.T) {
	store := newMemStore()
	svc := newPurchaseService(store, nil)

	_, err := svc.CreatePurchase(context.Background(), "", "seller-1", "   ", []PurchaseLine{
		{StockID: "widget-1", Amount: 1},
	})
	require.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, 0, store.auditCount())
}

func TestCreatePurchase_NoItems(t *testing.T) {
	store := newMemStore()
	seedSeller(store, "seller-1", "Alice", domain.SellerStatusActive)
	svc := newPurchaseService(store, nil)

	_, err := svc.CreatePurchase(context.Background(), "", "seller-1", "John", nil)
	require.ErrorIs(t, err, ErrValidation)
}

func TestCreatePurchase_NonPositiveAmount(t *testing.T) {
	store := newMemStore()
	seedSeller(store, "seller-1", "Alice", domain.SellerStatusActive)
	seedStock(store, "widget-1", "Widget", 10, 5.00)
	svc := newPurchaseService(store, nil)

	_, err := svc.CreatePurchase(context.Background(), "", "seller-1", "John", []PurchaseLine{
		{StockID: "widget-1", Amount: 0},
	})
	require.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, 10, store.stockAmount("widget-1"))
}

func TestCreatePurchase_SellerNotFound(t *testing.T) {
	store := newMemStore()
	svc := newPurchaseService(store, nil)

	_, err := svc.CreatePurchase(context.Background(), "", "missing", "John", []PurchaseLine{
		{StockID: "widget-1", Amount: 1},
	})
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCreatePurchase_InactiveSeller(t *testing.T) {
	store := newMemStore()
	seedSeller(store, "seller-1", "Bob", domain.SellerStatusInactive)
	seedStock(store, "widget-1", "Widget", 10, 5.00)
	svc := newPurchaseService(store, nil)

	_, err := svc.CreatePurchase(context.Background(), "", "seller-1", "John", []PurchaseLine{
		{StockID: "widget-1", Amount: 1},
	})
	require.ErrorIs(t, err, ErrInactiveSeller)

	// No purchase row, no stock change, no audit entry.
	purchases, _ := store.ListPurchases(context.Background())
	assert.Empty(t, purchases)
	assert.Equal(t, 10, store.stockAmount("widget-1"))
	assert.Equal(t, 0, store.auditCount())
}

func TestCreatePurchase_UnknownStock(t *testing.T) {
	store := newMemStore()
	seedSeller(store, "seller-1", "Alice", domain.SellerStatusActive)
	seedStock(store, "widget-1", "Widget", 10, 5.00)
	svc := newPurchaseService(store, nil)

	_, err := svc.CreatePurchase(context.Background(), "", "seller-1", "John", []PurchaseLine{
		{StockID: "widget-1", Amount: 1},
		{StockID: "missing-1", Amount: 1},
	})
	require.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "missing-1")
	assert.Equal(t, 10, store.stockAmount("widget-1"))
}

func TestCreatePurchase_InsufficientStock_AllOrNothing(t *testing.T) {
	store := newMemStore()
	seedSeller(store, "seller-1", "Alice", domain.SellerStatusActive)
	seedStock(store, "stock-a", "Alpha", 5, 1.00)
	seedStock(store, "stock-b", "Beta", 3, 1.00)
	svc := newPurchaseService(store, nil)

	_, err := svc.CreatePurchase(context.Background(), "", "seller-1", "John", []PurchaseLine{
		{StockID: "stock-a", Amount: 2},
		{StockID: "stock-b", Amount: 10},
	})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Contains(t, err.Error(), "Beta")
	assert.Contains(t, err.Error(), "has 3, requested 10")

	// Neither line item decremented.
	assert.Equal(t, 5, store.stockAmount("stock-a"))
	assert.Equal(t, 3, store.stockAmount("stock-b"))
	assert.Equal(t, 0, store.auditCount())
}

func TestCreatePurchase_DuplicateStockLines(t *testing.T) {
	store := newMemStore()
	seedSeller(store, "seller-1", "Alice", domain.SellerStatusActive)
	seedStock(store, "widget-1", "Widget", 5, 1.00)
	svc := newPurchaseService(store, nil)

	// Each line fits on its own; the combined demand does not.
	_, err := svc.CreatePurchase(context.Background(), "", "seller-1", "John", []PurchaseLine{
		{StockID: "widget-1", Amount: 3},
		{StockID: "widget-1", Amount: 3},
	})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, 5, store.stockAmount("widget-1"))
}

func TestCreatePurchase_DuplicateRequest(t *testing.T) {
	store := newMemStore()
	seedSeller(store, "seller-1", "Alice", domain.SellerStatusActive)
	seedStock(store, "widget-1", "Widget", 10, 5.00)
	cache := newMockCache()
	svc := newPurchaseService(store, cache)

	_, err := svc.CreatePurchase(context.Background(), "req-1", "seller-1", "John", []PurchaseLine{
		{StockID: "widget-1", Amount: 1},
	})
	require.NoError(t, err)

	_, err = svc.CreatePurchase(context.Background(), "req-1", "seller-1", "John", []PurchaseLine{
		{StockID: "widget-1", Amount: 1},
	})
	require.ErrorIs(t, err, ErrDuplicateRequest)

	// Stock decremented exactly once.
	assert.Equal(t, 9, store.stockAmount("widget-1"))
	assert.Equal(t, 1, store.auditCount())
}

func TestCreatePurchase_IdempotencyReleasedOnFailure(t *testing.T) {
	store := newMemStore()
	seedSeller(store, "seller-1", "Alice", domain.SellerStatusActive)
	seedStock(store, "widget-1", "Widget", 0, 5.00)
	cache := newMockCache()
	svc := newPurchaseService(store, cache)

	_, err := svc.CreatePurchase(context.Background(), "req-1", "seller-1", "John", []PurchaseLine{
		{StockID: "widget-1", Amount: 1},
	})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	// The failed request id must be retryable.
	store.stocks["widget-1"] = domain.Stock{ID: "widget-1", Name: "Widget", Amount: 1}
	_, err = svc.CreatePurchase(context.Background(), "req-1", "seller-1", "John", []PurchaseLine{
		{StockID: "widget-1", Amount: 1},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, store.stockAmount("widget-1"))
}

func TestCreatePurchase_Concurrent(t *testing.T) {
	initialStock := 20
	totalRequests := 50

	store := newMemStore()
	seedSeller(store, "seller-1", "Alice", domain.SellerStatusActive)
	seedStock(store, "widget-1", "Widget", initialStock, 5.00)
	svc := newPurchaseService(store, nil)

	var successCount atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < totalRequests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.CreatePurchase(context.Background(), "", "seller-1", "John", []PurchaseLine{
				{StockID: "widget-1", Amount: 1},
			})
			if err == nil {
				successCount.Add(1)
			}
		}()
	}

	wg.Wait()

	assert.Equal(t, int32(initialStock), successCount.Load())
	assert.Equal(t, 0, store.stockAmount("widget-1"))
	// One audit entry per successful purchase, none for the rejected ones.
	assert.Equal(t, initialStock, store.auditCount())
}

func TestGetInvoice(t *testing.T) {
	store := newMemStore()
	seedSupplier(store, "supplier-1", "Acme")
	seedSeller(store, "seller-1", "Alice", domain.SellerStatusActive)
	seedStock(store, "widget-1", "Widget", 10, 5.00)
	svc := newPurchaseService(store, nil)

	id, err := svc.CreatePurchase(context.Background(), "", "seller-1", "John", []PurchaseLine{
		{StockID: "widget-1", Amount: 2},
	})
	require.NoError(t, err)

	invoice, err := svc.GetInvoice(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Alice", invoice.SellerName)
	assert.Equal(t, "John", invoice.BuyerName)
	assert.Equal(t, domain.PurchaseStatusPurchased, invoice.Status)
	require.Len(t, invoice.Lines, 1)
	assert.Equal(t, "Widget", invoice.Lines[0].StockName)
	assert.Equal(t, 2, invoice.Lines[0].Amount)
	assert.Equal(t, 5.00, invoice.Lines[0].SellPrice)
}

func TestGetInvoice_NotFound(t *testing.T) {
	store := newMemStore()
	svc := newPurchaseService(store, nil)

	_, err := svc.GetInvoice(context.Background(), "missing")
	require.ErrorIs(t, err, domain.ErrNotFound)
}
