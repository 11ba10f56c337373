package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/rl1809/ims/internal/core/domain"
)

// memStore implements every repository port in memory. A single mutex plays
// the role of the database transaction: mutations are all-or-nothing and
// serialized, matching the contracts in internal/port.
type memStore struct {
	mu        sync.Mutex
	stocks    map[string]domain.Stock
	suppliers map[string]domain.Supplier
	sellers   map[string]domain.Seller
	purchases []domain.Purchase
	orders    map[string]domain.SupplierOrder
	audit     []domain.AuditEntry
}

func newMemStore() *memStore {
	return &memStore{
		stocks:    make(map[string]domain.Stock),
		suppliers: make(map[string]domain.Supplier),
		sellers:   make(map[string]domain.Seller),
		orders:    make(map[string]domain.SupplierOrder),
	}
}

func (m *memStore) auditCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.audit)
}

func (m *memStore) stockAmount(id string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stocks[id].Amount
}

// --- StockRepository ---

func (m *memStore) GetStock(ctx context.Context, id string) (*domain.Stock, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stock, ok := m.stocks[id]
	if !ok {
		return nil, nil
	}
	return &stock, nil
}

func (m *memStore) GetStocksByIDs(ctx context.Context, ids []string) ([]domain.Stock, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var stocks []domain.Stock
	for _, id := range ids {
		if stock, ok := m.stocks[id]; ok {
			stocks = append(stocks, stock)
		}
	}
	return stocks, nil
}

func (m *memStore) ListStocks(ctx context.Context) ([]domain.Stock, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var stocks []domain.Stock
	for _, stock := range m.stocks {
		stocks = append(stocks, stock)
	}
	sort.Slice(stocks, func(i, j int) bool { return stocks[i].Name < stocks[j].Name })
	return stocks, nil
}

func (m *memStore) CreateStock(ctx context.Context, stock domain.Stock, entry domain.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stocks[stock.ID] = stock
	m.audit = append(m.audit, entry)
	return nil
}

func (m *memStore) UpdateStock(ctx context.Context, stock domain.Stock, entry domain.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.stocks[stock.ID]; !ok {
		return fmt.Errorf("%w: stock %s", domain.ErrNotFound, stock.ID)
	}
	m.stocks[stock.ID] = stock
	m.audit = append(m.audit, entry)
	return nil
}

func (m *memStore) DeleteStock(ctx context.Context, id string, entry domain.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.stocks[id]; !ok {
		return fmt.Errorf("%w: stock %s", domain.ErrNotFound, id)
	}
	delete(m.stocks, id)
	m.audit = append(m.audit, entry)
	return nil
}

func (m *memStore) IncrementStock(ctx context.Context, id string, amount int, entry domain.AuditEntry) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stock, ok := m.stocks[id]
	if !ok {
		return 0, fmt.Errorf("%w: stock %s", domain.ErrNotFound, id)
	}
	stock.Amount += amount
	m.stocks[id] = stock
	m.audit = append(m.audit, entry)
	return stock.Amount, nil
}

// --- SupplierRepository ---

func (m *memStore) CreateSupplier(ctx context.Context, supplier domain.Supplier, entry domain.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.suppliers[supplier.ID] = supplier
	m.audit = append(m.audit, entry)
	return nil
}

func (m *memStore) GetSupplier(ctx context.Context, id string) (*domain.Supplier, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	supplier, ok := m.suppliers[id]
	if !ok {
		return nil, nil
	}
	return &supplier, nil
}

func (m *memStore) SupplierNameExists(ctx context.Context, name string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, supplier := range m.suppliers {
		if strings.EqualFold(supplier.Name, name) {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) ListSuppliers(ctx context.Context) ([]domain.Supplier, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var suppliers []domain.Supplier
	for _, supplier := range m.suppliers {
		suppliers = append(suppliers, supplier)
	}
	sort.Slice(suppliers, func(i, j int) bool { return suppliers[i].Name < suppliers[j].Name })
	return suppliers, nil
}

// --- SellerRepository ---

func (m *memStore) CreateSeller(ctx context.Context, seller domain.Seller, entry domain.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sellers[seller.ID] = seller
	m.audit = append(m.audit, entry)
	return nil
}

func (m *memStore) GetSeller(ctx context.Context, id string) (*domain.Seller, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seller, ok := m.sellers[id]
	if !ok {
		return nil, nil
	}
	return &seller, nil
}

func (m *memStore) SellerNameExists(ctx context.Context, name string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, seller := range m.sellers {
		if strings.EqualFold(seller.Name, name) {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) UpdateSellerStatus(ctx context.Context, seller domain.Seller, entry domain.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sellers[seller.ID]; !ok {
		return fmt.Errorf("%w: seller %s", domain.ErrNotFound, seller.ID)
	}
	m.sellers[seller.ID] = seller
	m.audit = append(m.audit, entry)
	return nil
}

func (m *memStore) ListSellers(ctx context.Context) ([]domain.Seller, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var sellers []domain.Seller
	for _, seller := range m.sellers {
		sellers = append(sellers, seller)
	}
	sort.Slice(sellers, func(i, j int) bool { return sellers[i].Name < sellers[j].Name })
	return sellers, nil
}

// --- PurchaseRepository ---

func (m *memStore) CreatePurchase(ctx context.Context, purchase domain.Purchase, entry domain.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Stage all decrements before applying any, like the SQL transaction.
	staged := make(map[string]domain.Stock)
	for _, item := range purchase.Items {
		stock, ok := staged[item.StockID]
		if !ok {
			stock, ok = m.stocks[item.StockID]
			if !ok {
				return fmt.Errorf("%w: stock %s", domain.ErrInsufficientStock, item.StockID)
			}
		}
		if stock.Amount < item.Amount {
			return fmt.Errorf("%w: stock %s", domain.ErrInsufficientStock, item.StockID)
		}
		stock.Amount -= item.Amount
		staged[item.StockID] = stock
	}
	for id, stock := range staged {
		m.stocks[id] = stock
	}

	m.purchases = append(m.purchases, purchase)
	m.audit = append(m.audit, entry)
	return nil
}

func (m *memStore) ListPurchases(ctx context.Context) ([]domain.Purchase, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	purchases := make([]domain.Purchase, len(m.purchases))
	copy(purchases, m.purchases)
	return purchases, nil
}

func (m *memStore) GetPurchaseInvoice(ctx context.Context, id string) (*domain.PurchaseInvoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, purchase := range m.purchases {
		if purchase.ID != id {
			continue
		}
		invoice := &domain.PurchaseInvoice{
			PurchaseID:   purchase.ID,
			SellerName:   m.sellers[purchase.SellerID].Name,
			BuyerName:    purchase.BuyerName,
			Status:       purchase.Status,
			PurchaseDate: purchase.PurchaseDate,
		}
		for _, item := range purchase.Items {
			line := domain.InvoiceLine{StockName: "unknown stock", Amount: item.Amount}
			if stock, ok := m.stocks[item.StockID]; ok {
				line.StockName = stock.Name
				line.SellPrice = stock.SellPrice
			}
			invoice.Lines = append(invoice.Lines, line)
		}
		return invoice, nil
	}
	return nil, nil
}

// --- SupplierOrderRepository ---

func (m *memStore) CreateOrder(ctx context.Context, order domain.SupplierOrder, entry domain.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[order.ID] = order
	m.audit = append(m.audit, entry)
	return nil
}

func (m *memStore) GetOrder(ctx context.Context, id string) (*domain.SupplierOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[id]
	if !ok {
		return nil, nil
	}
	order.Items = append([]domain.OrderItem(nil), order.Items...)
	return &order, nil
}

func (m *memStore) FinalizeOrder(ctx context.Context, order domain.SupplierOrder, applyStock bool, entry domain.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.orders[order.ID]
	if !ok || existing.Status != domain.OrderStatusPending {
		return fmt.Errorf("%w: order %s is not pending", domain.ErrInvalidTransition, order.ID)
	}

	existing.Status = order.Status
	existing.StatusChangedAt = order.StatusChangedAt
	m.orders[order.ID] = existing

	if applyStock {
		for _, item := range existing.Items {
			// Stock deleted after order creation is skipped.
			if stock, ok := m.stocks[item.StockID]; ok {
				stock.Amount += item.Amount
				m.stocks[item.StockID] = stock
			}
		}
	}

	m.audit = append(m.audit, entry)
	return nil
}

func (m *memStore) ListOrders(ctx context.Context) ([]domain.SupplierOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var orders []domain.SupplierOrder
	for _, order := range m.orders {
		orders = append(orders, order)
	}
	sort.Slice(orders, func(i, j int) bool {
		a, b := orders[i], orders[j]
		if a.Status.StatusOrdinal() != b.Status.StatusOrdinal() {
			return a.Status.StatusOrdinal() < b.Status.StatusOrdinal()
		}
		at, bt := a.CreatedAt, b.CreatedAt
		if a.StatusChangedAt != nil {
			at = *a.StatusChangedAt
		}
		if b.StatusChangedAt != nil {
			bt = *b.StatusChangedAt
		}
		return at.After(bt)
	})
	return orders, nil
}

// --- AuditRepository ---

func (m *memStore) ListAuditLog(ctx context.Context) ([]domain.AuditEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entries := make([]domain.AuditEntry, 0, len(m.audit))
	for i := len(m.audit) - 1; i >= 0; i-- {
		entries = append(entries, m.audit[i])
	}
	return entries, nil
}

// Mock CacheRepository
type mockCache struct {
	mu   sync.Mutex
	keys map[string]bool
}

func newMockCache() *mockCache {
	return &mockCache{keys: make(map[string]bool)}
}

func (c *mockCache) SetIdempotency(ctx context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.keys[key] {
		return false, nil
	}
	c.keys[key] = true
	return true, nil
}

func (c *mockCache) ReleaseIdempotency(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.keys, key)
	return nil
}
