package port

import (
	"context"

	"github.com/rl1809/ims/internal/core/domain"
)

type StockRepository interface {
	// GetStock returns nil when the id does not exist.
	GetStock(ctx context.Context, id string) (*domain.Stock, error)

	// GetStocksByIDs resolves a batch of ids in one read; missing ids are
	// simply absent from the result.
	GetStocksByIDs(ctx context.Context, ids []string) ([]domain.Stock, error)

	ListStocks(ctx context.Context) ([]domain.Stock, error)

	CreateStock(ctx context.Context, stock domain.Stock, entry domain.AuditEntry) error

	UpdateStock(ctx context.Context, stock domain.Stock, entry domain.AuditEntry) error

	DeleteStock(ctx context.Context, id string, entry domain.AuditEntry) error

	// IncrementStock adds amount unconditionally and returns the new quantity,
	// committing the audit entry in the same transaction. Returns
	// domain.ErrNotFound for an unknown id.
	IncrementStock(ctx context.Context, id string, amount int, entry domain.AuditEntry) (int, error)
}

type SupplierRepository interface {
	CreateSupplier(ctx context.Context, supplier domain.Supplier, entry domain.AuditEntry) error

	// GetSupplier returns nil when the id does not exist.
	GetSupplier(ctx context.Context, id string) (*domain.Supplier, error)

	// SupplierNameExists matches case-insensitively.
	SupplierNameExists(ctx context.Context, name string) (bool, error)

	ListSuppliers(ctx context.Context) ([]domain.Supplier, error)
}

type SellerRepository interface {
	CreateSeller(ctx context.Context, seller domain.Seller, entry domain.AuditEntry) error

	// GetSeller returns nil when the id does not exist.
	GetSeller(ctx context.Context, id string) (*domain.Seller, error)

	SellerNameExists(ctx context.Context, name string) (bool, error)

	UpdateSellerStatus(ctx context.Context, seller domain.Seller, entry domain.AuditEntry) error

	ListSellers(ctx context.Context) ([]domain.Seller, error)
}

type PurchaseRepository interface {
	// CreatePurchase persists the purchase, its line items, every stock
	// decrement, and the audit entry as one transaction. A decrement that
	// would drive a quantity negative aborts the whole transaction with
	// domain.ErrInsufficientStock.
	CreatePurchase(ctx context.Context, purchase domain.Purchase, entry domain.AuditEntry) error

	ListPurchases(ctx context.Context) ([]domain.Purchase, error)

	// GetPurchaseInvoice returns nil when the purchase does not exist.
	GetPurchaseInvoice(ctx context.Context, id string) (*domain.PurchaseInvoice, error)
}

type SupplierOrderRepository interface {
	CreateOrder(ctx context.Context, order domain.SupplierOrder, entry domain.AuditEntry) error

	// GetOrder returns the order with its line items, nil when missing.
	GetOrder(ctx context.Context, id string) (*domain.SupplierOrder, error)

	// FinalizeOrder commits a pending-to-terminal transition together with the
	// audit entry and, when applyStock is set, one increment per line item.
	// Line items whose stock no longer exists are skipped. Losing a concurrent
	// transition returns domain.ErrInvalidTransition.
	FinalizeOrder(ctx context.Context, order domain.SupplierOrder, applyStock bool, entry domain.AuditEntry) error

	// ListOrders sorts by status ordinal, then most recent status change
	// (or creation) first within each status group.
	ListOrders(ctx context.Context) ([]domain.SupplierOrder, error)
}

type AuditRepository interface {
	// ListAuditLog returns entries newest first.
	ListAuditLog(ctx context.Context) ([]domain.AuditEntry, error)
}
