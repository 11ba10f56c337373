package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rl1809/ims/internal/core/domain"
	"github.com/rl1809/ims/internal/port"
)

// InventoryService manages suppliers and stock items and exposes the audit
// trail. Quantity edits here are direct field replacements; the purchase and
// supplier-order paths own transactional decrement/increment.
type InventoryService struct {
	stocks    port.StockRepository
	suppliers port.SupplierRepository
	audit     port.AuditRepository
	logger    *zap.Logger
}

func NewInventoryService(stocks port.StockRepository, suppliers port.SupplierRepository, audit port.AuditRepository, logger *zap.Logger) *InventoryService {
	return &InventoryService{
		stocks:    stocks,
		suppliers: suppliers,
		audit:     audit,
		logger:    logger,
	}
}

func (s *InventoryService) AddSupplier(ctx context.Context, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: supplier name is required", ErrValidation)
	}

	exists, err := s.suppliers.SupplierNameExists(ctx, name)
	if err != nil {
		return "", fmt.Errorf("check supplier name: %w", err)
	}
	if exists {
		return "", fmt.Errorf("%w: a supplier with that name already exists", ErrValidation)
	}

	supplier := domain.Supplier{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	entry := domain.NewAuditEntry(domain.AuditSupplierAdded, "Added new supplier: "+name)

	if err := s.suppliers.CreateSupplier(ctx, supplier, entry); err != nil {
		return "", fmt.Errorf("create supplier: %w", err)
	}

	s.logger.Info("supplier added", zap.String("supplier_id", supplier.ID), zap.String("name", name))
	return supplier.ID, nil
}

func (s *InventoryService) ListSuppliers(ctx context.Context) ([]domain.Supplier, error) {
	return s.suppliers.ListSuppliers(ctx)
}

type StockInput struct {
	Name         string
	SerialNumber string
	BuyPrice     float64
	SellPrice    float64
	SupplierID   string
	Amount       int
}

func (s *InventoryService) AddStock(ctx context.Context, in StockInput) (string, error) {
	if strings.TrimSpace(in.Name) == "" {
		return "", fmt.Errorf("%w: stock name is required", ErrValidation)
	}
	if in.Amount < 0 {
		return "", fmt.Errorf("%w: amount cannot be set to a negative number", ErrValidation)
	}

	supplier, err := s.suppliers.GetSupplier(ctx, in.SupplierID)
	if err != nil {
		return "", fmt.Errorf("load supplier: %w", err)
	}
	if supplier == nil {
		return "", fmt.Errorf("%w: supplier does not exist", ErrValidation)
	}

	now := time.Now().UTC()
	stock := domain.Stock{
		ID:           uuid.NewString(),
		Name:         in.Name,
		SerialNumber: in.SerialNumber,
		BuyPrice:     in.BuyPrice,
		SellPrice:    in.SellPrice,
		SupplierID:   in.SupplierID,
		Amount:       in.Amount,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	entry := domain.NewAuditEntry(domain.AuditStockAdded, "Added new stock: "+stock.Name)

	if err := s.stocks.CreateStock(ctx, stock, entry); err != nil {
		return "", fmt.Errorf("create stock: %w", err)
	}

	s.logger.Info("stock added", zap.String("stock_id", stock.ID), zap.String("name", stock.Name))
	return stock.ID, nil
}

// EditStock replaces the editable fields of a stock item. The audit entry
// lists only the fields whose values actually changed.
func (s *InventoryService) EditStock(ctx context.Context, stockID string, in StockInput) error {
	current, err := s.stocks.GetStock(ctx, stockID)
	if err != nil {
		return fmt.Errorf("load stock: %w", err)
	}
	if current == nil {
		return fmt.Errorf("%w: stock %s", domain.ErrNotFound, stockID)
	}

	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: stock name is required", ErrValidation)
	}
	if in.Amount < 0 {
		return fmt.Errorf("%w: amount cannot be set to a negative number", ErrValidation)
	}

	supplier, err := s.suppliers.GetSupplier(ctx, in.SupplierID)
	if err != nil {
		return fmt.Errorf("load supplier: %w", err)
	}
	if supplier == nil {
		return fmt.Errorf("%w: supplier does not exist", ErrValidation)
	}

	updated := *current
	updated.Name = in.Name
	updated.SerialNumber = in.SerialNumber
	updated.BuyPrice = in.BuyPrice
	updated.SellPrice = in.SellPrice
	updated.SupplierID = in.SupplierID
	updated.Amount = in.Amount
	updated.UpdatedAt = time.Now().UTC()

	description := "Edited stock: " + updated.Name
	if changes := domain.StockChanges(*current, updated); len(changes) > 0 {
		description += "\n" + strings.Join(changes, "\n")
	}
	entry := domain.NewAuditEntry(domain.AuditStockEdited, description)

	if err := s.stocks.UpdateStock(ctx, updated, entry); err != nil {
		return fmt.Errorf("update stock: %w", err)
	}

	s.logger.Info("stock edited", zap.String("stock_id", stockID))
	return nil
}

func (s *InventoryService) RemoveStock(ctx context.Context, stockID string) error {
	stock, err := s.stocks.GetStock(ctx, stockID)
	if err != nil {
		return fmt.Errorf("load stock: %w", err)
	}
	if stock == nil {
		return fmt.Errorf("%w: stock %s", domain.ErrNotFound, stockID)
	}

	entry := domain.NewAuditEntry(domain.AuditStockRemoved, "Removed stock: "+stock.Name)

	if err := s.stocks.DeleteStock(ctx, stockID, entry); err != nil {
		return fmt.Errorf("delete stock: %w", err)
	}

	s.logger.Info("stock removed", zap.String("stock_id", stockID), zap.String("name", stock.Name))
	return nil
}

// AddInventory credits units to a stock item outside the supplier-order flow
// and returns the new quantity.
func (s *InventoryService) AddInventory(ctx context.Context, stockID string, amount int) (int, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("%w: amount must be greater than zero", ErrValidation)
	}

	stock, err := s.stocks.GetStock(ctx, stockID)
	if err != nil {
		return 0, fmt.Errorf("load stock: %w", err)
	}
	if stock == nil {
		return 0, fmt.Errorf("%w: stock %s", domain.ErrNotFound, stockID)
	}

	entry := domain.NewAuditEntry(domain.AuditStockAddedInventory,
		fmt.Sprintf("Added %d unit(s) to stock %s (id %s).", amount, stock.Name, stockID))

	newAmount, err := s.stocks.IncrementStock(ctx, stockID, amount, entry)
	if err != nil {
		return 0, fmt.Errorf("increment stock: %w", err)
	}

	s.logger.Info("inventory added",
		zap.String("stock_id", stockID),
		zap.Int("amount", amount),
		zap.Int("new_amount", newAmount),
	)
	return newAmount, nil
}

func (s *InventoryService) ListStocks(ctx context.Context) ([]domain.Stock, error) {
	return s.stocks.ListStocks(ctx)
}

func (s *InventoryService) ListAuditLog(ctx context.Context) ([]domain.AuditEntry, error) {
	return s.audit.ListAuditLog(ctx)
}
