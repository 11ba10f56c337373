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

// SupplierOrderService owns the replenishment order lifecycle. Orders are
// created pending and leave that state exactly once, to received or canceled.
type SupplierOrderService struct {
	orders    port.SupplierOrderRepository
	suppliers port.SupplierRepository
	stocks    port.StockRepository
	logger    *zap.Logger
}

func NewSupplierOrderService(orders port.SupplierOrderRepository, suppliers port.SupplierRepository, stocks port.StockRepository, logger *zap.Logger) *SupplierOrderService {
	return &SupplierOrderService{
		orders:    orders,
		suppliers: suppliers,
		stocks:    stocks,
		logger:    logger,
	}
}

type OrderLine struct {
	StockID string
	Amount  int
}

func (s *SupplierOrderService) CreateOrder(ctx context.Context, supplierID string, lines []OrderLine) (string, error) {
	if len(lines) == 0 {
		return "", fmt.Errorf("%w: at least one item must be included in the order", ErrValidation)
	}
	for _, line := range lines {
		if line.Amount <= 0 {
			return "", fmt.Errorf("%w: all items must have an amount greater than zero", ErrValidation)
		}
	}

	supplier, err := s.suppliers.GetSupplier(ctx, supplierID)
	if err != nil {
		return "", fmt.Errorf("load supplier: %w", err)
	}
	if supplier == nil {
		return "", fmt.Errorf("%w: supplier does not exist", ErrValidation)
	}

	var ids []string
	seen := make(map[string]bool)
	for _, line := range lines {
		if !seen[line.StockID] {
			seen[line.StockID] = true
			ids = append(ids, line.StockID)
		}
	}
	stocks, err := s.stocks.GetStocksByIDs(ctx, ids)
	if err != nil {
		return "", fmt.Errorf("load stocks: %w", err)
	}
	found := make(map[string]bool, len(stocks))
	for _, stock := range stocks {
		found[stock.ID] = true
	}
	for _, id := range ids {
		if !found[id] {
			return "", fmt.Errorf("%w: stock %s does not exist", ErrValidation, id)
		}
	}

	order := domain.SupplierOrder{
		ID:         uuid.NewString(),
		SupplierID: supplierID,
		Status:     domain.OrderStatusPending,
		CreatedAt:  time.Now().UTC(),
		Items:      make([]domain.OrderItem, 0, len(lines)),
	}
	for _, line := range lines {
		order.Items = append(order.Items, domain.OrderItem{
			StockID: line.StockID,
			Amount:  line.Amount,
		})
	}

	entry := domain.NewAuditEntry(domain.AuditSupplierOrderAdded,
		orderDescription(order, supplier.Name))

	if err := s.orders.CreateOrder(ctx, order, entry); err != nil {
		return "", fmt.Errorf("create supplier order: %w", err)
	}

	s.logger.Info("supplier order created",
		zap.String("order_id", order.ID),
		zap.String("supplier_id", supplierID),
		zap.Int("items", len(order.Items)),
	)
	return order.ID, nil
}

// MarkReceived transitions a pending order to received and credits every line
// item back to the ledger. Stock deleted after order creation is skipped.
func (s *SupplierOrderService) MarkReceived(ctx context.Context, orderID string) error {
	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return fmt.Errorf("load supplier order: %w", err)
	}
	if order == nil {
		return fmt.Errorf("%w: order %s", domain.ErrNotFound, orderID)
	}

	received, err := order.WithStatus(domain.OrderStatusReceived, time.Now())
	if err != nil {
		return err
	}

	entry := domain.NewAuditEntry(domain.AuditSupplierOrderReceived,
		fmt.Sprintf("Supplier order %s received from supplier %s.", orderID, order.SupplierID))

	if err := s.orders.FinalizeOrder(ctx, received, true, entry); err != nil {
		return fmt.Errorf("finalize supplier order: %w", err)
	}

	s.logger.Info("supplier order received", zap.String("order_id", orderID))
	return nil
}

// CancelOrder transitions a pending order to canceled without touching stock.
func (s *SupplierOrderService) CancelOrder(ctx context.Context, orderID string) error {
	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return fmt.Errorf("load supplier order: %w", err)
	}
	if order == nil {
		return fmt.Errorf("%w: order %s", domain.ErrNotFound, orderID)
	}

	canceled, err := order.WithStatus(domain.OrderStatusCanceled, time.Now())
	if err != nil {
		return err
	}

	entry := domain.NewAuditEntry(domain.AuditSupplierOrderCanceled,
		fmt.Sprintf("Supplier order %s canceled for supplier %s.", orderID, order.SupplierID))

	if err := s.orders.FinalizeOrder(ctx, canceled, false, entry); err != nil {
		return fmt.Errorf("finalize supplier order: %w", err)
	}

	s.logger.Info("supplier order canceled", zap.String("order_id", orderID))
	return nil
}

func (s *SupplierOrderService) ListOrders(ctx context.Context) ([]domain.SupplierOrder, error) {
	return s.orders.ListOrders(ctx)
}

func orderDescription(o domain.SupplierOrder, supplierName string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Supplier order %s created for supplier %s:", o.ID, supplierName)
	for _, item := range o.Items {
		fmt.Fprintf(&b, "\nstock %s x %d", item.StockID, item.Amount)
	}
	return b.String()
}
