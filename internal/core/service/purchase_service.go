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

// PurchaseService validates and executes multi-item sales against the stock
// ledger. Every successful purchase commits the purchase row, all decrements,
// and one audit entry atomically; every failure leaves the ledger untouched.
type PurchaseService struct {
	purchases port.PurchaseRepository
	sellers   port.SellerRepository
	stocks    port.StockRepository
	cache     port.CacheRepository // optional; nil disables request deduplication
	logger    *zap.Logger
}

func NewPurchaseService(purchases port.PurchaseRepository, sellers port.SellerRepository, stocks port.StockRepository, cache port.CacheRepository, logger *zap.Logger) *PurchaseService {
	return &PurchaseService{
		purchases: purchases,
		sellers:   sellers,
		stocks:    stocks,
		cache:     cache,
		logger:    logger,
	}
}

type PurchaseLine struct {
	StockID string
	Amount  int
}

// CreatePurchase records a sale by an active seller. All line items are
// checked against currently loaded quantities before anything is written;
// a shortfall on any line rejects the whole purchase.
func (s *PurchaseService) CreatePurchase(ctx context.Context, requestID, sellerID, buyerName string, lines []PurchaseLine) (purchaseID string, err error) {
	buyerName = strings.TrimSpace(buyerName)
	if buyerName == "" {
		return "", fmt.Errorf("%w: buyer name is required", ErrValidation)
	}
	if len(lines) == 0 {
		return "", fmt.Errorf("%w: at least one item must be included in the purchase", ErrValidation)
	}
	for _, line := range lines {
		if line.Amount <= 0 {
			return "", fmt.Errorf("%w: all items must have an amount greater than zero", ErrValidation)
		}
	}

	if s.cache != nil && requestID != "" {
		key := "purchase:" + requestID
		ok, cacheErr := s.cache.SetIdempotency(ctx, key)
		if cacheErr != nil {
			return "", fmt.Errorf("idempotency check failed: %w", cacheErr)
		}
		if !ok {
			return "", ErrDuplicateRequest
		}
		defer func() {
			// Release the reservation on failure so the same request id can
			// be retried.
			if err != nil {
				if relErr := s.cache.ReleaseIdempotency(ctx, key); relErr != nil {
					s.logger.Warn("failed to release idempotency key",
						zap.String("key", key), zap.Error(relErr))
				}
			}
		}()
	}

	seller, err := s.sellers.GetSeller(ctx, sellerID)
	if err != nil {
		return "", fmt.Errorf("load seller: %w", err)
	}
	if seller == nil {
		return "", fmt.Errorf("%w: seller %s", domain.ErrNotFound, sellerID)
	}
	if seller.Status != domain.SellerStatusActive {
		return "", fmt.Errorf("%w: seller %s", ErrInactiveSeller, seller.Name)
	}

	// Aggregate per stock id so a stock referenced on two lines is checked
	// against its combined demand.
	requested := make(map[string]int)
	var ids []string
	for _, line := range lines {
		if _, seen := requested[line.StockID]; !seen {
			ids = append(ids, line.StockID)
		}
		requested[line.StockID] += line.Amount
	}

	stocks, err := s.stocks.GetStocksByIDs(ctx, ids)
	if err != nil {
		return "", fmt.Errorf("load stocks: %w", err)
	}
	byID := make(map[string]domain.Stock, len(stocks))
	for _, stock := range stocks {
		byID[stock.ID] = stock
	}

	for _, id := range ids {
		stock, ok := byID[id]
		if !ok {
			return "", fmt.Errorf("%w: stock %s does not exist", ErrValidation, id)
		}
		if stock.Amount < requested[id] {
			return "", fmt.Errorf("%w: stock %s (id %s) has %d, requested %d",
				domain.ErrInsufficientStock, stock.Name, stock.ID, stock.Amount, requested[id])
		}
	}

	purchase := domain.Purchase{
		ID:           uuid.NewString(),
		SellerID:     sellerID,
		BuyerName:    buyerName,
		Status:       domain.PurchaseStatusPurchased,
		PurchaseDate: time.Now().UTC(),
		Items:        make([]domain.PurchaseItem, 0, len(lines)),
	}
	for _, line := range lines {
		purchase.Items = append(purchase.Items, domain.PurchaseItem{
			StockID: line.StockID,
			Amount:  line.Amount,
		})
	}

	entry := domain.NewAuditEntry(domain.AuditStockSold,
		purchaseDescription(purchase, seller.Name, byID))

	if err := s.purchases.CreatePurchase(ctx, purchase, entry); err != nil {
		return "", fmt.Errorf("create purchase: %w", err)
	}

	s.logger.Info("purchase created",
		zap.String("purchase_id", purchase.ID),
		zap.String("seller_id", sellerID),
		zap.Int("items", len(purchase.Items)),
	)
	return purchase.ID, nil
}

func (s *PurchaseService) ListPurchases(ctx context.Context) ([]domain.Purchase, error) {
	return s.purchases.ListPurchases(ctx)
}

// GetInvoice exposes the read-only view consumed by the invoice renderer.
func (s *PurchaseService) GetInvoice(ctx context.Context, purchaseID string) (*domain.PurchaseInvoice, error) {
	invoice, err := s.purchases.GetPurchaseInvoice(ctx, purchaseID)
	if err != nil {
		return nil, fmt.Errorf("load invoice: %w", err)
	}
	if invoice == nil {
		return nil, fmt.Errorf("%w: purchase %s", domain.ErrNotFound, purchaseID)
	}
	return invoice, nil
}

func purchaseDescription(p domain.Purchase, sellerName string, stocks map[string]domain.Stock) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Purchase created by %s for buyer %s:", sellerName, p.BuyerName)
	for _, item := range p.Items {
		name := "unknown stock"
		if stock, ok := stocks[item.StockID]; ok {
			name = stock.Name
		}
		fmt.Fprintf(&b, "\n%s (id %s) x %d", name, item.StockID, item.Amount)
	}
	return b.String()
}
