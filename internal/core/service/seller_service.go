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

// SellerService is the registry of purchase originators. Only active sellers
// may create purchases.
type SellerService struct {
	sellers port.SellerRepository
	logger  *zap.Logger
}

func NewSellerService(sellers port.SellerRepository, logger *zap.Logger) *SellerService {
	return &SellerService{sellers: sellers, logger: logger}
}

func (s *SellerService) AddSeller(ctx context.Context, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: seller name is required", ErrValidation)
	}

	exists, err := s.sellers.SellerNameExists(ctx, name)
	if err != nil {
		return "", fmt.Errorf("check seller name: %w", err)
	}
	if exists {
		return "", fmt.Errorf("%w: a seller with that name already exists", ErrValidation)
	}

	seller := domain.Seller{
		ID:        uuid.NewString(),
		Name:      name,
		Status:    domain.SellerStatusActive,
		CreatedAt: time.Now().UTC(),
	}
	entry := domain.NewAuditEntry(domain.AuditSellerAdded, "Added new seller: "+name)

	if err := s.sellers.CreateSeller(ctx, seller, entry); err != nil {
		return "", fmt.Errorf("create seller: %w", err)
	}

	s.logger.Info("seller added", zap.String("seller_id", seller.ID), zap.String("name", name))
	return seller.ID, nil
}

// SetStatus updates a seller's status and logs the old and new values.
// Setting the current status again is rejected as a no-op.
func (s *SellerService) SetStatus(ctx context.Context, sellerID string, status domain.SellerStatus) error {
	if status != domain.SellerStatusActive && status != domain.SellerStatusInactive {
		return fmt.Errorf("%w: unknown seller status %q", ErrValidation, status)
	}

	seller, err := s.sellers.GetSeller(ctx, sellerID)
	if err != nil {
		return fmt.Errorf("load seller: %w", err)
	}
	if seller == nil {
		return fmt.Errorf("%w: seller %s", domain.ErrNotFound, sellerID)
	}
	if seller.Status == status {
		return fmt.Errorf("%w: seller %s is already %s", ErrNoOp, seller.Name, status)
	}

	updated := *seller
	updated.Status = status
	entry := domain.NewAuditEntry(domain.AuditSellerStatusChanged,
		fmt.Sprintf("Seller %s: %s", seller.Name, domain.ChangeLine("Status", seller.Status, status)))

	if err := s.sellers.UpdateSellerStatus(ctx, updated, entry); err != nil {
		return fmt.Errorf("update seller status: %w", err)
	}

	s.logger.Info("seller status changed",
		zap.String("seller_id", sellerID),
		zap.String("from", string(seller.Status)),
		zap.String("to", string(status)),
	)
	return nil
}

func (s *SellerService) ListSellers(ctx context.Context) ([]domain.Seller, error) {
	return s.sellers.ListSellers(ctx)
}
