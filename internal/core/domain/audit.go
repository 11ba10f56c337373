package domain

import (
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

type AuditType string

const (
	AuditStockAdded            AuditType = "stock_added"
	AuditStockSold             AuditType = "stock_sold"
	AuditStockAddedInventory   AuditType = "stock_added_inventory"
	AuditStockEdited           AuditType = "stock_edited"
	AuditStockRemoved          AuditType = "stock_removed"
	AuditSupplierAdded         AuditType = "supplier_added"
	AuditSupplierOrderAdded    AuditType = "supplier_order_added"
	AuditSupplierOrderReceived AuditType = "supplier_order_received"
	AuditSupplierOrderCanceled AuditType = "supplier_order_canceled"
	AuditSellerAdded           AuditType = "seller_added"
	AuditSellerStatusChanged   AuditType = "seller_status_changed"
)

// MaxAuditDescription bounds the stored description length.
const MaxAuditDescription = 500

// AuditEntry is an append-only record of one business mutation. Entries are
// never edited or deleted.
type AuditEntry struct {
	ID          string
	Date        time.Time
	Type        AuditType
	Description string
}

// NewAuditEntry stamps a UTC timestamp and caps the description length.
// The cap counts runes, not bytes: the description column is utf8mb4 and a
// byte slice could cut a multi-byte character in half.
func NewAuditEntry(kind AuditType, description string) AuditEntry {
	if utf8.RuneCountInString(description) > MaxAuditDescription {
		description = string([]rune(description)[:MaxAuditDescription])
	}
	return AuditEntry{
		ID:          uuid.NewString(),
		Date:        time.Now().UTC(),
		Type:        kind,
		Description: description,
	}
}

// ChangeLine renders one field of an edit diff.
func ChangeLine(field string, from, to any) string {
	return fmt.Sprintf("%s changed from: %v to %v", field, from, to)
}
