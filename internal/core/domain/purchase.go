package domain

import "time"

type PurchaseStatus string

const (
	PurchaseStatusPending   PurchaseStatus = "pending"
	PurchaseStatusPurchased PurchaseStatus = "purchased"
	PurchaseStatusCanceled  PurchaseStatus = "canceled"
)

type Purchase struct {
	ID           string
	SellerID     string
	BuyerName    string
	Status       PurchaseStatus
	PurchaseDate time.Time
	Items        []PurchaseItem
}

// PurchaseItem references its stock by id only; the stock row can be deleted
// independently after the purchase is recorded.
type PurchaseItem struct {
	StockID string
	Amount  int
}

// PurchaseInvoice is the read-only view consumed by the invoice renderer.
type PurchaseInvoice struct {
	PurchaseID   string
	SellerName   string
	BuyerName    string
	Status       PurchaseStatus
	PurchaseDate time.Time
	Lines        []InvoiceLine
}

type InvoiceLine struct {
	StockName string
	Amount    int
	SellPrice float64
}
