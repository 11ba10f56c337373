package domain

import "time"

type Stock struct {
	ID           string
	Name         string
	SerialNumber string
	BuyPrice     float64
	SellPrice    float64
	SupplierID   string
	Amount       int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Supplier struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

// StockChanges lists the fields that differ between two versions of a stock,
// one change line per field. Identical versions produce no lines.
func StockChanges(old, updated Stock) []string {
	var lines []string
	if old.Name != updated.Name {
		lines = append(lines, ChangeLine("Name", old.Name, updated.Name))
	}
	if old.SerialNumber != updated.SerialNumber {
		lines = append(lines, ChangeLine("SerialNumber", old.SerialNumber, updated.SerialNumber))
	}
	if old.BuyPrice != updated.BuyPrice {
		lines = append(lines, ChangeLine("BuyPrice", old.BuyPrice, updated.BuyPrice))
	}
	if old.SellPrice != updated.SellPrice {
		lines = append(lines, ChangeLine("SellPrice", old.SellPrice, updated.SellPrice))
	}
	if old.SupplierID != updated.SupplierID {
		lines = append(lines, ChangeLine("SupplierId", old.SupplierID, updated.SupplierID))
	}
	if old.Amount != updated.Amount {
		lines = append(lines, ChangeLine("Amount", old.Amount, updated.Amount))
	}
	return lines
}
