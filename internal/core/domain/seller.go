package domain

import "time"

type SellerStatus string

const (
	SellerStatusActive   SellerStatus = "active"
	SellerStatusInactive SellerStatus = "inactive"
)

// Seller is an entity permitted to originate purchases while active.
type Seller struct {
	ID        string
	Name      string
	Status    SellerStatus
	CreatedAt time.Time
}
