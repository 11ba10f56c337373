package domain

import (
	"fmt"
	"time"
)

type OrderStatus string

const (
	OrderStatusPending  OrderStatus = "pending"
	OrderStatusReceived OrderStatus = "received"
	OrderStatusCanceled OrderStatus = "canceled"
)

// StatusOrdinal drives the listing order: pending orders surface before
// received ones, received before canceled.
func (s OrderStatus) StatusOrdinal() int {
	switch s {
	case OrderStatusPending:
		return 0
	case OrderStatusReceived:
		return 1
	case OrderStatusCanceled:
		return 2
	}
	return 3
}

type SupplierOrder struct {
	ID              string
	SupplierID      string
	Status          OrderStatus
	CreatedAt       time.Time
	StatusChangedAt *time.Time
	Items           []OrderItem
}

type OrderItem struct {
	StockID string
	Amount  int
}

// WithStatus returns a copy of the order moved to next and stamps the status
// change time. Orders only ever leave the pending state, exactly once.
func (o SupplierOrder) WithStatus(next OrderStatus, now time.Time) (SupplierOrder, error) {
	if o.Status != OrderStatusPending {
		return o, fmt.Errorf("%w: order %s is already %s", ErrInvalidTransition, o.ID, o.Status)
	}
	if next != OrderStatusReceived && next != OrderStatusCanceled {
		return o, fmt.Errorf("%w: cannot move order %s to %s", ErrInvalidTransition, o.ID, next)
	}
	ts := now.UTC()
	o.Status = next
	o.StatusChangedAt = &ts
	return o, nil
}
