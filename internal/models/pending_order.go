package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type PendingStatus string

const (
	PendingStatusPending   PendingStatus = "PENDING"
	PendingStatusValidated PendingStatus = "VALIDATED"
	PendingStatusCancelled PendingStatus = "CANCELLED"
)

// PendingOrder: digital-menu submission waiting for staff. It never reserves stock.
type PendingOrder struct {
	ID           string          `gorm:"primaryKey;size:64" json:"id"`
	CustomerName string          `gorm:"size:100;not null" json:"customerName"`
	TableNumber  string          `gorm:"size:50;not null" json:"tableNumber"`
	WaiterName   string          `gorm:"size:100" json:"waiterName,omitempty"`
	Items        SaleItems       `gorm:"type:text;not null" json:"items"`
	Timestamp    time.Time       `gorm:"index;not null" json:"timestamp"`
	Total        decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"total"`
	Status       PendingStatus   `gorm:"size:20;not null" json:"status"`
}
