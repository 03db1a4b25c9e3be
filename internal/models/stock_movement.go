package models

import "time"

type MovementReason string

const (
	MovementSale       MovementReason = "sale"
	MovementAdjustment MovementReason = "adjustment"
)

// StockMovement: one row per stock change of a product (signed quantity, before/after).
type StockMovement struct {
	ID          string         `gorm:"primaryKey;size:64" json:"id"`
	ProductID   string         `gorm:"size:64;index;not null" json:"productId"`
	Reason      MovementReason `gorm:"size:20;not null" json:"reason"`
	Quantity    int            `gorm:"not null" json:"quantity"`
	StockBefore int            `gorm:"not null" json:"stockBefore"`
	StockAfter  int            `gorm:"not null" json:"stockAfter"`
	ReferenceID string         `gorm:"size:64;index" json:"referenceId,omitempty"`
	CreatedBy   string         `gorm:"size:100" json:"createdBy,omitempty"`
	CreatedAt   time.Time      `gorm:"index" json:"createdAt"`
}
