package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product: catalog item. Price is tax-inclusive; Stock is only decremented by a committed sale
// or overwritten by an administrative edit.
type Product struct {
	ID          string          `gorm:"primaryKey;size:64" json:"id"`
	Name        string          `gorm:"size:100;not null;index" json:"name"`
	Price       decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"price"`
	CostPrice   decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"costPrice"`
	Stock       int             `gorm:"not null" json:"stock"`
	Threshold   int             `gorm:"not null" json:"threshold"`
	Category    string          `gorm:"size:50;index" json:"category"`
	HasConsigne bool            `json:"hasConsigne"`
	Image       string          `gorm:"size:255" json:"image,omitempty"`
	CreatedAt   time.Time       `json:"-"`
	UpdatedAt   time.Time       `json:"-"`
}

// IsLow: stock at or below the reorder alert level
func (p Product) IsLow() bool {
	return p.Stock <= p.Threshold
}
