package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	PaymentCash        PaymentMethod = "Espèces"
	PaymentAirtelMoney PaymentMethod = "Airtel Money"
	PaymentMoovMoney   PaymentMethod = "Moov Money"
)

type PaymentStatus string

const (
	PaymentSuccess PaymentStatus = "SUCCESS"
	PaymentPending PaymentStatus = "PENDING"
	PaymentFailed  PaymentStatus = "FAILED"
)

// SaleItem is captured by value: later catalog edits never change a recorded line.
type SaleItem struct {
	ProductID   string          `json:"productId"`
	ProductName string          `json:"productName"`
	Category    string          `json:"category"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	UnitCost    decimal.Decimal `json:"unitCost"`
}

// LineTotal = price * quantity
func (i SaleItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// LineCost = unitCost * quantity
func (i SaleItem) LineCost() decimal.Decimal {
	return i.UnitCost.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// SaleItems is stored as a JSON column so a sale keeps its lines in order.
type SaleItems []SaleItem

func (s SaleItems) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (s *SaleItems) Scan(value any) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
		*s = SaleItems{}
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("sale items: unsupported column type %T", value)
	}
	return json.Unmarshal(raw, s)
}

// Sale is append-only. It is never updated or deleted once committed.
type Sale struct {
	ID            string          `gorm:"primaryKey;size:64" json:"id"`
	OrderNumber   string          `gorm:"size:20;index;not null" json:"orderNumber"`
	StoreID       string          `gorm:"size:64;index" json:"storeId"`
	TableNumber   string          `gorm:"size:50" json:"tableNumber,omitempty"`
	CustomerName  string          `gorm:"size:100" json:"customerName,omitempty"`
	Timestamp     time.Time       `gorm:"index;not null" json:"timestamp"`
	Items         SaleItems       `gorm:"type:text;not null" json:"items"`
	Subtotal      decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"subtotal"`
	TVAAmount     decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"tvaAmount"`
	Total         decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"total"`
	TotalCost     decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"totalCost"`
	PaymentMethod PaymentMethod   `gorm:"size:30;not null" json:"paymentMethod"`
	PaymentStatus PaymentStatus   `gorm:"size:20;not null" json:"paymentStatus"`
	TransactionID string          `gorm:"size:100" json:"transactionId,omitempty"`
	ManagedBy     string          `gorm:"size:100" json:"managedBy"`
}

// Margin = total - totalCost
func (s Sale) Margin() decimal.Decimal {
	return s.Total.Sub(s.TotalCost)
}
