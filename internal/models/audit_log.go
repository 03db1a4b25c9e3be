package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type ActivityType string

const (
	ActivitySale          ActivityType = "SALE"
	ActivityStockUpdate   ActivityType = "STOCK_UPDATE"
	ActivityConsigne      ActivityType = "CONSIGNE_UPDATE"
	ActivitySystem        ActivityType = "SYSTEM"
	ActivityStaffEval     ActivityType = "STAFF_EVAL"
	ActivityPendingCancel ActivityType = "PENDING_CANCEL"
	ActivityUndo          ActivityType = "UNDO"
)

type ActivityLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"timestamp"`

	Type        ActivityType     `gorm:"size:30;index" json:"type"`
	User        string           `gorm:"size:100" json:"user"`
	EntityType  string           `gorm:"size:50;index" json:"entityType"`
	EntityID    string           `gorm:"size:64;index" json:"entityId"`
	Description string           `gorm:"size:255" json:"description"`
	Amount      *decimal.Decimal `gorm:"type:numeric(14,2)" json:"amount,omitempty"`

	// before/after snapshots (JSON)
	BeforeData string `gorm:"type:text" json:"beforeData"`
	AfterData  string `gorm:"type:text" json:"afterData"`

	IsUndone bool       `json:"isUndone"`
	UndoneBy string     `gorm:"size:100" json:"undoneBy,omitempty"`
	UndoneAt *time.Time `json:"undoneAt,omitempty"`
}
