package audit

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"bistrogest/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const EntityProduct = "product"

var (
	ErrLogNotFound   = errors.New("log not found")
	ErrAlreadyUndone = errors.New("entry already undone")
	ErrNotUndoable   = errors.New("only product stock updates can be undone")
	ErrUndoConflict  = errors.New("product changed too much since this entry to undo it")
)

type LogOptions struct {
	Type        models.ActivityType
	UserName    string
	EntityType  string
	EntityID    string
	Description string
	Amount      *decimal.Decimal
	Before      any
	After       any
}

// WriteLog stores one activity entry. Pass a transaction handle to make the entry
// part of the same commit.
func WriteLog(db *gorm.DB, opts LogOptions) error {
	entry := models.ActivityLog{
		Type:        opts.Type,
		User:        opts.UserName,
		EntityType:  opts.EntityType,
		EntityID:    opts.EntityID,
		Description: opts.Description,
		Amount:      opts.Amount,
		BeforeData:  toJSON(opts.Before),
		AfterData:   toJSON(opts.After),
	}

	if err := db.Create(&entry).Error; err != nil {
		return fmt.Errorf("write activity log: %w", err)
	}
	return nil
}

func toJSON(v any) string {
	if v == nil {
		return "null"
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(b)
}

type Filter struct {
	Type       models.ActivityType
	EntityType string
	EntityID   string
	Limit      int
}

// ListLogs returns entries newest first.
func ListLogs(db *gorm.DB, f Filter) ([]models.ActivityLog, error) {
	q := db.Model(&models.ActivityLog{})
	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}
	if f.EntityType != "" {
		q = q.Where("entity_type = ?", f.EntityType)
	}
	if f.EntityID != "" {
		q = q.Where("entity_id = ?", f.EntityID)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}

	var logs []models.ActivityLog
	if err := q.Order("created_at DESC, id DESC").Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("list activity logs: %w", err)
	}
	return logs, nil
}

// UndoResult tells the caller what changed so it can refresh its snapshot.
type UndoResult struct {
	Restored  *models.Product // product as it is now, nil when it was removed
	ProductID string
}

// UndoLog reverts a product STOCK_UPDATE entry.
// A null before means the product was created and gets deleted; a null after
// means it was deleted and gets recreated. An edit restores the before fields
// but only reverses the stock delta the entry introduced, so units sold since
// stay sold; that delta is journaled as an adjustment. Sales are never undone.
func UndoLog(db *gorm.DB, logID uint, userName string) (UndoResult, error) {
	var res UndoResult
	err := db.Transaction(func(tx *gorm.DB) error {
		var entry models.ActivityLog
		if err := tx.First(&entry, "id = ?", logID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrLogNotFound
			}
			return err
		}
		if entry.IsUndone {
			return ErrAlreadyUndone
		}
		if entry.Type != models.ActivityStockUpdate || entry.EntityType != EntityProduct {
			return ErrNotUndoable
		}

		res.ProductID = entry.EntityID
		before, err := decodeProduct(entry.BeforeData)
		if err != nil {
			return err
		}
		after, err := decodeProduct(entry.AfterData)
		if err != nil {
			return err
		}

		var current models.Product
		found := true
		if err := tx.Take(&current, "id = ?", entry.EntityID).Error; err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			found = false
		}

		switch {
		case before == nil:
			if !found {
				return ErrUndoConflict
			}
			if err := tx.Delete(&models.Product{}, "id = ?", entry.EntityID).Error; err != nil {
				return fmt.Errorf("remove product: %w", err)
			}
		case after == nil:
			if found {
				return ErrUndoConflict
			}
			before.ID = entry.EntityID
			if err := tx.Create(before).Error; err != nil {
				return fmt.Errorf("recreate product: %w", err)
			}
			res.Restored = before
		default:
			if !found {
				return ErrUndoConflict
			}
			restored := *before
			restored.ID = entry.EntityID
			restored.Stock = current.Stock + (before.Stock - after.Stock)
			if restored.Stock < 0 {
				return ErrUndoConflict
			}
			if err := tx.Save(&restored).Error; err != nil {
				return fmt.Errorf("restore product: %w", err)
			}
			if restored.Stock != current.Stock {
				move := models.StockMovement{
					ID:          uuid.NewString(),
					ProductID:   restored.ID,
					Reason:      models.MovementAdjustment,
					Quantity:    restored.Stock - current.Stock,
					StockBefore: current.Stock,
					StockAfter:  restored.Stock,
					ReferenceID: strconv.FormatUint(uint64(entry.ID), 10),
					CreatedBy:   userName,
				}
				if err := tx.Create(&move).Error; err != nil {
					return fmt.Errorf("journal undo movement: %w", err)
				}
			}
			res.Restored = &restored
		}

		now := time.Now()
		entry.IsUndone = true
		entry.UndoneBy = userName
		entry.UndoneAt = &now
		if err := tx.Save(&entry).Error; err != nil {
			return fmt.Errorf("mark entry undone: %w", err)
		}

		undo := models.ActivityLog{
			Type:        models.ActivityUndo,
			User:        userName,
			EntityType:  entry.EntityType,
			EntityID:    entry.EntityID,
			Description: fmt.Sprintf("Undone: %s", entry.Description),
			BeforeData:  entry.AfterData,
			AfterData:   entry.BeforeData,
		}
		if err := tx.Create(&undo).Error; err != nil {
			return fmt.Errorf("write undo entry: %w", err)
		}
		return nil
	})
	return res, err
}

// decodeProduct reads a snapshot column; "null" or empty gives nil.
func decodeProduct(data string) (*models.Product, error) {
	if data == "" || data == "null" {
		return nil, nil
	}
	var p models.Product
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return nil, fmt.Errorf("decode product snapshot: %w", err)
	}
	return &p, nil
}
