package audit

import (
	"testing"

	"bistrogest/internal/database"
	"bistrogest/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func openDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open("sqlite", "file::memory:")
	require.NoError(t, err)
	return db
}

func TestWriteAndListLogs(t *testing.T) {
	db := openDB(t)
	amount := decimal.NewFromInt(3000)

	require.NoError(t, WriteLog(db, LogOptions{Type: models.ActivitySale, UserName: "Moussa", EntityType: "sale", EntityID: "CMD-001", Description: "sale", Amount: &amount}))
	require.NoError(t, WriteLog(db, LogOptions{Type: models.ActivitySystem, UserName: "Owner", Description: "backup imported"}))

	all, err := ListLogs(db, Filter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, models.ActivitySystem, all[0].Type)
	assert.Equal(t, "null", all[0].BeforeData)

	sales, err := ListLogs(db, Filter{Type: models.ActivitySale})
	require.NoError(t, err)
	require.Len(t, sales, 1)
	assert.True(t, sales[0].Amount.Equal(amount))
}

func TestUndoRestoresProduct(t *testing.T) {
	db := openDB(t)
	before := models.Product{ID: "1", Name: "Regab 65cl", Price: decimal.NewFromInt(600), CostPrice: decimal.NewFromInt(450), Stock: 48, Threshold: 12}
	after := before
	after.Stock = 5
	require.NoError(t, db.Create(&after).Error)

	require.NoError(t, WriteLog(db, LogOptions{
		Type: models.ActivityStockUpdate, EntityType: EntityProduct, EntityID: "1", Before: before, After: after,
	}))
	logs, err := ListLogs(db, Filter{})
	require.NoError(t, err)

	res, err := UndoLog(db, logs[0].ID, "Owner")
	require.NoError(t, err)
	require.NotNil(t, res.Restored)
	assert.Equal(t, 48, res.Restored.Stock)

	var p models.Product
	require.NoError(t, db.First(&p, "id = ?", "1").Error)
	assert.Equal(t, 48, p.Stock)

	_, err = UndoLog(db, logs[0].ID, "Owner")
	assert.ErrorIs(t, err, ErrAlreadyUndone)

	undo, err := ListLogs(db, Filter{Type: models.ActivityUndo})
	require.NoError(t, err)
	assert.Len(t, undo, 1)
}

func TestUndoCreatedProductRemovesIt(t *testing.T) {
	db := openDB(t)
	p := models.Product{ID: "9", Name: "Tonic", Stock: 3}
	require.NoError(t, db.Create(&p).Error)
	require.NoError(t, WriteLog(db, LogOptions{Type: models.ActivityStockUpdate, EntityType: EntityProduct, EntityID: "9", After: p}))

	logs, _ := ListLogs(db, Filter{})
	res, err := UndoLog(db, logs[0].ID, "Owner")
	require.NoError(t, err)
	assert.Nil(t, res.Restored)
	assert.Equal(t, "9", res.ProductID)

	var n int64
	db.Model(&models.Product{}).Where("id = ?", "9").Count(&n)
	assert.Zero(t, n)
}

func TestUndoRefusesSales(t *testing.T) {
	db := openDB(t)
	require.NoError(t, WriteLog(db, LogOptions{Type: models.ActivitySale, EntityType: "sale", EntityID: "CMD-001"}))
	logs, _ := ListLogs(db, Filter{})

	_, err := UndoLog(db, logs[0].ID, "Owner")
	assert.ErrorIs(t, err, ErrNotUndoable)

	_, err = UndoLog(db, 999, "Owner")
	assert.ErrorIs(t, err, ErrLogNotFound)
}

func TestUndoEditReversesOnlyItsStockDelta(t *testing.T) {
	db := openDB(t)
	before := models.Product{ID: "1", Name: "Regab 65cl", Price: decimal.NewFromInt(600), Stock: 48, Threshold: 12}
	after := before
	after.Price = decimal.NewFromInt(650)
	after.Stock = 60
	require.NoError(t, WriteLog(db, LogOptions{
		Type: models.ActivityStockUpdate, EntityType: EntityProduct, EntityID: "1", Before: before, After: after,
	}))

	// five sold since the edit
	current := after
	current.Stock = 55
	require.NoError(t, db.Create(&current).Error)

	logs, err := ListLogs(db, Filter{})
	require.NoError(t, err)
	res, err := UndoLog(db, logs[0].ID, "Owner")
	require.NoError(t, err)
	assert.Equal(t, 43, res.Restored.Stock)
	assert.Equal(t, "600", res.Restored.Price.String())

	var moves []models.StockMovement
	require.NoError(t, db.Find(&moves).Error)
	require.Len(t, moves, 1)
	assert.Equal(t, -12, moves[0].Quantity)
	assert.Equal(t, 55, moves[0].StockBefore)
	assert.Equal(t, models.MovementAdjustment, moves[0].Reason)
}

func TestUndoDeleteRecreatesProduct(t *testing.T) {
	db := openDB(t)
	gone := models.Product{ID: "7", Name: "Castel 65cl", Stock: 24}
	require.NoError(t, WriteLog(db, LogOptions{Type: models.ActivityStockUpdate, EntityType: EntityProduct, EntityID: "7", Before: gone}))
	logs, _ := ListLogs(db, Filter{})

	res, err := UndoLog(db, logs[0].ID, "Owner")
	require.NoError(t, err)
	require.NotNil(t, res.Restored)
	assert.Equal(t, 24, res.Restored.Stock)

	var created models.Product
	require.NoError(t, WriteLog(db, LogOptions{Type: models.ActivityStockUpdate, EntityType: EntityProduct, EntityID: "8", After: models.Product{ID: "8", Name: "Tonic"}}))
	logs, _ = ListLogs(db, Filter{EntityID: "8"})
	_, err = UndoLog(db, logs[0].ID, "Owner")
	assert.ErrorIs(t, err, ErrUndoConflict)
	assert.Error(t, db.Take(&created, "id = ?", "8").Error)
}
