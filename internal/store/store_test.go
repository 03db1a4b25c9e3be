package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"bistrogest/internal/database"
	"bistrogest/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	db, err := database.Open("sqlite", "file::memory:")
	require.NoError(t, err)
	return New(db)
}

func product(id, name string, stock int) models.Product {
	return models.Product{
		ID:        id,
		Name:      name,
		Price:     decimal.NewFromInt(600),
		CostPrice: decimal.NewFromInt(450),
		Stock:     stock,
		Threshold: 5,
		Category:  "Boisson",
	}
}

func TestProductsPutGetDelete(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	require.NoError(t, s.PutProduct(ctx, product("1", "Regab 65cl", 48)))

	got, err := s.GetProduct(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, 48, got.Stock)
	assert.True(t, got.Price.Equal(decimal.NewFromInt(600)))

	// put on an existing key overwrites
	p := product("1", "Regab 65cl", 10)
	require.NoError(t, s.PutProduct(ctx, p))
	got, err = s.GetProduct(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, 10, got.Stock)

	require.NoError(t, s.DeleteProduct(ctx, "1"))
	_, err = s.GetProduct(ctx, "1")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.DeleteProduct(ctx, "1"), ErrNotFound)
}

func TestReplaceProducts(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	require.NoError(t, s.BulkAddProducts(ctx, []models.Product{
		product("1", "Regab", 1), product("2", "Castel", 2),
	}))
	require.NoError(t, s.ReplaceProducts(ctx, []models.Product{product("3", "Coca-Cola", 3)}))

	list, err := s.ListProducts(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "3", list[0].ID)
}

func TestDecrementStockGuardsUnderflow(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	require.NoError(t, s.PutProduct(ctx, product("1", "Regab", 3)))

	ok, err := s.DecrementStock(ctx, "1", 2)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.DecrementStock(ctx, "1", 2)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = s.DecrementStock(ctx, "missing", 1)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := s.GetProduct(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, 1, got.Stock)
}

func TestSalesOrderedNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	for i, n := range []string{"CMD-001", "CMD-002", "CMD-003"} {
		require.NoError(t, s.AddSale(ctx, models.Sale{
			ID:            n,
			OrderNumber:   n,
			Timestamp:     base.Add(time.Duration(i) * time.Minute),
			Items:         models.SaleItems{{ProductID: "1", Quantity: 1, Price: decimal.NewFromInt(600)}},
			Total:         decimal.NewFromInt(600),
			PaymentMethod: models.PaymentCash,
			PaymentStatus: models.PaymentSuccess,
		}))
	}

	sales, err := s.ListSales(ctx)
	require.NoError(t, err)
	require.Len(t, sales, 3)
	assert.Equal(t, "CMD-003", sales[0].OrderNumber)
	assert.Equal(t, "CMD-001", sales[2].OrderNumber)
	require.Len(t, sales[0].Items, 1)
	assert.Equal(t, 1, sales[0].Items[0].Quantity)

	n, err := s.CountSales(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
}

func TestRepeatedOrderNumberKept(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	sale := models.Sale{
		ID: "a", OrderNumber: "CMD-001", Timestamp: time.Now(),
		PaymentMethod: models.PaymentCash, PaymentStatus: models.PaymentSuccess,
	}
	require.NoError(t, s.AddSale(ctx, sale))
	sale.ID = "b"
	require.NoError(t, s.AddSale(ctx, sale))

	n, err := s.CountSales(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	// the id stays the identity
	assert.Error(t, s.AddSale(ctx, sale))
}

func TestPendingOrdersOldestFirst(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	now := time.Now()

	require.NoError(t, s.AddPendingOrder(ctx, models.PendingOrder{
		ID: "late", CustomerName: "Awa", TableNumber: "4", Timestamp: now, Status: models.PendingStatusPending,
	}))
	require.NoError(t, s.AddPendingOrder(ctx, models.PendingOrder{
		ID: "early", CustomerName: "Jean", TableNumber: "2", Timestamp: now.Add(-time.Minute), Status: models.PendingStatusPending,
	}))

	orders, err := s.ListPendingOrders(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, "early", orders[0].ID)

	require.NoError(t, s.DeletePendingOrder(ctx, "early"))
	assert.ErrorIs(t, s.DeletePendingOrder(ctx, "early"), ErrNotFound)
}

func TestStaffLookupIsCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	require.NoError(t, s.ReplaceStaff(ctx, []models.StaffMember{
		{ID: "s1", Name: "Moussa Nguema", Username: "moussa241", AccessCode: "x", IsActive: true},
	}))

	m, err := s.FindStaffByUsername(ctx, " Moussa241 ")
	require.NoError(t, err)
	assert.Equal(t, "s1", m.ID)

	_, err = s.FindStaffByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMetadataRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	var crates models.CrateStock
	assert.ErrorIs(t, s.GetMetadata(ctx, models.MetaCrates, &crates), ErrNotFound)

	require.NoError(t, s.PutMetadata(ctx, models.MetaCrates, models.CrateStock{SobragaEmpties: 12, SobragaFull: 3}))
	require.NoError(t, s.PutMetadata(ctx, models.MetaCrates, models.CrateStock{SobragaEmpties: 0, SobragaFull: 4}))
	require.NoError(t, s.GetMetadata(ctx, models.MetaCrates, &crates))
	assert.Equal(t, models.CrateStock{SobragaEmpties: 0, SobragaFull: 4}, crates)

	entries, err := s.ListMetadata(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestTransactionRollsBack(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	boom := errors.New("boom")

	err := s.Transaction(ctx, func(tx *Store) error {
		if err := tx.PutProduct(ctx, product("1", "Regab", 5)); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = s.GetProduct(ctx, "1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStockMovementsFilter(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	now := time.Now()

	require.NoError(t, s.AddStockMovement(ctx, models.StockMovement{ID: "m1", ProductID: "1", Reason: models.MovementSale, Quantity: -2, StockBefore: 5, StockAfter: 3, CreatedAt: now}))
	require.NoError(t, s.AddStockMovement(ctx, models.StockMovement{ID: "m2", ProductID: "2", Reason: models.MovementAdjustment, Quantity: 4, StockBefore: 0, StockAfter: 4, CreatedAt: now}))

	all, err := s.ListStockMovements(ctx, "", 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	one, err := s.ListStockMovements(ctx, "1", 10)
	require.NoError(t, err)
	require.Len(t, one, 1)
	assert.Equal(t, -2, one[0].Quantity)
}

func TestReplaceAllIsAtomic(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	require.NoError(t, s.PutProduct(ctx, product("1", "Regab", 5)))

	// two staff with the same username violate the unique index
	err := s.ReplaceAll(ctx, Dataset{
		Products: []models.Product{product("9", "Castel", 1)},
		Staff: []models.StaffMember{
			{ID: "a", Name: "A", Username: "dup", AccessCode: "x"},
			{ID: "b", Name: "B", Username: "dup", AccessCode: "y"},
		},
	})
	require.Error(t, err)

	d, err := s.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, d.Products, 1)
	assert.Equal(t, "1", d.Products[0].ID)
}
