package checkout

import (
	"context"
	"testing"
	"time"

	"bistrogest/internal/audit"
	"bistrogest/internal/cart"
	"bistrogest/internal/database"
	"bistrogest/internal/inventory"
	"bistrogest/internal/models"
	"bistrogest/internal/sale"
	"bistrogest/internal/store"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*store.Store, *Committer) {
	t.Helper()
	db, err := database.Open("sqlite", "file::memory:")
	require.NoError(t, err)
	st := store.New(db)
	require.NoError(t, st.BulkAddProducts(context.Background(), []models.Product{
		{ID: "1", Name: "Regab 65cl", Price: decimal.NewFromInt(600), CostPrice: decimal.NewFromInt(450), Stock: 48, Threshold: 12},
		{ID: "2", Name: "Castel 65cl", Price: decimal.NewFromInt(700), CostPrice: decimal.NewFromInt(550), Stock: 3, Threshold: 6},
	}))
	return st, NewCommitter(st)
}

// build prices a cart against the persisted catalog with the next order number.
func build(t *testing.T, st *store.Store, lines map[string]int) models.Sale {
	t.Helper()
	ctx := context.Background()
	products, err := st.ListProducts(ctx)
	require.NoError(t, err)
	ledger := inventory.NewLedger(products)

	items := models.SaleItems{}
	for id, q := range lines {
		items = append(items, models.SaleItem{ProductID: id, Quantity: q})
	}
	n, err := st.CountSales(ctx)
	require.NoError(t, err)

	s, err := sale.Build(cart.FromItems(items), ledger, sale.Context{
		Sequence: int(n) + 1, TaxRate: decimal.NewFromInt(18), Cashier: "Moussa", Now: time.Now(),
	})
	require.NoError(t, err)
	s.PaymentMethod = models.PaymentCash
	s.PaymentStatus = models.PaymentSuccess
	return s
}

func stockOf(t *testing.T, st *store.Store, id string) int {
	t.Helper()
	p, err := st.GetProduct(context.Background(), id)
	require.NoError(t, err)
	return p.Stock
}

func TestCommitConcreteScenario(t *testing.T) {
	st, c := setup(t)
	ctx := context.Background()

	s := build(t, st, map[string]int{"1": 5})
	updated, err := c.Commit(ctx, s)
	require.NoError(t, err)
	require.Len(t, updated, 1)
	assert.Equal(t, 43, updated[0].Stock)
	assert.Equal(t, 43, stockOf(t, st, "1"))

	sales, err := st.ListSales(ctx)
	require.NoError(t, err)
	require.Len(t, sales, 1)
	assert.Equal(t, "CMD-001", sales[0].OrderNumber)
	assert.Equal(t, "2542.37", sales[0].Subtotal.String())

	moves, err := st.ListStockMovements(ctx, "1", 0)
	require.NoError(t, err)
	require.Len(t, moves, 1)
	assert.Equal(t, -5, moves[0].Quantity)
	assert.Equal(t, 48, moves[0].StockBefore)
	assert.Equal(t, 43, moves[0].StockAfter)
	assert.Equal(t, sales[0].ID, moves[0].ReferenceID)

	logs, err := audit.ListLogs(st.DB(), audit.Filter{Type: models.ActivitySale})
	require.NoError(t, err)
	assert.Len(t, logs, 1)
}

func TestCommitStockMonotonicityAndNumbering(t *testing.T) {
	st, c := setup(t)
	ctx := context.Background()

	sold := 0
	for i := 1; i <= 6; i++ {
		s := build(t, st, map[string]int{"1": i})
		assert.Equal(t, sale.OrderNumber(i), s.OrderNumber)
		_, err := c.Commit(ctx, s)
		require.NoError(t, err)
		sold += i
		assert.Equal(t, 48-sold, stockOf(t, st, "1"))
	}

	n, err := st.CountSales(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 6, n)
}

func TestCommitUnderflowRollsBackEverything(t *testing.T) {
	st, c := setup(t)
	ctx := context.Background()

	s := build(t, st, map[string]int{"1": 2, "2": 3})
	// stock drops behind the cart's back
	p, err := st.GetProduct(ctx, "2")
	require.NoError(t, err)
	p.Stock = 1
	require.NoError(t, st.PutProduct(ctx, p))

	_, err = c.Commit(ctx, s)
	require.Error(t, err)
	assert.ErrorIs(t, err, inventory.ErrInsufficientStock)

	var se *inventory.InsufficientStockError
	require.ErrorAs(t, err, &se)
	require.Len(t, se.Lines, 1)
	assert.Equal(t, "2", se.Lines[0].ProductID)
	assert.Equal(t, 3, se.Lines[0].Requested)
	assert.Equal(t, 1, se.Lines[0].Available)

	assert.Equal(t, 48, stockOf(t, st, "1"), "no partial decrement")
	n, err := st.CountSales(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	moves, err := st.ListStockMovements(ctx, "", 0)
	require.NoError(t, err)
	assert.Empty(t, moves)
}

func TestCommitAllowsRepeatedOrderNumber(t *testing.T) {
	st, c := setup(t)
	ctx := context.Background()

	s := build(t, st, map[string]int{"1": 1})
	_, err := c.Commit(ctx, s)
	require.NoError(t, err)

	again := s
	again.ID = "other"
	_, err = c.Commit(ctx, again)
	require.NoError(t, err)
	assert.Equal(t, 46, stockOf(t, st, "1"))

	// replaying the same sale id is refused and rolls back
	_, err = c.Commit(ctx, again)
	require.Error(t, err)
	assert.Equal(t, 46, stockOf(t, st, "1"))
}

func TestCommitRejectsEmptySale(t *testing.T) {
	_, c := setup(t)
	_, err := c.Commit(context.Background(), models.Sale{})
	assert.ErrorIs(t, err, ErrInvalidSale)
}

func TestCommitUnknownProduct(t *testing.T) {
	st, c := setup(t)
	s := build(t, st, map[string]int{"1": 1})
	s.Items = append(s.Items, models.SaleItem{ProductID: "ghost", Quantity: 1})

	_, err := c.Commit(context.Background(), s)
	assert.ErrorIs(t, err, inventory.ErrInsufficientStock)
}
