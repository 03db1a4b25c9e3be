package pending

import (
	"testing"

	"bistrogest/internal/cart"
	"bistrogest/internal/inventory"
	"bistrogest/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ledger() *inventory.Ledger {
	return inventory.NewLedger([]models.Product{
		{ID: "1", Name: "Regab 65cl", Category: "Boisson", Price: decimal.NewFromInt(600), CostPrice: decimal.NewFromInt(450), Stock: 48},
		{ID: "2", Name: "Castel 65cl", Category: "Boisson", Price: decimal.NewFromInt(700), CostPrice: decimal.NewFromInt(550), Stock: 2},
	})
}

func TestSubmitCapturesItems(t *testing.T) {
	l := ledger()
	c := cart.New()
	c.Add(l, "1")
	c.Add(l, "1")
	c.Add(l, "2")

	o, err := Submit(c, l, Submission{CustomerName: " Awa ", TableNumber: "T4", WaiterName: "Moussa"})
	require.NoError(t, err)
	assert.Equal(t, models.PendingStatusPending, o.Status)
	assert.Equal(t, "Awa", o.CustomerName)
	assert.Equal(t, "1900", o.Total.String())
	require.Len(t, o.Items, 2)
	assert.Equal(t, "Regab 65cl", o.Items[0].ProductName)

	p, _ := l.Product("1")
	assert.Equal(t, 48, p.Stock, "intake never reserves stock")
}

func TestSubmitRejectsInvalid(t *testing.T) {
	l := ledger()
	c := cart.New()
	c.Add(l, "1")

	cases := []Submission{
		{CustomerName: "Awa", TableNumber: ""},
		{CustomerName: "Awa", TableNumber: "   "},
		{CustomerName: "A", TableNumber: "4"},
		{CustomerName: " A ", TableNumber: "4"},
	}
	for _, s := range cases {
		_, err := Submit(c, l, s)
		assert.ErrorIs(t, err, ErrInvalidSubmission, "%+v", s)
	}

	_, err := Submit(cart.New(), l, Submission{CustomerName: "Awa", TableNumber: "4"})
	assert.ErrorIs(t, err, ErrInvalidSubmission)
}

func TestSubmitAcceptsAccentedTwoLetterName(t *testing.T) {
	l := ledger()
	c := cart.New()
	c.Add(l, "1")
	_, err := Submit(c, l, Submission{CustomerName: "Éa", TableNumber: "1"})
	assert.NoError(t, err)
}

func TestLoadReportsShortfalls(t *testing.T) {
	l := ledger()
	o := models.PendingOrder{
		ID: "p1",
		Items: models.SaleItems{
			{ProductID: "1", ProductName: "Regab 65cl", Quantity: 3},
			{ProductID: "2", ProductName: "Castel 65cl", Quantity: 5},
		},
	}

	c, short := Load(o, l)
	assert.Equal(t, 3, c.Quantity("1"))
	assert.Equal(t, 5, c.Quantity("2"))
	require.Len(t, short, 1)
	assert.Equal(t, inventory.Shortfall{ProductID: "2", ProductName: "Castel 65cl", Requested: 5, Available: 2}, short[0])
}

func TestFind(t *testing.T) {
	q := []models.PendingOrder{{ID: "a"}, {ID: "b"}}
	assert.Equal(t, 1, Find(q, "b"))
	assert.Equal(t, -1, Find(q, "z"))
}
