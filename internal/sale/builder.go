// Package sale turns a cart into an immutable, not yet persisted, Sale record.
package sale

import (
	"errors"
	"fmt"
	"time"

	"bistrogest/internal/cart"
	"bistrogest/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrEmptyCart       = errors.New("cart is empty")
	ErrUnknownProduct  = errors.New("product not in catalog")
	ErrInvalidTaxRate  = errors.New("tax rate must be in [0,100)")
	ErrInvalidSequence = errors.New("order sequence must be positive")
)

var hundred = decimal.NewFromInt(100)

// Context is everything a sale needs besides the cart itself.
type Context struct {
	Sequence     int             // count of persisted sales + 1
	TaxRate      decimal.Decimal // percent, prices already include it
	Cashier      string
	CustomerName string
	TableNumber  string
	StoreID      string
	Now          time.Time // zero means time.Now()
}

// OrderNumber formats the ticket id: CMD-001, CMD-002, ... CMD-1000.
func OrderNumber(n int) string {
	return fmt.Sprintf("CMD-%03d", n)
}

// SplitTax backs the tax out of a tax-inclusive total. Subtotal is rounded to
// cents and tva takes the remainder, so subtotal+tva == total exactly.
func SplitTax(total, rate decimal.Decimal) (subtotal, tva decimal.Decimal, err error) {
	if rate.IsNegative() || rate.GreaterThanOrEqual(hundred) {
		return decimal.Zero, decimal.Zero, ErrInvalidTaxRate
	}
	divisor := decimal.NewFromInt(1).Add(rate.Div(hundred))
	subtotal = total.Div(divisor).Round(2)
	return subtotal, total.Sub(subtotal), nil
}

// Build prices the cart against the catalog as it is now and freezes name,
// price and cost into each line.
func Build(c *cart.Cart, cat cart.Catalog, sc Context) (models.Sale, error) {
	if c == nil || c.IsEmpty() {
		return models.Sale{}, ErrEmptyCart
	}
	if sc.Sequence <= 0 {
		return models.Sale{}, ErrInvalidSequence
	}

	lines := c.Lines()
	items := make(models.SaleItems, 0, len(lines))
	total, totalCost := decimal.Zero, decimal.Zero
	for _, l := range lines {
		p, ok := cat.Product(l.ProductID)
		if !ok {
			return models.Sale{}, fmt.Errorf("%w: %s", ErrUnknownProduct, l.ProductID)
		}
		it := models.SaleItem{
			ProductID:   p.ID,
			ProductName: p.Name,
			Category:    p.Category,
			Quantity:    l.Quantity,
			Price:       p.Price,
			UnitCost:    p.CostPrice,
		}
		items = append(items, it)
		total = total.Add(it.LineTotal())
		totalCost = totalCost.Add(it.LineCost())
	}
	if !total.IsPositive() {
		return models.Sale{}, ErrEmptyCart
	}

	subtotal, tva, err := SplitTax(total, sc.TaxRate)
	if err != nil {
		return models.Sale{}, err
	}

	now := sc.Now
	if now.IsZero() {
		now = time.Now()
	}

	return models.Sale{
		ID:            uuid.NewString(),
		OrderNumber:   OrderNumber(sc.Sequence),
		StoreID:       sc.StoreID,
		TableNumber:   sc.TableNumber,
		CustomerName:  sc.CustomerName,
		Timestamp:     now,
		Items:         items,
		Subtotal:      subtotal,
		TVAAmount:     tva,
		Total:         total,
		TotalCost:     totalCost,
		PaymentStatus: models.PaymentPending,
		ManagedBy:     sc.Cashier,
	}, nil
}
