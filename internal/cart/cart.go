// Package cart holds the active checkout basket: product id to quantity, in the
// order lines were first added.
package cart

import (
	"bistrogest/internal/models"

	"github.com/shopspring/decimal"
)

// Catalog resolves the current product record and answers stock questions;
// the stock ledger satisfies it.
type Catalog interface {
	Product(id string) (models.Product, bool)
	CanFulfill(id string, qty, inCart int) bool
}

type Line struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// Cart is transient. The zero value is an empty cart.
type Cart struct {
	qty   map[string]int
	order []string
}

func New() *Cart { return &Cart{} }

// FromItems rebuilds a cart from recorded lines (e.g. a pending order).
func FromItems(items []models.SaleItem) *Cart {
	c := New()
	for _, it := range items {
		if it.Quantity > 0 {
			c.set(it.ProductID, c.Quantity(it.ProductID)+it.Quantity)
		}
	}
	return c
}

// Add puts one more unit in the cart. It is a no-op, returning false, when the
// cart already holds the whole stock or the product is unknown.
func (c *Cart) Add(cat Catalog, id string) bool {
	if !cat.CanFulfill(id, 1, c.Quantity(id)) {
		return false
	}
	c.set(id, c.Quantity(id)+1)
	return true
}

// Remove takes one unit off; the line disappears at zero.
func (c *Cart) Remove(id string) {
	c.set(id, c.Quantity(id)-1)
}

// Delete drops the line whatever its quantity.
func (c *Cart) Delete(id string) {
	c.set(id, 0)
}

func (c *Cart) Clear() {
	c.qty = nil
	c.order = nil
}

func (c *Cart) Quantity(id string) int {
	return c.qty[id]
}

func (c *Cart) IsEmpty() bool {
	return len(c.order) == 0
}

// Count is the number of units across all lines.
func (c *Cart) Count() int {
	n := 0
	for _, q := range c.qty {
		n += q
	}
	return n
}

func (c *Cart) Lines() []Line {
	out := make([]Line, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, Line{ProductID: id, Quantity: c.qty[id]})
	}
	return out
}

// Total prices every line at the catalog's current price. Lines whose product
// left the catalog count for nothing.
func (c *Cart) Total(cat Catalog) decimal.Decimal {
	total := decimal.Zero
	for _, id := range c.order {
		p, ok := cat.Product(id)
		if !ok {
			continue
		}
		total = total.Add(p.Price.Mul(decimal.NewFromInt(int64(c.qty[id]))))
	}
	return total
}

func (c *Cart) set(id string, q int) {
	if q <= 0 {
		if _, ok := c.qty[id]; !ok {
			return
		}
		delete(c.qty, id)
		for i, v := range c.order {
			if v == id {
				c.order = append(c.order[:i], c.order[i+1:]...)
				break
			}
		}
		return
	}
	if c.qty == nil {
		c.qty = make(map[string]int)
	}
	if _, ok := c.qty[id]; !ok {
		c.order = append(c.order, id)
	}
	c.qty[id] = q
}
