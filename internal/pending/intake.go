// Package pending covers digital-menu orders waiting for staff. Intake never
// touches stock; lines are checked again when the order is checked out.
package pending

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"bistrogest/internal/cart"
	"bistrogest/internal/inventory"
	"bistrogest/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var ErrInvalidSubmission = errors.New("invalid order submission")

const minCustomerName = 2

// Submission is what the digital menu sends.
type Submission struct {
	CustomerName string
	TableNumber  string
	WaiterName   string
	Now          time.Time
}

// Validate rejects short customer names, blank tables and empty carts.
func (s Submission) Validate(c *cart.Cart) error {
	if utf8.RuneCountInString(strings.TrimSpace(s.CustomerName)) < minCustomerName {
		return fmt.Errorf("%w: customer name needs at least %d characters", ErrInvalidSubmission, minCustomerName)
	}
	if strings.TrimSpace(s.TableNumber) == "" {
		return fmt.Errorf("%w: table number is required", ErrInvalidSubmission)
	}
	if c == nil || c.IsEmpty() {
		return fmt.Errorf("%w: no items", ErrInvalidSubmission)
	}
	return nil
}

// Submit captures the cart lines by value into a PENDING order.
func Submit(c *cart.Cart, cat cart.Catalog, s Submission) (models.PendingOrder, error) {
	if err := s.Validate(c); err != nil {
		return models.PendingOrder{}, err
	}

	items := make(models.SaleItems, 0, len(c.Lines()))
	total := decimal.Zero
	for _, l := range c.Lines() {
		p, ok := cat.Product(l.ProductID)
		if !ok {
			return models.PendingOrder{}, fmt.Errorf("%w: unknown product %s", ErrInvalidSubmission, l.ProductID)
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
	}

	now := s.Now
	if now.IsZero() {
		now = time.Now()
	}

	return models.PendingOrder{
		ID:           uuid.NewString(),
		CustomerName: strings.TrimSpace(s.CustomerName),
		TableNumber:  strings.TrimSpace(s.TableNumber),
		WaiterName:   strings.TrimSpace(s.WaiterName),
		Items:        items,
		Timestamp:    now,
		Total:        total,
		Status:       models.PendingStatusPending,
	}, nil
}

// Load rebuilds the cart for staff review and reports lines that no longer fit
// current stock. The cart keeps the requested quantities; checkout rejects them
// unless staff adjust the cart first.
func Load(order models.PendingOrder, ledger *inventory.Ledger) (*cart.Cart, []inventory.Shortfall) {
	return cart.FromItems(order.Items), ledger.Shortfalls(order.Items)
}

// Find returns the position of id in the queue, or -1.
func Find(queue []models.PendingOrder, id string) int {
	for i, o := range queue {
		if o.ID == id {
			return i
		}
	}
	return -1
}
