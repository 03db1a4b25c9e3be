// Package checkout persists a built sale and its stock effects as one unit.
package checkout

import (
	"context"
	"errors"
	"fmt"

	"bistrogest/internal/audit"
	"bistrogest/internal/inventory"
	"bistrogest/internal/metrics"
	"bistrogest/internal/models"
	"bistrogest/internal/store"

	"github.com/google/uuid"
)

var ErrInvalidSale = errors.New("sale has no valid lines")

type Committer struct {
	store *store.Store
}

func NewCommitter(st *store.Store) *Committer {
	return &Committer{store: st}
}

// Commit runs in a single database transaction: re-check every line against the
// persisted stock, insert the sale, decrement each product with a guarded update,
// record one stock movement per line and a SALE activity entry. On any error
// nothing is written. It returns the products as they are after the commit.
func (c *Committer) Commit(ctx context.Context, sale models.Sale) ([]models.Product, error) {
	if len(sale.Items) == 0 {
		metrics.RecordRejection(metrics.ReasonInvalid)
		return nil, ErrInvalidSale
	}
	for _, it := range sale.Items {
		if it.Quantity <= 0 {
			metrics.RecordRejection(metrics.ReasonInvalid)
			return nil, fmt.Errorf("%w: %s quantity %d", ErrInvalidSale, it.ProductID, it.Quantity)
		}
	}

	var updated []models.Product
	err := c.store.Transaction(ctx, func(tx *store.Store) error {
		current, err := persisted(ctx, tx, sale.Items)
		if err != nil {
			return err
		}
		if err := inventory.NewLedger(current).Check(sale.Items); err != nil {
			return err
		}

		if err := tx.AddSale(ctx, sale); err != nil {
			return err
		}

		stock := make(map[string]int, len(current))
		for _, p := range current {
			stock[p.ID] = p.Stock
		}
		for _, it := range sale.Items {
			ok, err := tx.DecrementStock(ctx, it.ProductID, it.Quantity)
			if err != nil {
				return err
			}
			if !ok {
				// stock moved between the check and the update
				return &inventory.InsufficientStockError{Lines: []inventory.Shortfall{{
					ProductID: it.ProductID, ProductName: it.ProductName, Requested: it.Quantity, Available: stock[it.ProductID],
				}}}
			}
			before := stock[it.ProductID]
			stock[it.ProductID] = before - it.Quantity
			if err := tx.AddStockMovement(ctx, models.StockMovement{
				ID:          uuid.NewString(),
				ProductID:   it.ProductID,
				Reason:      models.MovementSale,
				Quantity:    -it.Quantity,
				StockBefore: before,
				StockAfter:  before - it.Quantity,
				ReferenceID: sale.ID,
				CreatedBy:   sale.ManagedBy,
				CreatedAt:   sale.Timestamp,
			}); err != nil {
				return err
			}
		}

		total := sale.Total
		if err := audit.WriteLog(tx.DB().WithContext(ctx), audit.LogOptions{
			Type:        models.ActivitySale,
			UserName:    sale.ManagedBy,
			EntityType:  "sale",
			EntityID:    sale.OrderNumber,
			Description: fmt.Sprintf("Sale %s (%s)", sale.OrderNumber, sale.PaymentMethod),
			Amount:      &total,
			After:       sale,
		}); err != nil {
			return err
		}

		updated, err = persisted(ctx, tx, sale.Items)
		return err
	})
	if err != nil {
		if errors.Is(err, inventory.ErrInsufficientStock) {
			metrics.RecordRejection(metrics.ReasonStock)
		} else {
			metrics.RecordRejection(metrics.ReasonStorage)
		}
		return nil, err
	}

	metrics.RecordSale(string(sale.PaymentMethod), sale.Total)
	return updated, nil
}

// persisted loads the distinct products referenced by items. Unknown ids are
// skipped so the stock check reports them as shortfalls.
func persisted(ctx context.Context, tx *store.Store, items []models.SaleItem) ([]models.Product, error) {
	seen := make(map[string]bool, len(items))
	var out []models.Product
	for _, it := range items {
		if seen[it.ProductID] {
			continue
		}
		seen[it.ProductID] = true
		p, err := tx.GetProduct(ctx, it.ProductID)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}
