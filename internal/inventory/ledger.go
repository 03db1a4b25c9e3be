package inventory

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"bistrogest/internal/models"

	"github.com/shopspring/decimal"
)

var (
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrUnknownProduct    = errors.New("unknown product")
	ErrNegativeStock     = errors.New("stock cannot be negative")
	ErrInvalidProduct    = errors.New("invalid product")
)

// Shortfall is one line that cannot be served from current stock.
type Shortfall struct {
	ProductID   string `json:"productId"`
	ProductName string `json:"productName"`
	Requested   int    `json:"requested"`
	Available   int    `json:"available"`
}

// InsufficientStockError names every failing line of a commit.
type InsufficientStockError struct {
	Lines []Shortfall
}

func (e *InsufficientStockError) Error() string {
	parts := make([]string, 0, len(e.Lines))
	for _, l := range e.Lines {
		name := l.ProductName
		if name == "" {
			name = l.ProductID
		}
		parts = append(parts, fmt.Sprintf("%s (requested %d, available %d)", name, l.Requested, l.Available))
	}
	return "insufficient stock: " + strings.Join(parts, ", ")
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// Ledger is the in-memory product snapshot. It is not safe for concurrent use;
// the POS service serializes every access.
type Ledger struct {
	products map[string]models.Product
	order    []string
}

func NewLedger(products []models.Product) *Ledger {
	l := &Ledger{}
	l.Replace(products)
	return l
}

// Replace swaps the whole catalog (administrative overwrite or reload).
func (l *Ledger) Replace(products []models.Product) {
	l.products = make(map[string]models.Product, len(products))
	l.order = make([]string, 0, len(products))
	for _, p := range products {
		if _, dup := l.products[p.ID]; !dup {
			l.order = append(l.order, p.ID)
		}
		l.products[p.ID] = p
	}
}

func (l *Ledger) Product(id string) (models.Product, bool) {
	p, ok := l.products[id]
	return p, ok
}

func (l *Ledger) Products() []models.Product {
	out := make([]models.Product, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, l.products[id])
	}
	return out
}

func (l *Ledger) Len() int { return len(l.order) }

// Put inserts or overwrites one product.
func (l *Ledger) Put(p models.Product) {
	if _, ok := l.products[p.ID]; !ok {
		l.order = append(l.order, p.ID)
	}
	l.products[p.ID] = p
}

func (l *Ledger) Remove(id string) {
	if _, ok := l.products[id]; !ok {
		return
	}
	delete(l.products, id)
	for i, v := range l.order {
		if v == id {
			l.order = append(l.order[:i], l.order[i+1:]...)
			break
		}
	}
}

// CanFulfill reports whether qty more units fit on top of what the cart already holds.
func (l *Ledger) CanFulfill(id string, qty, inCart int) bool {
	p, ok := l.products[id]
	if !ok || qty <= 0 {
		return false
	}
	return p.Stock-inCart >= qty
}

// Shortfalls checks every line against current stock. Lines for the same
// product are summed before comparing.
func (l *Ledger) Shortfalls(items []models.SaleItem) []Shortfall {
	requested := make(map[string]int)
	var ids []string
	for _, it := range items {
		if _, seen := requested[it.ProductID]; !seen {
			ids = append(ids, it.ProductID)
		}
		requested[it.ProductID] += it.Quantity
	}

	var out []Shortfall
	for _, id := range ids {
		p, ok := l.products[id]
		if !ok {
			out = append(out, Shortfall{ProductID: id, Requested: requested[id]})
			continue
		}
		if requested[id] > p.Stock {
			out = append(out, Shortfall{ProductID: id, ProductName: p.Name, Requested: requested[id], Available: p.Stock})
		}
	}
	return out
}

// Check returns an *InsufficientStockError when any line cannot be served.
func (l *Ledger) Check(items []models.SaleItem) error {
	if s := l.Shortfalls(items); len(s) > 0 {
		return &InsufficientStockError{Lines: s}
	}
	return nil
}

// Apply decrements stock for every line. Nothing changes unless every line fits.
func (l *Ledger) Apply(items []models.SaleItem) ([]models.Product, error) {
	for _, it := range items {
		if it.Quantity <= 0 {
			return nil, fmt.Errorf("product %s: quantity must be positive, got %d", it.ProductID, it.Quantity)
		}
	}
	if err := l.Check(items); err != nil {
		return nil, err
	}

	var updated []models.Product
	touched := make(map[string]int)
	for _, it := range items {
		p := l.products[it.ProductID]
		p.Stock -= it.Quantity
		l.products[it.ProductID] = p
		if i, ok := touched[p.ID]; ok {
			updated[i] = p
			continue
		}
		touched[p.ID] = len(updated)
		updated = append(updated, p)
	}
	return updated, nil
}

// SetStock overwrites the on-hand quantity and returns the previous value.
func (l *Ledger) SetStock(id string, stock int) (int, error) {
	if stock < 0 {
		return 0, ErrNegativeStock
	}
	p, ok := l.products[id]
	if !ok {
		return 0, ErrUnknownProduct
	}
	before := p.Stock
	p.Stock = stock
	l.products[id] = p
	return before, nil
}

// LowStock lists products at or below their threshold, lowest stock first.
func (l *Ledger) LowStock() []models.Product {
	var out []models.Product
	for _, id := range l.order {
		if p := l.products[id]; p.IsLow() {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Stock < out[j].Stock })
	return out
}

// StockValue is the on-hand inventory valued at cost.
func (l *Ledger) StockValue() decimal.Decimal {
	total := decimal.Zero
	for _, p := range l.products {
		total = total.Add(p.CostPrice.Mul(decimal.NewFromInt(int64(p.Stock))))
	}
	return total
}
