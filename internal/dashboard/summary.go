// Package dashboard computes the owner's figures from the state snapshot.
package dashboard

import (
	"sort"
	"time"

	"bistrogest/internal/models"

	"github.com/shopspring/decimal"
)

const daysPerMonth = 30

// Source is the read side of the state owner.
type Source interface {
	Sales() []models.Sale
	StockValue() decimal.Decimal
	LowStock() []models.Product
	Settings() models.Settings
	Crates() models.CrateStock
}

type TopProduct struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

type Summary struct {
	SalesCount     int               `json:"salesCount"`
	GrossRevenue   decimal.Decimal   `json:"grossRevenue"`
	TotalCost      decimal.Decimal   `json:"totalCost"`
	Margin         decimal.Decimal   `json:"margin"`
	TVACollected   decimal.Decimal   `json:"tvaCollected"`
	StockValue     decimal.Decimal   `json:"stockValue"`
	MonthlyCharges decimal.Decimal   `json:"monthlyCharges"`
	DailyTarget    decimal.Decimal   `json:"dailyTarget"`
	TodayRevenue   decimal.Decimal   `json:"todayRevenue"`
	TodayCount     int               `json:"todayCount"`
	TopProducts    []TopProduct      `json:"topProducts"`
	LowStock       []models.Product  `json:"lowStock"`
	Crates         models.CrateStock `json:"crates"`
}

// Summarize totals every sale; "today" is the calendar day of now in now's location.
func Summarize(sales []models.Sale, stockValue decimal.Decimal, low []models.Product, settings models.Settings, crates models.CrateStock, now time.Time) Summary {
	s := Summary{
		SalesCount:     len(sales),
		GrossRevenue:   decimal.Zero,
		TotalCost:      decimal.Zero,
		TVACollected:   decimal.Zero,
		StockValue:     stockValue,
		TodayRevenue:   decimal.Zero,
		MonthlyCharges: settings.MonthlyFixedCharges(),
		LowStock:       low,
		Crates:         crates,
	}
	if s.LowStock == nil {
		s.LowStock = []models.Product{}
	}
	s.DailyTarget = s.MonthlyCharges.Div(decimal.NewFromInt(daysPerMonth)).Round(0)

	today := dayKey(now, now.Location())
	for _, sl := range sales {
		s.GrossRevenue = s.GrossRevenue.Add(sl.Total)
		s.TotalCost = s.TotalCost.Add(sl.TotalCost)
		s.TVACollected = s.TVACollected.Add(sl.TVAAmount)
		if dayKey(sl.Timestamp, now.Location()) == today {
			s.TodayRevenue = s.TodayRevenue.Add(sl.Total)
			s.TodayCount++
		}
	}
	s.Margin = s.GrossRevenue.Sub(s.TotalCost)

	s.TopProducts = TopProducts(sales, 5)
	return s
}

// TopProducts ranks product names by units sold, ties by name.
func TopProducts(sales []models.Sale, n int) []TopProduct {
	counts := map[string]int{}
	for _, sl := range sales {
		for _, it := range sl.Items {
			counts[it.ProductName] += it.Quantity
		}
	}

	out := make([]TopProduct, 0, len(counts))
	for name, q := range counts {
		out = append(out, TopProduct{Name: name, Quantity: q})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Quantity != out[j].Quantity {
			return out[i].Quantity > out[j].Quantity
		}
		return out[i].Name < out[j].Name
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func dayKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("2006-01-02")
}
