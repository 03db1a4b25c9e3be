package dashboard

import (
	"time"

	"bistrogest/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

var dayLabels = [...]string{"Dim", "Lun", "Mar", "Mer", "Jeu", "Ven", "Sam"}

const (
	defaultChartDays = 7
	maxChartDays     = 90
)

type CashChartPoint struct {
	Label string          `json:"label"` // short French weekday
	Date  string          `json:"date"`  // yyyy-mm-dd
	Total decimal.Decimal `json:"total"`
	Count int             `json:"count"`
}

type CashChartResponse struct {
	From       string           `json:"from"`
	To         string           `json:"to"`
	Points     []CashChartPoint `json:"points"`
	GrandTotal decimal.Decimal  `json:"grandTotal"`
}

// RevenueChart buckets sales into the last `days` calendar days, oldest first,
// ending with now's day. Days without sales are present with a zero total.
func RevenueChart(sales []models.Sale, days int, now time.Time) CashChartResponse {
	loc := now.Location()
	y, m, d := now.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, loc).AddDate(0, 0, -(days - 1))

	points := make([]CashChartPoint, days)
	index := make(map[string]int, days)
	for i := range points {
		day := start.AddDate(0, 0, i)
		key := day.Format("2006-01-02")
		points[i] = CashChartPoint{Label: dayLabels[day.Weekday()], Date: key, Total: decimal.Zero}
		index[key] = i
	}

	grand := decimal.Zero
	for _, s := range sales {
		i, ok := index[dayKey(s.Timestamp, loc)]
		if !ok {
			continue
		}
		points[i].Total = points[i].Total.Add(s.Total)
		points[i].Count++
		grand = grand.Add(s.Total)
	}

	return CashChartResponse{
		From:       points[0].Date,
		To:         points[len(points)-1].Date,
		Points:     points,
		GrandTotal: grand,
	}
}

// GET /api/dashboard/cash-chart?days=7
func CashChartHandler(src Source, loc *time.Location) fiber.Handler {
	return func(c *fiber.Ctx) error {
		days := c.QueryInt("days", defaultChartDays)
		if days <= 0 || days > maxChartDays {
			return fiber.NewError(fiber.StatusBadRequest, "days must be between 1 and 90")
		}
		return c.JSON(RevenueChart(src.Sales(), days, time.Now().In(loc)))
	}
}

// GET /api/dashboard/summary
func SummaryHandler(src Source, loc *time.Location) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(Summarize(src.Sales(), src.StockValue(), src.LowStock(), src.Settings(), src.Crates(), time.Now().In(loc)))
	}
}
