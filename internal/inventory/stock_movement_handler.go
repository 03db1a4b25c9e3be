package inventory

import (
	"log"

	"bistrogest/internal/store"

	"github.com/gofiber/fiber/v2"
)

const defaultMovementLimit = 200

// GET /api/stock-movements?product_id=1&limit=50
func ListStockMovementsHandler(st *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit := c.QueryInt("limit", defaultMovementLimit)
		if limit <= 0 || limit > 1000 {
			limit = defaultMovementLimit
		}

		moves, err := st.ListStockMovements(c.UserContext(), c.Query("product_id"), limit)
		if err != nil {
			log.Printf("[ERROR] list stock movements: %v", err)
			return fiber.NewError(fiber.StatusInternalServerError, "stock movements could not be listed")
		}
		return c.JSON(moves)
	}
}

// GET /api/stock/summary
func StockSummaryHandler(svc CatalogService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		low := svc.LowStock()
		return c.JSON(fiber.Map{
			"productCount": len(svc.Products()),
			"stockValue":   svc.StockValue(),
			"lowStock":     low,
			"lowCount":     len(low),
		})
	}
}
