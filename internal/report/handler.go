package report

import (
	"bytes"
	"fmt"
	"log"
	"time"

	"bistrogest/internal/models"

	"github.com/gofiber/fiber/v2"
)

const xlsxMIME = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type Source interface {
	Sales() []models.Sale
	Settings() models.Settings
}

// query applies ?q= and the optional ?from=/&to= day bounds (yyyy-mm-dd, to inclusive).
func query(c *fiber.Ctx, src Source, loc *time.Location) ([]models.Sale, error) {
	var from, to time.Time
	if v := c.Query("from"); v != "" {
		d, err := time.ParseInLocation("2006-01-02", v, loc)
		if err != nil {
			return nil, fiber.NewError(fiber.StatusBadRequest, "from must be YYYY-MM-DD")
		}
		from = d
	}
	if v := c.Query("to"); v != "" {
		d, err := time.ParseInLocation("2006-01-02", v, loc)
		if err != nil {
			return nil, fiber.NewError(fiber.StatusBadRequest, "to must be YYYY-MM-DD")
		}
		to = d.AddDate(0, 0, 1)
	}
	return Filter(Range(src.Sales(), from, to), c.Query("q")), nil
}

// GET /api/sales?q=regab&from=2024-06-01&to=2024-06-30
func ListSalesHandler(src Source, loc *time.Location) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sales, err := query(c, src, loc)
		if err != nil {
			return err
		}
		if sales == nil {
			sales = []models.Sale{}
		}
		return c.JSON(fiber.Map{
			"sales": sales,
			"count": len(sales),
			"total": Total(sales),
		})
	}
}

// GET /api/sales/:id
func GetSaleHandler(src Source) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		for _, s := range src.Sales() {
			if s.ID == id || s.OrderNumber == id {
				return c.JSON(s)
			}
		}
		return fiber.NewError(fiber.StatusNotFound, "sale not found")
	}
}

// GET /api/reports/sales.csv
func ExportCSVHandler(src Source, loc *time.Location) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sales, err := query(c, src, loc)
		if err != nil {
			return err
		}
		if len(sales) == 0 {
			return fiber.NewError(fiber.StatusNotFound, "no sales to export")
		}

		buf := &bytes.Buffer{}
		if err := WriteCSV(buf, sales, loc); err != nil {
			log.Printf("[ERROR] csv export: %v", err)
			return fiber.NewError(fiber.StatusInternalServerError, "export failed")
		}

		name := FileName(src.Settings().BistroName, "csv", time.Now().In(loc))
		c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, name))
		return c.Send(buf.Bytes())
	}
}

// GET /api/reports/sales.xlsx
func ExportXLSXHandler(src Source, loc *time.Location) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sales, err := query(c, src, loc)
		if err != nil {
			return err
		}
		if len(sales) == 0 {
			return fiber.NewError(fiber.StatusNotFound, "no sales to export")
		}

		buf := &bytes.Buffer{}
		if err := WriteXLSX(buf, sales, loc); err != nil {
			log.Printf("[ERROR] xlsx export: %v", err)
			return fiber.NewError(fiber.StatusInternalServerError, "export failed")
		}

		name := FileName(src.Settings().BistroName, "xlsx", time.Now().In(loc))
		c.Set(fiber.HeaderContentType, xlsxMIME)
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, name))
		return c.Send(buf.Bytes())
	}
}
