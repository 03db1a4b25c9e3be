package inventory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"bistrogest/internal/auth"
	"bistrogest/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

var ErrEmptySheet = errors.New("spreadsheet has no rows")

// catalog sheet columns: Nom | Prix | Prix d'achat | Stock | Seuil | Catégorie | Consigne
const (
	colName = iota
	colPrice
	colCost
	colStock
	colThreshold
	colCategory
	colConsigne
)

var accentFolder = strings.NewReplacer(
	"à", "a", "â", "a", "ä", "a",
	"é", "e", "è", "e", "ê", "e", "ë", "e",
	"î", "i", "ï", "i",
	"ô", "o", "ö", "o",
	"ù", "u", "û", "u", "ü", "u",
	"ç", "c",
)

// normalizeProductName lowercases, folds French accents and collapses spaces,
// so "  Régab  65CL" and "regab 65cl" match.
func normalizeProductName(s string) string {
	return strings.Join(strings.Fields(accentFolder.Replace(strings.ToLower(s))), " ")
}

// CatalogRow is one parsed line of a catalog sheet.
type CatalogRow struct {
	Line        int
	Name        string
	Price       decimal.Decimal
	CostPrice   decimal.Decimal
	Stock       int
	Threshold   int
	Category    string
	HasConsigne bool
}

type RowError struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

func cell(row []string, i int) string {
	if i < len(row) {
		return strings.TrimSpace(row[i])
	}
	return ""
}

func isHeader(row []string) bool {
	first := normalizeProductName(cell(row, colName))
	return first == "nom" || first == "produit" || first == "name" || first == "product"
}

func parseMoney(v string) (decimal.Decimal, error) {
	v = strings.ReplaceAll(strings.ReplaceAll(v, " ", ""), ",", ".")
	if v == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(v)
}

func parseCount(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	return strconv.Atoi(strings.ReplaceAll(v, " ", ""))
}

// ParseCatalogSheet reads the first sheet of an XLSX file. A header row is
// skipped when present; bad rows are reported and left out.
func ParseCatalogSheet(r io.Reader) ([]CatalogRow, []RowError, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, ErrEmptySheet
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, nil, err
	}
	if len(rows) == 0 {
		return nil, nil, ErrEmptySheet
	}

	start := 0
	if isHeader(rows[0]) {
		start = 1
	}

	var out []CatalogRow
	var bad []RowError
	for i := start; i < len(rows); i++ {
		row := rows[i]
		line := i + 1
		name := cell(row, colName)
		if name == "" {
			continue
		}

		price, err := parseMoney(cell(row, colPrice))
		if err != nil {
			bad = append(bad, RowError{Line: line, Reason: "invalid price"})
			continue
		}
		cost, err := parseMoney(cell(row, colCost))
		if err != nil {
			bad = append(bad, RowError{Line: line, Reason: "invalid cost price"})
			continue
		}
		stock, err := parseCount(cell(row, colStock))
		if err != nil || stock < 0 {
			bad = append(bad, RowError{Line: line, Reason: "invalid stock"})
			continue
		}
		threshold, err := parseCount(cell(row, colThreshold))
		if err != nil || threshold < 0 {
			bad = append(bad, RowError{Line: line, Reason: "invalid threshold"})
			continue
		}
		consigne := normalizeProductName(cell(row, colConsigne))

		out = append(out, CatalogRow{
			Line:        line,
			Name:        name,
			Price:       price,
			CostPrice:   cost,
			Stock:       stock,
			Threshold:   threshold,
			Category:    cell(row, colCategory),
			HasConsigne: consigne == "oui" || consigne == "yes" || consigne == "1" || consigne == "x",
		})
	}
	return out, bad, nil
}

type ImportResult struct {
	Created []string   `json:"created"`
	Updated []string   `json:"updated"`
	Skipped []RowError `json:"skipped"`
}

// ImportCatalog upserts parsed rows, matching existing products by normalized name.
// An empty category keeps the current one.
func ImportCatalog(ctx context.Context, svc CatalogService, rows []CatalogRow, user string) (ImportResult, error) {
	res := ImportResult{Created: []string{}, Updated: []string{}, Skipped: []RowError{}}

	byName := make(map[string]models.Product)
	for _, p := range svc.Products() {
		byName[normalizeProductName(p.Name)] = p
	}

	for _, r := range rows {
		p, exists := byName[normalizeProductName(r.Name)]
		if !exists {
			p = models.Product{Name: r.Name}
		}
		p.Price = r.Price
		p.CostPrice = r.CostPrice
		p.Stock = r.Stock
		p.Threshold = r.Threshold
		p.HasConsigne = r.HasConsigne
		if r.Category != "" {
			p.Category = r.Category
		}

		saved, err := svc.UpsertProduct(ctx, p, user)
		if err != nil {
			if errors.Is(err, ErrInvalidProduct) {
				res.Skipped = append(res.Skipped, RowError{Line: r.Line, Reason: err.Error()})
				continue
			}
			return res, err
		}
		byName[normalizeProductName(saved.Name)] = saved
		if exists {
			res.Updated = append(res.Updated, saved.Name)
		} else {
			res.Created = append(res.Created, saved.Name)
		}
	}
	return res, nil
}

// POST /api/products/import (multipart field "file", .xlsx)
func ImportCatalogHandler(svc CatalogService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fileHeader, err := c.FormFile("file")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "file is required")
		}
		if !strings.HasSuffix(strings.ToLower(fileHeader.Filename), ".xlsx") {
			return fiber.NewError(fiber.StatusBadRequest, "only .xlsx files are accepted")
		}

		file, err := fileHeader.Open()
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "file could not be opened")
		}
		defer file.Close()

		rows, bad, err := ParseCatalogSheet(file)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("spreadsheet could not be read: %v", err))
		}

		res, err := ImportCatalog(c.UserContext(), svc, rows, auth.UserName(c))
		if err != nil {
			return catalogError(err)
		}
		res.Skipped = append(append([]RowError{}, bad...), res.Skipped...)
		return c.JSON(res)
	}
}
