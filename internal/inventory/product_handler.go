package inventory

import (
	"context"
	"errors"
	"log"
	"strings"

	"bistrogest/internal/auth"
	"bistrogest/internal/models"
	"bistrogest/internal/store"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// CatalogService is the state owner seen from the catalog screens. Every write
// goes through it so the in-memory ledger never drifts from the store.
type CatalogService interface {
	Products() []models.Product
	Product(id string) (models.Product, bool)
	LowStock() []models.Product
	StockValue() decimal.Decimal
	Categories() []string
	SetCategories(ctx context.Context, categories []string) error
	UpsertProduct(ctx context.Context, p models.Product, user string) (models.Product, error)
	ReplaceProducts(ctx context.Context, products []models.Product, user string) error
	DeleteProduct(ctx context.Context, id, user string) error
	SetStock(ctx context.Context, id string, stock int, user string) (models.Product, error)
}

func catalogError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrUnknownProduct), errors.Is(err, store.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, "product not found")
	case errors.Is(err, ErrInvalidProduct), errors.Is(err, ErrNegativeStock), errors.Is(err, ErrUnsupportedImage):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	default:
		log.Printf("[ERROR] catalog: %v", err)
		return fiber.NewError(fiber.StatusInternalServerError, "catalog update failed")
	}
}

type ProductResponse struct {
	models.Product
	IsLow bool `json:"isLow"`
}

func toResponse(p models.Product) ProductResponse {
	return ProductResponse{Product: p, IsLow: p.IsLow()}
}

type CreateProductRequest struct {
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	CostPrice   decimal.Decimal `json:"costPrice"`
	Stock       int             `json:"stock"`
	Threshold   int             `json:"threshold"`
	Category    string          `json:"category"`
	HasConsigne bool            `json:"hasConsigne"`
}

type UpdateProductRequest struct {
	Name        *string          `json:"name"`
	Price       *decimal.Decimal `json:"price"`
	CostPrice   *decimal.Decimal `json:"costPrice"`
	Stock       *int             `json:"stock"`
	Threshold   *int             `json:"threshold"`
	Category    *string          `json:"category"`
	HasConsigne *bool            `json:"hasConsigne"`
}

// GET /api/products?category=Boisson&low=true
func ListProductsHandler(svc CatalogService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		products := svc.Products()
		if c.QueryBool("low", false) {
			products = svc.LowStock()
		}
		category := strings.TrimSpace(c.Query("category"))

		res := make([]ProductResponse, 0, len(products))
		for _, p := range products {
			if category != "" && !strings.EqualFold(p.Category, category) {
				continue
			}
			res = append(res, toResponse(p))
		}
		return c.JSON(res)
	}
}

// GET /api/products/:id
func GetProductHandler(svc CatalogService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, ok := svc.Product(c.Params("id"))
		if !ok {
			return fiber.NewError(fiber.StatusNotFound, "product not found")
		}
		return c.JSON(toResponse(p))
	}
}

// POST /api/products
func CreateProductHandler(svc CatalogService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateProductRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		p, err := svc.UpsertProduct(c.UserContext(), models.Product{
			Name:        body.Name,
			Price:       body.Price,
			CostPrice:   body.CostPrice,
			Stock:       body.Stock,
			Threshold:   body.Threshold,
			Category:    body.Category,
			HasConsigne: body.HasConsigne,
		}, auth.UserName(c))
		if err != nil {
			return catalogError(err)
		}
		return c.Status(fiber.StatusCreated).JSON(toResponse(p))
	}
}

// PUT /api/products/:id (only the fields sent change)
func UpdateProductHandler(svc CatalogService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, ok := svc.Product(c.Params("id"))
		if !ok {
			return fiber.NewError(fiber.StatusNotFound, "product not found")
		}

		var body UpdateProductRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		if body.Name != nil {
			p.Name = *body.Name
		}
		if body.Price != nil {
			p.Price = *body.Price
		}
		if body.CostPrice != nil {
			p.CostPrice = *body.CostPrice
		}
		if body.Stock != nil {
			p.Stock = *body.Stock
		}
		if body.Threshold != nil {
			p.Threshold = *body.Threshold
		}
		if body.Category != nil {
			p.Category = *body.Category
		}
		if body.HasConsigne != nil {
			p.HasConsigne = *body.HasConsigne
		}

		updated, err := svc.UpsertProduct(c.UserContext(), p, auth.UserName(c))
		if err != nil {
			return catalogError(err)
		}
		return c.JSON(toResponse(updated))
	}
}

// PUT /api/products (whole catalog)
func ReplaceProductsHandler(svc CatalogService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body []models.Product
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := svc.ReplaceProducts(c.UserContext(), body, auth.UserName(c)); err != nil {
			return catalogError(err)
		}
		return c.JSON(svc.Products())
	}
}

// DELETE /api/products/:id
func DeleteProductHandler(svc CatalogService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := svc.DeleteProduct(c.UserContext(), c.Params("id"), auth.UserName(c)); err != nil {
			return catalogError(err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

type SetStockRequest struct {
	Stock *int `json:"stock"`
}

// PUT /api/products/:id/stock (stock count, absolute value)
func SetStockHandler(svc CatalogService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body SetStockRequest
		if err := c.BodyParser(&body); err != nil || body.Stock == nil {
			return fiber.NewError(fiber.StatusBadRequest, "stock is required")
		}

		p, err := svc.SetStock(c.UserContext(), c.Params("id"), *body.Stock, auth.UserName(c))
		if err != nil {
			return catalogError(err)
		}
		return c.JSON(toResponse(p))
	}
}

// POST /api/products/:id/image (multipart field "image")
func UploadProductImageHandler(svc CatalogService, imageDir string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, ok := svc.Product(c.Params("id"))
		if !ok {
			return fiber.NewError(fiber.StatusNotFound, "product not found")
		}

		fileHeader, err := c.FormFile("image")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "image file is required")
		}
		f, err := fileHeader.Open()
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "image could not be read")
		}
		defer f.Close()

		name, err := SaveProductImage(f, imageDir, p.ID)
		if err != nil {
			return catalogError(err)
		}

		p.Image = "/product-images/" + name
		updated, err := svc.UpsertProduct(c.UserContext(), p, auth.UserName(c))
		if err != nil {
			return catalogError(err)
		}
		return c.JSON(toResponse(updated))
	}
}
