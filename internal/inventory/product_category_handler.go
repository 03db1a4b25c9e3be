package inventory

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

type CreateProductCategoryRequest struct {
	Name string `json:"name"`
}

// GET /api/categories
func ListProductCategoriesHandler(svc CatalogService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(svc.Categories())
	}
}

// PUT /api/categories (whole list, order kept)
func ReplaceProductCategoriesHandler(svc CatalogService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body []string
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := svc.SetCategories(c.UserContext(), body); err != nil {
			return catalogError(err)
		}
		return c.JSON(svc.Categories())
	}
}

// POST /api/categories
func CreateProductCategoryHandler(svc CatalogService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateProductCategoryRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		name := strings.TrimSpace(body.Name)
		if name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "category name is required")
		}

		current := svc.Categories()
		for _, existing := range current {
			if strings.EqualFold(existing, name) {
				return fiber.NewError(fiber.StatusConflict, "category already exists")
			}
		}

		if err := svc.SetCategories(c.UserContext(), append(current, name)); err != nil {
			return catalogError(err)
		}
		return c.Status(fiber.StatusCreated).JSON(svc.Categories())
	}
}

// DELETE /api/categories/:name
// Products keep their category label; only the picker list changes.
func DeleteProductCategoryHandler(svc CatalogService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		name := strings.TrimSpace(c.Params("name"))
		current := svc.Categories()
		next := make([]string, 0, len(current))
		for _, existing := range current {
			if !strings.EqualFold(existing, name) {
				next = append(next, existing)
			}
		}
		if len(next) == len(current) {
			return fiber.NewError(fiber.StatusNotFound, "category not found")
		}

		if err := svc.SetCategories(c.UserContext(), next); err != nil {
			return catalogError(err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
