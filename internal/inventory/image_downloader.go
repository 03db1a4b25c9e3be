package inventory

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"bistrogest/internal/auth"

	"github.com/gofiber/fiber/v2"
)

var ErrBadImageURL = errors.New("image url must be http or https")

var imageClient = &http.Client{Timeout: 30 * time.Second}

// DownloadProductImage fetches a remote picture and stores it like an upload.
// It returns the saved file name.
func DownloadProductImage(ctx context.Context, client *http.Client, rawURL, dir, productID string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", ErrBadImageURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "BistroGest/2.6")

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download image: status %d", resp.StatusCode)
	}

	return SaveProductImage(resp.Body, dir, productID)
}

// POST /api/products/:id/image-url {"url": "https://..."}
func DownloadProductImageHandler(svc CatalogService, imageDir string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, ok := svc.Product(c.Params("id"))
		if !ok {
			return fiber.NewError(fiber.StatusNotFound, "product not found")
		}

		var body struct {
			URL string `json:"url"`
		}
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid body")
		}

		name, err := DownloadProductImage(c.UserContext(), imageClient, body.URL, imageDir, p.ID)
		if err != nil {
			if errors.Is(err, ErrBadImageURL) || errors.Is(err, ErrUnsupportedImage) {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
			return fiber.NewError(fiber.StatusBadGateway, "image could not be downloaded")
		}

		p.Image = "/product-images/" + name
		updated, err := svc.UpsertProduct(c.UserContext(), p, auth.UserName(c))
		if err != nil {
			return catalogError(err)
		}
		return c.JSON(toResponse(updated))
	}
}
