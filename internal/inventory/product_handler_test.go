package inventory_test

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"bistrogest/internal/database"
	"bistrogest/internal/inventory"
	"bistrogest/internal/models"
	"bistrogest/internal/pos"
	"bistrogest/internal/store"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func catalogApp(t *testing.T) (*fiber.App, *pos.Service, *store.Store, string) {
	t.Helper()
	db, err := database.Open("sqlite", "file::memory:")
	require.NoError(t, err)
	st := store.New(db)
	svc := pos.NewService(st, pos.Options{StoreID: "lbv-1"})
	require.NoError(t, svc.Load(context.Background()))

	imageDir := t.TempDir()
	app := fiber.New()
	app.Get("/api/products", inventory.ListProductsHandler(svc))
	app.Get("/api/products/:id", inventory.GetProductHandler(svc))
	app.Post("/api/products", inventory.CreateProductHandler(svc))
	app.Put("/api/products/:id", inventory.UpdateProductHandler(svc))
	app.Delete("/api/products/:id", inventory.DeleteProductHandler(svc))
	app.Put("/api/products/:id/stock", inventory.SetStockHandler(svc))
	app.Post("/api/products/:id/image", inventory.UploadProductImageHandler(svc, imageDir))
	app.Get("/api/categories", inventory.ListProductCategoriesHandler(svc))
	app.Post("/api/categories", inventory.CreateProductCategoryHandler(svc))
	app.Delete("/api/categories/:name", inventory.DeleteProductCategoryHandler(svc))
	app.Get("/api/stock-movements", inventory.ListStockMovementsHandler(st))
	app.Get("/api/stock/summary", inventory.StockSummaryHandler(svc))
	return app, svc, st, imageDir
}

func send(t *testing.T, app *fiber.App, method, path, body string) (int, []byte) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, out
}

func TestCreateUpdateDeleteProduct(t *testing.T) {
	app, svc, _, _ := catalogApp(t)

	code, body := send(t, app, http.MethodPost, "/api/products",
		`{"name":"Sobraga","price":500,"costPrice":300,"stock":10,"threshold":12,"category":"Boisson","hasConsigne":true}`)
	require.Equal(t, http.StatusCreated, code)
	var created inventory.ProductResponse
	require.NoError(t, json.Unmarshal(body, &created))
	assert.NotEmpty(t, created.ID)
	assert.True(t, created.IsLow)

	code, body = send(t, app, http.MethodPut, "/api/products/"+created.ID, `{"price":550}`)
	require.Equal(t, http.StatusOK, code)
	var updated inventory.ProductResponse
	require.NoError(t, json.Unmarshal(body, &updated))
	assert.Equal(t, "550", updated.Price.String())
	assert.Equal(t, "Sobraga", updated.Name)

	code, _ = send(t, app, http.MethodPost, "/api/products", `{"name":"","price":1}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = send(t, app, http.MethodDelete, "/api/products/"+created.ID, "")
	assert.Equal(t, http.StatusNoContent, code)
	_, ok := svc.Product(created.ID)
	assert.False(t, ok)

	code, _ = send(t, app, http.MethodDelete, "/api/products/"+created.ID, "")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestSetStockRecordsMovement(t *testing.T) {
	app, _, _, _ := catalogApp(t)

	code, _ := send(t, app, http.MethodPut, "/api/products/1/stock", `{"stock":-1}`)
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = send(t, app, http.MethodPut, "/api/products/1/stock", `{}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = send(t, app, http.MethodPut, "/api/products/1/stock", `{"stock":60}`)
	require.Equal(t, http.StatusOK, code)

	code, body := send(t, app, http.MethodGet, "/api/stock-movements?product_id=1", "")
	require.Equal(t, http.StatusOK, code)
	var moves []models.StockMovement
	require.NoError(t, json.Unmarshal(body, &moves))
	require.Len(t, moves, 1)
	assert.Equal(t, 12, moves[0].Quantity)
	assert.Equal(t, models.MovementAdjustment, moves[0].Reason)
}

func TestListFiltersLowStockAndCategory(t *testing.T) {
	app, _, _, _ := catalogApp(t)

	code, _ := send(t, app, http.MethodPut, "/api/products/3/stock", `{"stock":2}`)
	require.Equal(t, http.StatusOK, code)

	_, body := send(t, app, http.MethodGet, "/api/products?low=true", "")
	var low []inventory.ProductResponse
	require.NoError(t, json.Unmarshal(body, &low))
	require.Len(t, low, 1)
	assert.Equal(t, "3", low[0].ID)

	_, body = send(t, app, http.MethodGet, "/api/products?category=nourriture", "")
	var food []inventory.ProductResponse
	require.NoError(t, json.Unmarshal(body, &food))
	assert.Empty(t, food)

	_, body = send(t, app, http.MethodGet, "/api/stock/summary", "")
	var summary struct {
		ProductCount int `json:"productCount"`
		LowCount     int `json:"lowCount"`
	}
	require.NoError(t, json.Unmarshal(body, &summary))
	assert.Equal(t, 3, summary.ProductCount)
	assert.Equal(t, 1, summary.LowCount)
}

func TestCategories(t *testing.T) {
	app, svc, _, _ := catalogApp(t)

	code, _ := send(t, app, http.MethodPost, "/api/categories", `{"name":" Cocktails "}`)
	require.Equal(t, http.StatusCreated, code)
	assert.Contains(t, svc.Categories(), "Cocktails")

	code, _ = send(t, app, http.MethodPost, "/api/categories", `{"name":"boisson"}`)
	assert.Equal(t, http.StatusConflict, code)

	code, _ = send(t, app, http.MethodDelete, "/api/categories/Divers", "")
	assert.Equal(t, http.StatusNoContent, code)
	assert.NotContains(t, svc.Categories(), "Divers")

	code, _ = send(t, app, http.MethodDelete, "/api/categories/Divers", "")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestUploadProductImage(t *testing.T) {
	app, svc, _, _ := catalogApp(t)

	img := &bytes.Buffer{}
	require.NoError(t, png.Encode(img, image.NewRGBA(image.Rect(0, 0, 600, 300))))

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	part, err := w.CreateFormFile("image", "regab.png")
	require.NoError(t, err)
	_, err = io.Copy(part, img)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/products/1/image", body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	p, ok := svc.Product("1")
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(p.Image, "/product-images/1_"))
}

func TestImportCatalogMatchesByName(t *testing.T) {
	_, svc, _, _ := catalogApp(t)
	ctx := context.Background()

	res, err := inventory.ImportCatalog(ctx, svc, []inventory.CatalogRow{
		{Line: 2, Name: "REGAB  65cl", Price: decimal.NewFromInt(650), CostPrice: decimal.NewFromInt(450), Stock: 60, Threshold: 12},
		{Line: 3, Name: "Brochettes", Price: decimal.NewFromInt(1500), CostPrice: decimal.NewFromInt(900), Stock: 20, Threshold: 5, Category: "Nourriture"},
		{Line: 4, Name: "Bad", Price: decimal.NewFromInt(-1)},
	}, "Admin")
	require.NoError(t, err)
	assert.Equal(t, []string{"Regab 65cl"}, res.Updated)
	assert.Equal(t, []string{"Brochettes"}, res.Created)
	require.Len(t, res.Skipped, 1)
	assert.Equal(t, 4, res.Skipped[0].Line)

	p, _ := svc.Product("1")
	assert.Equal(t, 60, p.Stock)
	assert.Equal(t, "650", p.Price.String())
	assert.Equal(t, "Boisson", p.Category)
	assert.Len(t, svc.Products(), 4)
}
