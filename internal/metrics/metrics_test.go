package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordSale(t *testing.T) {
	before := testutil.ToFloat64(SalesCommitted.WithLabelValues("Espèces"))
	revenue := testutil.ToFloat64(SalesRevenue)

	RecordSale("Espèces", decimal.NewFromInt(3000))

	assert.Equal(t, before+1, testutil.ToFloat64(SalesCommitted.WithLabelValues("Espèces")))
	assert.Equal(t, revenue+3000, testutil.ToFloat64(SalesRevenue))
}

func TestMiddlewareAndHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	InitMetrics(reg)

	app := fiber.New()
	app.Use(PrometheusMiddleware())
	app.Get("/ping", func(c *fiber.Ctx) error { return c.SendString("pong") })
	app.Get("/metrics", Handler(reg))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/ping", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.GreaterOrEqual(t, testutil.ToFloat64(HttpRequestsTotal.WithLabelValues("GET", "/ping", "200")), 1.0)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "bistrogest_http_requests_total")
}
