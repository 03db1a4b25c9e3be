package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
)

var (
	HttpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bistrogest_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HttpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bistrogest_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path"},
	)

	SalesCommitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bistrogest_sales_committed_total",
			Help: "Sales committed, by payment method",
		},
		[]string{"payment_method"},
	)

	SalesRevenue = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bistrogest_sales_revenue_total",
			Help: "Tax-inclusive revenue of committed sales (FCFA)",
		},
	)

	CommitRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bistrogest_commit_rejections_total",
			Help: "Checkouts that did not commit, by reason",
		},
		[]string{"reason"},
	)

	PendingSubmitted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bistrogest_pending_orders_submitted_total",
			Help: "Digital-menu orders accepted into the pending queue",
		},
	)

	LowStockProducts = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "bistrogest_low_stock_products",
			Help: "Products at or below their alert threshold",
		},
	)
)

// rejection reasons
const (
	ReasonStock   = "insufficient_stock"
	ReasonPayment = "payment"
	ReasonStorage = "storage"
	ReasonInvalid = "invalid"
)

func InitMetrics(reg prometheus.Registerer) {
	reg.MustRegister(
		HttpRequestsTotal, HttpRequestDuration,
		SalesCommitted, SalesRevenue, CommitRejections, PendingSubmitted, LowStockProducts,
	)
}

// RecordSale counts one committed sale.
func RecordSale(method string, total decimal.Decimal) {
	SalesCommitted.WithLabelValues(method).Inc()
	SalesRevenue.Add(total.InexactFloat64())
}

func RecordRejection(reason string) {
	CommitRejections.WithLabelValues(reason).Inc()
}

func PrometheusMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		duration := time.Since(start)

		path := c.Route().Path
		if path == "" {
			path = "undefined"
		}

		status := c.Response().StatusCode()
		if fe, ok := err.(*fiber.Error); ok {
			status = fe.Code
		}

		HttpRequestsTotal.WithLabelValues(c.Method(), path, strconv.Itoa(status)).Inc()
		HttpRequestDuration.WithLabelValues(path).Observe(duration.Seconds())
		return err
	}
}

// Handler serves the registry in the Prometheus text format.
func Handler(g prometheus.Gatherer) fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
}
