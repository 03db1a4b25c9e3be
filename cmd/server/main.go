package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"bistrogest/internal/audit"
	"bistrogest/internal/auth"
	"bistrogest/internal/backup"
	"bistrogest/internal/config"
	"bistrogest/internal/dashboard"
	"bistrogest/internal/database"
	"bistrogest/internal/inventory"
	"bistrogest/internal/metrics"
	"bistrogest/internal/models"
	"bistrogest/internal/payment"
	"bistrogest/internal/pos"
	"bistrogest/internal/report"
	"bistrogest/internal/store"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	cfg := config.Load()
	database.Init(cfg)
	loc := cfg.Location()

	st := store.New(database.DB)
	svc := pos.NewService(st, pos.Options{
		StoreID:        cfg.StoreID,
		ActivationCode: cfg.ActivationCode,
		Payments:       payment.DefaultRegistry(cfg.PaymentDelay),
	})
	if err := svc.Load(context.Background()); err != nil {
		log.Fatalf("could not load bistro data: %v", err)
	}

	metrics.InitMetrics(prometheus.DefaultRegisterer)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if e, ok := err.(*fiber.Error); ok {
				return c.Status(e.Code).JSON(fiber.Map{
					"error": e.Message,
				})
			}
			log.Println("Unexpected error:", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "internal error",
			})
		},
		BodyLimit: 20 * 1024 * 1024, // backup files and catalog sheets
	})

	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(corsOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(metrics.PrometheusMiddleware())

	app.Get("/metrics", metrics.Handler(prometheus.DefaultGatherer))
	app.Static("/product-images", cfg.ProductImagePath)

	api := app.Group("/api")

	// Public: login and the customer menu
	api.Post("/auth/login", auth.LoginHandler(cfg, st))
	api.Get("/menu", pos.MenuHandler(svc))
	api.Post("/menu/orders", pos.SubmitOrderHandler(svc))

	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(cfg))

	protected.Get("/auth/me", auth.MeHandler())
	protected.Get("/state", pos.SnapshotHandler(svc))

	// Till: any logged-in staff member
	till := protected.Group("/pos")
	till.Get("/checkout", pos.CheckoutViewHandler(svc))
	till.Post("/cart/:productId", pos.AddToCartHandler(svc))
	till.Delete("/cart/:productId", pos.RemoveFromCartHandler(svc))
	till.Delete("/cart", pos.ClearCartHandler(svc))
	till.Put("/checkout-info", pos.SetCheckoutInfoHandler(svc))
	till.Get("/preview", pos.PreviewHandler(svc))
	till.Post("/checkout", pos.CheckoutHandler(svc))

	protected.Get("/pending-orders", pos.ListPendingHandler(svc))
	protected.Post("/pending-orders/:id/load", pos.LoadPendingHandler(svc))
	protected.Delete("/pending-orders/:id", pos.CancelPendingHandler(svc))

	protected.Get("/products", inventory.ListProductsHandler(svc))
	protected.Get("/products/:id", inventory.GetProductHandler(svc))
	protected.Get("/categories", inventory.ListProductCategoriesHandler(svc))
	protected.Get("/crates", pos.GetCratesHandler(svc))

	// Role guards apply to every route registered after them.
	// Management: owner and managers
	manage := protected.Group("")
	manage.Use(auth.RequireRole(models.RoleOwner, models.RoleManager))

	manage.Post("/products", inventory.CreateProductHandler(svc))
	manage.Put("/products", inventory.ReplaceProductsHandler(svc))
	manage.Post("/products/import", inventory.ImportCatalogHandler(svc))
	manage.Put("/products/:id", inventory.UpdateProductHandler(svc))
	manage.Delete("/products/:id", inventory.DeleteProductHandler(svc))
	manage.Put("/products/:id/stock", inventory.SetStockHandler(svc))
	manage.Post("/products/:id/image", inventory.UploadProductImageHandler(svc, cfg.ProductImagePath))
	manage.Post("/products/:id/image-url", inventory.DownloadProductImageHandler(svc, cfg.ProductImagePath))

	manage.Put("/categories", inventory.ReplaceProductCategoriesHandler(svc))
	manage.Post("/categories", inventory.CreateProductCategoryHandler(svc))
	manage.Delete("/categories/:name", inventory.DeleteProductCategoryHandler(svc))

	manage.Get("/stock-movements", inventory.ListStockMovementsHandler(st))
	manage.Get("/stock/summary", inventory.StockSummaryHandler(svc))

	manage.Post("/crates/adjust", pos.AdjustCratesHandler(svc))
	manage.Post("/crates/exchange", pos.ExchangeCratesHandler(svc))

	manage.Get("/dashboard/summary", dashboard.SummaryHandler(svc, loc))
	manage.Get("/dashboard/cash-chart", dashboard.CashChartHandler(svc, loc))

	manage.Get("/sales", report.ListSalesHandler(svc, loc))
	manage.Get("/sales/:id", report.GetSaleHandler(svc))
	manage.Get("/reports/sales.csv", report.ExportCSVHandler(svc, loc))
	manage.Get("/reports/sales.xlsx", report.ExportXLSXHandler(svc, loc))

	manage.Get("/activity-logs", audit.ListActivityLogsHandler(database.DB))

	// Owner only: settings, staff, backups, undo
	owner := protected.Group("")
	owner.Use(auth.RequireRole(models.RoleOwner))

	owner.Get("/settings", pos.GetSettingsHandler(svc))
	owner.Put("/settings", pos.UpdateSettingsHandler(svc))
	owner.Put("/store", pos.UpdateStoreHandler(svc))
	owner.Get("/staff", pos.ListStaffHandler(svc))
	owner.Put("/staff", pos.ReplaceStaffHandler(svc))
	owner.Post("/activity-logs/:id/undo", audit.UndoActivityLogHandler(svc))

	owner.Get("/backup/export", backup.ExportHandler(st, svc))
	owner.Post("/backup/import", backup.ImportHandler(st, svc))
	owner.Post("/backup/reset", backup.ResetHandler(svc))

	if cfg.BackupTime != "" {
		sched, err := backup.NewScheduler(st, cfg.BackupDir, cfg.BackupTime, loc, func() string {
			return svc.Settings().BistroName
		})
		if err != nil {
			log.Fatalf("could not plan backups at %q: %v", cfg.BackupTime, err)
		}
		sched.Start()
		defer sched.Stop()
		log.Printf("Daily backup planned at %s in %s", cfg.BackupTime, cfg.BackupDir)
	}

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Println("Shutting down...")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Printf("[WARN] shutdown: %v", err)
		}
	}()

	log.Println("Server listening on port:", cfg.HTTPPort)
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		log.Fatal(err)
	}
}
