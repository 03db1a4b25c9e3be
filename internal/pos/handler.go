package pos

import (
	"errors"
	"log"
	"strings"

	"bistrogest/internal/auth"
	"bistrogest/internal/cart"
	"bistrogest/internal/checkout"
	"bistrogest/internal/crates"
	"bistrogest/internal/inventory"
	"bistrogest/internal/models"
	"bistrogest/internal/payment"
	"bistrogest/internal/pending"
	"bistrogest/internal/sale"
	"bistrogest/internal/store"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// HTTPError maps domain errors onto fiber errors. Unknown errors are logged and
// hidden behind a 500.
func HTTPError(err error) error {
	var se *inventory.InsufficientStockError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &se):
		return fiber.NewError(fiber.StatusConflict, se.Error())
	case errors.Is(err, ErrPendingNotFound), errors.Is(err, ErrProductNotFound), errors.Is(err, store.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, payment.ErrDeclined):
		return fiber.NewError(fiber.StatusPaymentRequired, err.Error())
	case errors.Is(err, sale.ErrEmptyCart), errors.Is(err, sale.ErrUnknownProduct), errors.Is(err, sale.ErrInvalidTaxRate),
		errors.Is(err, pending.ErrInvalidSubmission), errors.Is(err, payment.ErrUnknownMethod),
		errors.Is(err, payment.ErrInvalidAmount), errors.Is(err, checkout.ErrInvalidSale),
		errors.Is(err, ErrInvalidProduct), errors.Is(err, ErrInvalidStaff), errors.Is(err, ErrInvalidSettings),
		errors.Is(err, inventory.ErrNegativeStock), errors.Is(err, crates.ErrNotEnoughEmpties),
		errors.Is(err, crates.ErrUnknownField):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	default:
		log.Printf("[ERROR] %v", err)
		return fiber.NewError(fiber.StatusInternalServerError, "internal error")
	}
}

// ---- digital menu (public) ----

type MenuItem struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Category  string          `json:"category"`
	Image     string          `json:"image,omitempty"`
	Available int             `json:"available"`
}

// GET /api/menu
func MenuHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		products := svc.Products()
		items := make([]MenuItem, 0, len(products))
		for _, p := range products {
			items = append(items, MenuItem{
				ID: p.ID, Name: p.Name, Price: p.Price, Category: p.Category, Image: p.Image, Available: p.Stock,
			})
		}
		return c.JSON(fiber.Map{
			"bistroName": svc.Settings().BistroName,
			"categories": svc.Categories(),
			"items":      items,
		})
	}
}

type SubmitOrderRequest struct {
	CustomerName string      `json:"customerName"`
	TableNumber  string      `json:"tableNumber"`
	WaiterName   string      `json:"waiterName"`
	Items        []cart.Line `json:"items"`
}

// POST /api/menu/orders
func SubmitOrderHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body SubmitOrderRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		order, err := svc.SubmitPending(c.UserContext(), body.Items, pending.Submission{
			CustomerName: body.CustomerName,
			TableNumber:  body.TableNumber,
			WaiterName:   body.WaiterName,
		})
		if err != nil {
			return HTTPError(err)
		}
		return c.Status(fiber.StatusCreated).JSON(order)
	}
}

// ---- till ----

// GET /api/pos/checkout
func CheckoutViewHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(svc.CurrentCheckout())
	}
}

// POST /api/pos/cart/:productId
func AddToCartHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		added, err := svc.AddToCart(c.Params("productId"))
		if err != nil {
			return HTTPError(err)
		}
		if !added {
			return fiber.NewError(fiber.StatusConflict, "no more stock for this product")
		}
		return c.JSON(svc.CurrentCheckout())
	}
}

// DELETE /api/pos/cart/:productId?all=true
func RemoveFromCartHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("productId")
		if c.QueryBool("all", false) {
			svc.DeleteFromCart(id)
		} else {
			svc.RemoveFromCart(id)
		}
		return c.JSON(svc.CurrentCheckout())
	}
}

// DELETE /api/pos/cart
func ClearCartHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		svc.ClearCart()
		return c.JSON(svc.CurrentCheckout())
	}
}

type CheckoutInfoRequest struct {
	CustomerName string `json:"customerName"`
	TableNumber  string `json:"tableNumber"`
	WaiterName   string `json:"waiterName"`
}

// PUT /api/pos/checkout-info
func SetCheckoutInfoHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CheckoutInfoRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		svc.SetCheckoutInfo(strings.TrimSpace(body.CustomerName), strings.TrimSpace(body.TableNumber), strings.TrimSpace(body.WaiterName))
		return c.JSON(svc.CurrentCheckout())
	}
}

// GET /api/pos/preview (draft ticket, nothing is recorded)
func PreviewHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, err := svc.PreviewSale(c.UserContext(), auth.UserName(c))
		if err != nil {
			return HTTPError(err)
		}
		return c.JSON(s)
	}
}

type CheckoutRequest struct {
	PaymentMethod models.PaymentMethod `json:"paymentMethod"`
}

// POST /api/pos/checkout
func CheckoutHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CheckoutRequest
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&body); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
			}
		}
		if body.PaymentMethod == "" {
			body.PaymentMethod = models.PaymentCash
		}

		s, err := svc.Checkout(c.UserContext(), body.PaymentMethod, auth.UserName(c))
		if err != nil {
			return HTTPError(err)
		}
		return c.Status(fiber.StatusCreated).JSON(s)
	}
}

// ---- pending queue ----

// GET /api/pending-orders
func ListPendingHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(svc.PendingOrders())
	}
}

// POST /api/pending-orders/:id/load
func LoadPendingHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		short, err := svc.LoadPending(c.UserContext(), c.Params("id"))
		if err != nil {
			return HTTPError(err)
		}
		if short == nil {
			short = []inventory.Shortfall{}
		}
		return c.JSON(fiber.Map{
			"checkout":   svc.CurrentCheckout(),
			"shortfalls": short,
		})
	}
}

// DELETE /api/pending-orders/:id
func CancelPendingHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := svc.CancelPending(c.UserContext(), c.Params("id"), auth.UserName(c)); err != nil {
			return HTTPError(err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// ---- owner / manager ----

// GET /api/state
func SnapshotHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(svc.Snapshot())
	}
}

// GET /api/settings
func GetSettingsHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"settings": svc.Settings(),
			"store":    svc.StoreInfo(),
		})
	}
}

// PUT /api/settings
func UpdateSettingsHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body models.Settings
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := svc.UpdateSettings(c.UserContext(), body, auth.UserName(c)); err != nil {
			return HTTPError(err)
		}
		return c.JSON(svc.Settings())
	}
}

// PUT /api/store
func UpdateStoreHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body models.StoreInfo
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		info, err := svc.UpdateStoreInfo(c.UserContext(), body, auth.UserName(c))
		if err != nil {
			return HTTPError(err)
		}
		return c.JSON(info)
	}
}

// GET /api/staff
func ListStaffHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(svc.Staff())
	}
}

// PUT /api/staff
func ReplaceStaffHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body []models.StaffMember
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := svc.ReplaceStaff(c.UserContext(), body, auth.UserName(c)); err != nil {
			return HTTPError(err)
		}
		return c.JSON(svc.Staff())
	}
}

// GET /api/crates
func GetCratesHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(svc.Crates())
	}
}

type AdjustCratesRequest struct {
	Field crates.Field `json:"field"`
	Delta int          `json:"delta"`
}

// POST /api/crates/adjust
func AdjustCratesHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body AdjustCratesRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		stock, err := svc.AdjustCrates(c.UserContext(), body.Field, body.Delta, auth.UserName(c))
		if err != nil {
			return HTTPError(err)
		}
		return c.JSON(stock)
	}
}

// POST /api/crates/exchange
func ExchangeCratesHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		stock, err := svc.ExchangeCrates(c.UserContext(), auth.UserName(c))
		if err != nil {
			return HTTPError(err)
		}
		return c.JSON(stock)
	}
}
