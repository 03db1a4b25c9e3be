package backup

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"bistrogest/internal/audit"
	"bistrogest/internal/auth"
	"bistrogest/internal/models"
	"bistrogest/internal/store"

	"github.com/gofiber/fiber/v2"
)

// resetWord must be typed by the owner to wipe everything.
const resetWord = "EFFACER"

// Owner is the state owner: it restores data and knows the bistro name.
type Owner interface {
	Restorer
	Settings() models.Settings
}

// GET /api/backup/export
func ExportHandler(st *store.Store, owner Owner) fiber.Handler {
	return func(c *fiber.Ctx) error {
		now := time.Now()
		b, err := Export(c.UserContext(), st, now)
		if err != nil {
			log.Printf("[ERROR] %v", err)
			return fiber.NewError(fiber.StatusInternalServerError, "export failed")
		}

		buf := &bytes.Buffer{}
		if err := Write(buf, b); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "export failed")
		}

		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSONCharsetUTF8)
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, FileName(owner.Settings().BistroName, now)))
		return c.Send(buf.Bytes())
	}
}

// POST /api/backup/import (multipart field "file", or the raw JSON body)
func ImportHandler(st *store.Store, owner Owner) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var r io.Reader = bytes.NewReader(c.Body())
		if fh, err := c.FormFile("file"); err == nil {
			f, err := fh.Open()
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "backup file could not be read")
			}
			defer f.Close()
			r = f
		}

		b, err := Import(c.UserContext(), r, owner)
		if err != nil {
			if errors.Is(err, ErrInvalidBackup) {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
			log.Printf("[ERROR] %v", err)
			return fiber.NewError(fiber.StatusInternalServerError, "import failed, data left unchanged")
		}

		if err := audit.WriteLog(st.DB().WithContext(c.UserContext()), audit.LogOptions{
			Type:        models.ActivitySystem,
			UserName:    auth.UserName(c),
			EntityType:  "backup",
			Description: fmt.Sprintf("Backup imported (version %s, %d products, %d sales)", b.Version, len(b.Products), len(b.Sales)),
		}); err != nil {
			log.Printf("[WARN] import log not written: %v", err)
		}

		return c.JSON(fiber.Map{
			"version":       b.Version,
			"exportDate":    b.ExportDate,
			"products":      len(b.Products),
			"sales":         len(b.Sales),
			"staff":         len(b.Staff),
			"pendingOrders": len(b.PendingOrders),
		})
	}
}

type ResetRequest struct {
	Confirm string `json:"confirm"`
}

// POST /api/backup/reset wipes every collection; defaults are seeded again.
func ResetHandler(owner Owner) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body ResetRequest
		if err := c.BodyParser(&body); err != nil || body.Confirm != resetWord {
			return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("type %s to confirm", resetWord))
		}
		if err := owner.ReplaceAll(c.UserContext(), store.Dataset{}); err != nil {
			log.Printf("[ERROR] reset: %v", err)
			return fiber.NewError(fiber.StatusInternalServerError, "reset failed")
		}
		log.Printf("[WARN] all data reset by %s", auth.UserName(c))
		return c.SendStatus(fiber.StatusNoContent)
	}
}
