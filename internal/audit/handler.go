package audit

import (
	"context"
	"errors"
	"strconv"

	"bistrogest/internal/auth"
	"bistrogest/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Undoer reverts an entry and keeps any in-memory state in step.
type Undoer interface {
	UndoLog(ctx context.Context, logID uint, userName string) error
}

// GET /api/activity-logs?type=SALE&entity_type=product&entity_id=1&limit=100
func ListActivityLogsHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		f := Filter{
			Type:       models.ActivityType(c.Query("type")),
			EntityType: c.Query("entity_type"),
			EntityID:   c.Query("entity_id"),
			Limit:      c.QueryInt("limit", 200),
		}

		logs, err := ListLogs(db.WithContext(c.UserContext()), f)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not list activity logs")
		}
		return c.JSON(logs)
	}
}

// POST /api/activity-logs/:id/undo
func UndoActivityLogHandler(u Undoer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := strconv.ParseUint(c.Params("id"), 10, 64)
		if err != nil || id == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "invalid log id")
		}

		if err := u.UndoLog(c.UserContext(), uint(id), auth.UserName(c)); err != nil {
			switch {
			case errors.Is(err, ErrLogNotFound):
				return fiber.NewError(fiber.StatusNotFound, err.Error())
			case errors.Is(err, ErrAlreadyUndone), errors.Is(err, ErrNotUndoable), errors.Is(err, ErrUndoConflict):
				return fiber.NewError(fiber.StatusConflict, err.Error())
			default:
				return fiber.NewError(fiber.StatusInternalServerError, "undo failed")
			}
		}

		return c.JSON(fiber.Map{"message": "entry undone"})
	}
}
