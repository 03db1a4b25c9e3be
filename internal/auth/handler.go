package auth

import (
	"crypto/subtle"
	"errors"
	"log"
	"strings"

	"bistrogest/internal/config"
	"bistrogest/internal/models"
	"bistrogest/internal/store"

	"github.com/gofiber/fiber/v2"
)

type LoginRequest struct {
	Username string `json:"username"` // empty for the owner
	Code     string `json:"code"`
}

// LoginHandler signs in the owner with the activation code, or a staff member with
// username + access code.
func LoginHandler(cfg *config.Config, st *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body LoginRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		body.Username = strings.TrimSpace(body.Username)
		body.Code = strings.TrimSpace(body.Code)
		if body.Code == "" {
			return fiber.NewError(fiber.StatusBadRequest, "code is required")
		}

		var user models.User
		if body.Username == "" {
			u, err := ownerLogin(c, cfg, st, body.Code)
			if err != nil {
				return err
			}
			user = u
		} else {
			u, err := staffLogin(c, st, body.Username, body.Code)
			if err != nil {
				return err
			}
			user = u
		}

		token, err := GenerateToken(cfg.JWTSecret, &user)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not create token")
		}

		return c.JSON(fiber.Map{
			"token": token,
			"user":  user,
		})
	}
}

func ownerLogin(c *fiber.Ctx, cfg *config.Config, st *store.Store, code string) (models.User, error) {
	expected := cfg.ActivationCode
	var info models.StoreInfo
	if err := st.GetMetadata(c.UserContext(), models.MetaStore, &info); err == nil && info.ActivationCode != "" {
		expected = info.ActivationCode
	} else if err != nil && !errors.Is(err, store.ErrNotFound) {
		log.Printf("[WARN] store info unreadable, falling back to ACTIVATION_CODE: %v", err)
	}

	if subtle.ConstantTimeCompare([]byte(expected), []byte(code)) != 1 {
		return models.User{}, fiber.NewError(fiber.StatusUnauthorized, "wrong activation code")
	}

	name := "Owner"
	var settings models.Settings
	if err := st.GetMetadata(c.UserContext(), models.MetaSettings, &settings); err == nil && settings.OwnerName != "" {
		name = settings.OwnerName
	}
	return models.User{ID: "owner", Name: name, Role: models.RoleOwner}, nil
}

func staffLogin(c *fiber.Ctx, st *store.Store, username, code string) (models.User, error) {
	m, err := st.FindStaffByUsername(c.UserContext(), username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.User{}, fiber.NewError(fiber.StatusUnauthorized, "wrong username or code")
		}
		return models.User{}, fiber.NewError(fiber.StatusInternalServerError, "staff lookup failed")
	}
	if !CheckAccessCode(m.AccessCode, code) {
		return models.User{}, fiber.NewError(fiber.StatusUnauthorized, "wrong username or code")
	}
	if !m.IsActive {
		return models.User{}, fiber.NewError(fiber.StatusForbidden, "account disabled")
	}
	return models.User{ID: m.ID, Name: m.Name, Role: RoleForStaff(m.Role)}, nil
}

func MeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(CurrentUser(c))
	}
}
