// Package middleware holds the fiber middlewares of the web service.
package middleware

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/AmatanHead/collective-blog/internal/db/models"
)

// userLocalsKey is the fiber.Locals key the current user is stored under.
const userLocalsKey = "currentUser"

// userIDHeader carries the authenticated user id, set by the
// authenticating reverse proxy in front of this service.
const userIDHeader = "X-User-ID"

// CurrentUser resolves the authenticated user from the request and stores
// it in fiber.Locals for downstream handlers. Requests without the header
// proceed anonymously; handlers decide whether that is acceptable.
func CurrentUser(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := c.Get(userIDHeader)
		if raw == "" {
			return c.Next()
		}

		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || id == 0 {
			return c.Next()
		}

		var user models.User

		err = db.Take(&user, id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Next()
		}

		if err != nil {
			log.Error().Err(err).Uint64("user_id", id).Msg("failed to load current user")
			return c.Next()
		}

		c.Locals(userLocalsKey, &user)

		return c.Next()
	}
}

// UserFromCtx returns the current user stored by CurrentUser, or nil for
// anonymous requests.
func UserFromCtx(c *fiber.Ctx) *models.User {
	user, _ := c.Locals(userLocalsKey).(*models.User)
	return user
}
