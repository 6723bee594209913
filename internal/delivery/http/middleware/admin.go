package middleware

import (
	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"

	"github.com/transit-aggregator/internal/pkg/errors"
	"github.com/transit-aggregator/internal/pkg/utils"
)

const (
	AdminTokenHeader = "X-Admin-Token"
	AdminActorHeader = "X-Admin-Actor"

	// ActorLocal - ключ c.Locals с инициатором admin-запроса
	ActorLocal = "actor"
)

// AdminAuth сверяет X-Admin-Token с bcrypt-хешем из конфигурации.
// Пустой хеш закрывает admin-эндпоинты полностью.
func AdminAuth(tokenHash string) fiber.Handler {
	hash := []byte(tokenHash)
	return func(c *fiber.Ctx) error {
		token := c.Get(AdminTokenHeader)
		if len(hash) == 0 || token == "" {
			return utils.SendError(c, errors.ErrUnauthorized)
		}
		if err := bcrypt.CompareHashAndPassword(hash, []byte(token)); err != nil {
			return utils.SendError(c, errors.ErrUnauthorized)
		}

		actor := c.Get(AdminActorHeader)
		if actor == "" {
			actor = "admin"
		}
		c.Locals(ActorLocal, actor)
		return c.Next()
	}
}
