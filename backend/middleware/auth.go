package middleware

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/philosofium/coursemarket/backend/config"
	"github.com/philosofium/coursemarket/backend/identity"
	"github.com/philosofium/coursemarket/backend/models"
	"github.com/philosofium/coursemarket/backend/utils"
	"go.uber.org/zap"
)

const sessionKey = "session"

// Users is the part of the user directory the auth middleware needs.
type Users interface {
	Ensure(ctx context.Context, p identity.Principal) (models.User, error)
	Touch(ctx context.Context, id string) error
	IsAdmin(ctx context.Context, id string) (bool, error)
}

// Session returns the identity attached by AuthMiddleware; anonymous when
// none was attached.
func Session(c *fiber.Ctx) identity.Session {
	if s, ok := c.Locals(sessionKey).(identity.Session); ok {
		return s
	}
	return identity.Anonymous()
}

// AuthMiddleware resolves the bearer token, if any, into the request
// session. Requests without a token continue anonymously; a bad token is
// rejected.
func AuthMiddleware(cfg *config.Config, users Users, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if header == "" {
			c.Locals(sessionKey, identity.Anonymous())
			return c.Next()
		}
		token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		p, err := identity.ParseToken(token, cfg.JWTSecret)
		if err != nil {
			return utils.Unauthorized(c, "Invalid token")
		}

		ctx := c.UserContext()
		if _, err := users.Ensure(ctx, p); err != nil {
			log.Warn("could not sync user profile", zap.String("user", p.ID), zap.Error(err))
		} else if err := users.Touch(ctx, p.ID); err != nil {
			log.Warn("could not record user activity", zap.String("user", p.ID), zap.Error(err))
		}
		c.Locals(sessionKey, identity.SignedIn(p))
		return c.Next()
	}
}

// RequireAuth rejects anonymous requests.
func RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !Session(c).IsAuthenticated() {
			return utils.Unauthorized(c, "Unauthorized")
		}
		return c.Next()
	}
}

func AdminMiddleware(users Users) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, ok := Session(c).CurrentUser()
		if !ok {
			return utils.Unauthorized(c, "Unauthorized")
		}
		admin, err := users.IsAdmin(c.UserContext(), p.ID)
		if err != nil {
			return utils.Fail(c, err)
		}
		if !admin {
			return utils.Forbidden(c, "Forbidden - Admin access required")
		}
		return c.Next()
	}
}
