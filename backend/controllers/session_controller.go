package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/philosofium/coursemarket/backend/identity"
	"github.com/philosofium/coursemarket/backend/middleware"
	"github.com/philosofium/coursemarket/backend/utils"
)

// SessionController reports who the caller is. Sign-in itself happens at
// the identity service.
type SessionController struct {
	Directory *identity.Directory
}

func NewSessionController(dir *identity.Directory) *SessionController {
	return &SessionController{Directory: dir}
}

func (sc *SessionController) GetSession(c *fiber.Ctx) error {
	var id identity.Identity = middleware.Session(c)
	p, ok := id.CurrentUser()
	if !ok {
		return utils.OK(c, fiber.Map{"authenticated": false})
	}
	admin, err := sc.Directory.IsAdmin(c.UserContext(), p.ID)
	if err != nil {
		return utils.Fail(c, err)
	}
	return utils.OK(c, fiber.Map{
		"authenticated": id.IsAuthenticated(),
		"user":          p,
		"isAdmin":       admin,
	})
}
