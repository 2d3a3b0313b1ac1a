package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/philosofium/coursemarket/backend/identity"
	"github.com/philosofium/coursemarket/backend/middleware"
	"github.com/philosofium/coursemarket/backend/utils"
)

type UserController struct {
	Directory *identity.Directory
}

func NewUserController(dir *identity.Directory) *UserController {
	return &UserController{Directory: dir}
}

// UpdateRoleRequest defines the request body for changing a user's role
type UpdateRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=admin user" enums:"admin,user"`
}

// GetProfile godoc
// @Summary Get user profile
// @Description Returns the authenticated user's profile document
// @Tags users
// @Produce json
// @Success 200 {object} utils.SuccessResponse
// @Failure 401 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /user/profile [get]
func (uc *UserController) GetProfile(c *fiber.Ctx) error {
	p, _ := middleware.Session(c).CurrentUser()
	user, err := uc.Directory.Ensure(c.UserContext(), p)
	if err != nil {
		return utils.Fail(c, err)
	}
	return utils.OK(c, user)
}

// UpdateProfileRequest defines the request body for editing the caller's
// profile. Absent fields are left untouched.
type UpdateProfileRequest struct {
	DisplayName *string                 `json:"displayName" validate:"omitempty,max=100" example:"Ada Lovelace"`
	Settings    *ProfileSettingsRequest `json:"settings"`
}

type ProfileSettingsRequest struct {
	EmailNotifications *bool `json:"emailNotifications"`
}

func (r UpdateProfileRequest) update() identity.ProfileUpdate {
	upd := identity.ProfileUpdate{DisplayName: r.DisplayName}
	if r.Settings != nil {
		upd.EmailNotifications = r.Settings.EmailNotifications
	}
	return upd
}

// UpdateProfile godoc
// @Summary Update user profile
// @Description Changes the caller's display name and notification preference
// @Tags users
// @Accept json
// @Produce json
// @Param input body UpdateProfileRequest true "Profile update data"
// @Success 200 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 401 {object} utils.ErrorResponse
// @Failure 422 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /user/profile [put]
func (uc *UserController) UpdateProfile(c *fiber.Ctx) error {
	var input UpdateProfileRequest
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if errs := utils.ValidateStruct(input); errs != nil {
		return utils.ValidationError(c, errs)
	}
	p, _ := middleware.Session(c).CurrentUser()
	user, err := uc.Directory.UpdateProfile(c.UserContext(), p.ID, input.update())
	if err != nil {
		return utils.Fail(c, err)
	}
	return utils.OK(c, user)
}

func (uc *UserController) ListUsers(c *fiber.Ctx) error {
	users, err := uc.Directory.List(c.UserContext())
	if err != nil {
		return utils.Fail(c, err)
	}
	return utils.OK(c, users, fiber.Map{"total": len(users)})
}

// UpdateRole godoc
// @Summary Change a user's role
// @Tags admin
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param input body UpdateRoleRequest true "Role"
// @Success 204
// @Failure 404 {object} utils.ErrorResponse
// @Failure 422 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /admin/users/{id}/role [put]
func (uc *UserController) UpdateRole(c *fiber.Ctx) error {
	var input UpdateRoleRequest
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if errs := utils.ValidateStruct(input); errs != nil {
		return utils.ValidationError(c, errs)
	}
	p, _ := middleware.Session(c).CurrentUser()
	if p.ID == c.Params("id") && input.Role != "admin" {
		return utils.BadRequest(c, "Admins cannot revoke their own role")
	}
	if err := uc.Directory.SetAdmin(c.UserContext(), c.Params("id"), input.Role == "admin"); err != nil {
		return utils.Fail(c, err)
	}
	return utils.NoContent(c)
}
