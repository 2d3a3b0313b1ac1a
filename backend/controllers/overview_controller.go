package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/philosofium/coursemarket/backend/config"
	"github.com/philosofium/coursemarket/backend/models"
	"github.com/philosofium/coursemarket/backend/notify"
	"github.com/philosofium/coursemarket/backend/settings"
	"github.com/philosofium/coursemarket/backend/stats"
	"github.com/philosofium/coursemarket/backend/utils"
)

// OverviewController serves the admin dashboard: platform totals, the
// notification feed and system settings.
type OverviewController struct {
	Stats         *stats.Aggregator
	Notifications *notify.Log
	Settings      *settings.Service
	Cfg           *config.Config
}

func NewOverviewController(agg *stats.Aggregator, notes *notify.Log, st *settings.Service, cfg *config.Config) *OverviewController {
	return &OverviewController{Stats: agg, Notifications: notes, Settings: st, Cfg: cfg}
}

func (oc *OverviewController) GetOverview(c *fiber.Ctx) error {
	ctx := c.UserContext()
	global, err := oc.Stats.Global(ctx)
	if err != nil {
		return utils.Fail(c, err)
	}
	recent, err := oc.Notifications.ListRecent(ctx, oc.Cfg.NotificationLimit)
	if err != nil {
		return utils.Fail(c, err)
	}
	unread, err := oc.Notifications.UnreadCount(ctx)
	if err != nil {
		return utils.Fail(c, err)
	}
	return utils.OK(c, fiber.Map{
		"statistics":    global,
		"notifications": recent,
		"unread":        unread,
	})
}

// ListNotifications godoc
// @Summary Recent notifications
// @Description Newest first, capped at limit
// @Tags admin
// @Produce json
// @Param limit query int false "Maximum number of notifications"
// @Success 200 {object} utils.SuccessResponse
// @Security ApiKeyAuth
// @Router /admin/notifications [get]
func (oc *OverviewController) ListNotifications(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", oc.Cfg.NotificationLimit)
	recent, err := oc.Notifications.ListRecent(c.UserContext(), limit)
	if err != nil {
		return utils.Fail(c, err)
	}
	unread, err := oc.Notifications.UnreadCount(c.UserContext())
	if err != nil {
		return utils.Fail(c, err)
	}
	return utils.OK(c, recent, fiber.Map{"unread": unread})
}

func (oc *OverviewController) MarkNotificationRead(c *fiber.Ctx) error {
	if err := oc.Notifications.MarkRead(c.UserContext(), c.Params("id")); err != nil {
		return utils.Fail(c, err)
	}
	return utils.NoContent(c)
}

func (oc *OverviewController) MarkAllNotificationsRead(c *fiber.Ctx) error {
	n, err := oc.Notifications.MarkAllRead(c.UserContext())
	if err != nil {
		return utils.Fail(c, err)
	}
	return utils.OK(c, fiber.Map{"marked": n})
}

func (oc *OverviewController) GetSettings(c *fiber.Ctx) error {
	s, err := oc.Settings.Get(c.UserContext())
	if err != nil {
		return utils.Fail(c, err)
	}
	return utils.OK(c, s)
}

func (oc *OverviewController) UpdateSettings(c *fiber.Ctx) error {
	var input models.Settings
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if errs := utils.ValidateStruct(input); errs != nil {
		return utils.ValidationError(c, errs)
	}
	s, err := oc.Settings.Update(c.UserContext(), input)
	if err != nil {
		return utils.Fail(c, err)
	}
	return utils.OK(c, s)
}
