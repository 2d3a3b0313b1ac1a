package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/philosofium/coursemarket/backend/stats"
	"github.com/philosofium/coursemarket/backend/utils"
)

type AnalyticsController struct {
	Stats *stats.Aggregator
}

func NewAnalyticsController(agg *stats.Aggregator) *AnalyticsController {
	return &AnalyticsController{Stats: agg}
}

// GetCourseAnalytics godoc
// @Summary Course statistics
// @Description Enrollment, completion and rating counters of a course. Unknown courses report zeros.
// @Tags analytics
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} utils.SuccessResponse
// @Security ApiKeyAuth
// @Router /admin/courses/{id}/analytics [get]
func (ac *AnalyticsController) GetCourseAnalytics(c *fiber.Ctx) error {
	snap, err := ac.Stats.Snapshot(c.UserContext(), c.Params("id"))
	if err != nil {
		return utils.Fail(c, err)
	}
	return utils.OK(c, fiber.Map{
		"statistics": snap,
		"rating":     snap.DisplayRating(),
	})
}

func (ac *AnalyticsController) GetGlobalStatistics(c *fiber.Ctx) error {
	global, err := ac.Stats.Global(c.UserContext())
	if err != nil {
		return utils.Fail(c, err)
	}
	return utils.OK(c, global)
}

func (ac *AnalyticsController) ResetStatistics(c *fiber.Ctx) error {
	if err := ac.Stats.Reset(c.UserContext()); err != nil {
		return utils.Fail(c, err)
	}
	return utils.NoContent(c)
}
