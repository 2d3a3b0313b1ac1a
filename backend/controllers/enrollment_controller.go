package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/philosofium/coursemarket/backend/enrollment"
	"github.com/philosofium/coursemarket/backend/middleware"
	"github.com/philosofium/coursemarket/backend/utils"
)

type EnrollmentController struct {
	Enrollment *enrollment.Service
}

func NewEnrollmentController(svc *enrollment.Service) *EnrollmentController {
	return &EnrollmentController{Enrollment: svc}
}

// Enroll godoc
// @Summary Enroll in a course
// @Description Enrolls the caller. Enrolling twice is not an error.
// @Tags enrollment
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} utils.SuccessResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /courses/{id}/enroll [post]
func (ec *EnrollmentController) Enroll(c *fiber.Ctx) error {
	p, _ := middleware.Session(c).CurrentUser()
	added, err := ec.Enrollment.Enroll(c.UserContext(), p.ID, c.Params("id"))
	if err != nil {
		return utils.Fail(c, err)
	}
	return utils.OK(c, fiber.Map{"enrolled": true, "new": added})
}

func (ec *EnrollmentController) Complete(c *fiber.Ctx) error {
	p, _ := middleware.Session(c).CurrentUser()
	added, err := ec.Enrollment.Complete(c.UserContext(), p.ID, c.Params("id"))
	if err != nil {
		return utils.Fail(c, err)
	}
	return utils.OK(c, fiber.Map{"completed": true, "new": added})
}

func (ec *EnrollmentController) EnrollmentStatus(c *fiber.Ctx) error {
	p, _ := middleware.Session(c).CurrentUser()
	enrolled, err := ec.Enrollment.IsEnrolled(c.UserContext(), p.ID, c.Params("id"))
	if err != nil {
		return utils.Fail(c, err)
	}
	return utils.OK(c, fiber.Map{"enrolled": enrolled})
}

func (ec *EnrollmentController) MyCourses(c *fiber.Ctx) error {
	p, _ := middleware.Session(c).CurrentUser()
	courses, err := ec.Enrollment.EnrolledCourses(c.UserContext(), p.ID)
	if err != nil {
		return utils.Fail(c, err)
	}
	return utils.OK(c, summarizeAll(courses))
}
