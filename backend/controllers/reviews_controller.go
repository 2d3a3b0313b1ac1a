package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/philosofium/coursemarket/backend/identity"
	"github.com/philosofium/coursemarket/backend/middleware"
	"github.com/philosofium/coursemarket/backend/reviews"
	"github.com/philosofium/coursemarket/backend/utils"
)

type ReviewsController struct {
	Reviews   *reviews.Engine
	Directory *identity.Directory
}

func NewReviewsController(engine *reviews.Engine, dir *identity.Directory) *ReviewsController {
	return &ReviewsController{Reviews: engine, Directory: dir}
}

// SubmitReviewRequest defines the request body for reviewing a course
type SubmitReviewRequest struct {
	Rating  int    `json:"rating" example:"5" minimum:"1" maximum:"5"`
	Content string `json:"content" example:"Clear explanations and useful exercises."`
}

type ReplyRequest struct {
	Text string `json:"text" validate:"required"`
}

type ReportRequest struct {
	Reason string `json:"reason" validate:"max=1000"`
}

func (rc *ReviewsController) ListReviews(c *fiber.Ctx) error {
	list, err := rc.Reviews.List(c.UserContext(), c.Params("id"))
	if err != nil {
		return utils.Fail(c, err)
	}
	return utils.OK(c, list, fiber.Map{"total": len(list)})
}

// MyReview returns the caller's review of the course, or null.
func (rc *ReviewsController) MyReview(c *fiber.Ctx) error {
	p, _ := middleware.Session(c).CurrentUser()
	r, ok, err := rc.Reviews.UserReview(c.UserContext(), c.Params("id"), p.ID)
	if err != nil {
		return utils.Fail(c, err)
	}
	if !ok {
		return utils.OK(c, nil)
	}
	return utils.OK(c, r)
}

// SubmitReview godoc
// @Summary Review a course
// @Description Adds the caller's review. The caller must be enrolled and may review a course once.
// @Tags reviews
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param input body SubmitReviewRequest true "Review"
// @Success 201 {object} utils.SuccessResponse
// @Failure 403 {object} utils.ErrorResponse
// @Failure 409 {object} utils.ErrorResponse
// @Failure 422 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /courses/{id}/reviews [post]
func (rc *ReviewsController) SubmitReview(c *fiber.Ctx) error {
	var input SubmitReviewRequest
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	p, _ := middleware.Session(c).CurrentUser()
	review, err := rc.Reviews.Submit(c.UserContext(), c.Params("id"), p, input.Rating, input.Content)
	if err != nil {
		return utils.Fail(c, err)
	}
	return utils.Created(c, review)
}

func (rc *ReviewsController) MarkHelpful(c *fiber.Ctx) error {
	p, _ := middleware.Session(c).CurrentUser()
	count, err := rc.Reviews.MarkHelpful(c.UserContext(), c.Params("id"), c.Params("reviewId"), p.ID)
	if err != nil {
		return utils.Fail(c, err)
	}
	return utils.OK(c, fiber.Map{"helpful": count})
}

// Reply godoc
// @Summary Reply to a review
// @Description Instructors of the course and admins may attach one reply; a new reply replaces the old one.
// @Tags reviews
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param reviewId path string true "Review ID"
// @Param input body ReplyRequest true "Reply"
// @Success 200 {object} utils.SuccessResponse
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /courses/{id}/reviews/{reviewId}/reply [post]
func (rc *ReviewsController) Reply(c *fiber.Ctx) error {
	var input ReplyRequest
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if errs := utils.ValidateStruct(input); errs != nil {
		return utils.ValidationError(c, errs)
	}
	p, _ := middleware.Session(c).CurrentUser()
	isAdmin, err := rc.Directory.IsAdmin(c.UserContext(), p.ID)
	if err != nil {
		return utils.Fail(c, err)
	}
	review, err := rc.Reviews.Reply(c.UserContext(), c.Params("id"), c.Params("reviewId"), p, isAdmin, input.Text)
	if err != nil {
		return utils.Fail(c, err)
	}
	return utils.OK(c, review)
}

func (rc *ReviewsController) Report(c *fiber.Ctx) error {
	var input ReportRequest
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if errs := utils.ValidateStruct(input); errs != nil {
		return utils.ValidationError(c, errs)
	}
	p, _ := middleware.Session(c).CurrentUser()
	report, err := rc.Reviews.Report(c.UserContext(), c.Params("id"), c.Params("reviewId"), p.ID, input.Reason)
	if err != nil {
		return utils.Fail(c, err)
	}
	return utils.Created(c, report)
}
