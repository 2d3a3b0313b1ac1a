package controllers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/philosofium/coursemarket/backend/catalog"
	"github.com/philosofium/coursemarket/backend/config"
	"github.com/philosofium/coursemarket/backend/models"
	"github.com/philosofium/coursemarket/backend/utils"
)

type CoursesController struct {
	Courses *catalog.Store
	Cfg     *config.Config
}

func NewCoursesController(courses *catalog.Store, cfg *config.Config) *CoursesController {
	return &CoursesController{Courses: courses, Cfg: cfg}
}

// CreateCourseRequest defines the request body for creating a course
type CreateCourseRequest struct {
	Title              string        `json:"title" validate:"required,max=200" example:"Go for Backend Developers"`
	Description        string        `json:"description" validate:"max=2000"`
	LongDescription    string        `json:"longDescription"`
	Category           string        `json:"category" example:"Programming"`
	Level              models.Level  `json:"level" validate:"omitempty,oneof=Beginner Intermediate Advanced" enums:"Beginner,Intermediate,Advanced"`
	Duration           string        `json:"duration" example:"6 weeks"`
	Price              *float64      `json:"price" validate:"omitempty,gte=0"`
	Language           string        `json:"language" example:"English"`
	Image              string        `json:"image" validate:"omitempty,url"`
	Author             models.Author `json:"author"`
	InstructorID       string        `json:"instructorId"`
	LearningObjectives []string      `json:"learningObjectives"`
	Requirements       []string      `json:"requirements"`
}

func (r CreateCourseRequest) course() models.Course {
	return models.Course{
		Title:              r.Title,
		Description:        r.Description,
		LongDescription:    r.LongDescription,
		Category:           r.Category,
		Level:              r.Level,
		Duration:           r.Duration,
		Price:              r.Price,
		Language:           r.Language,
		Image:              r.Image,
		Author:             r.Author,
		InstructorID:       r.InstructorID,
		LearningObjectives: r.LearningObjectives,
		Requirements:       r.Requirements,
	}
}

// CourseSummary is the list view of a course.
type CourseSummary struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Category    string        `json:"category"`
	Level       models.Level  `json:"level"`
	Duration    string        `json:"duration"`
	Price       *float64      `json:"price,omitempty"`
	Free        bool          `json:"free"`
	Image       string        `json:"image,omitempty"`
	Author      models.Author `json:"author"`
	Rating      float64       `json:"rating"`
	Reviews     int           `json:"reviews"`
	Enrollments int           `json:"enrollments"`
	Degraded    bool          `json:"degraded,omitempty"`
}

func summarize(c models.Course) CourseSummary {
	stats := models.NewCourseStatistics(c.Stats)
	return CourseSummary{
		ID:          c.ID,
		Title:       c.Title,
		Description: c.Description,
		Category:    c.Category,
		Level:       c.Level,
		Duration:    c.Duration,
		Price:       c.Price,
		Free:        c.IsFree(),
		Image:       c.Image,
		Author:      c.Author,
		Rating:      stats.DisplayRating(),
		Reviews:     len(c.Reviews),
		Enrollments: stats.Enrollments,
		Degraded:    c.Degraded,
	}
}

func summarizeAll(courses []models.Course) []CourseSummary {
	out := make([]CourseSummary, 0, len(courses))
	for _, c := range courses {
		out = append(out, summarize(c))
	}
	return out
}

// ListCourses godoc
// @Summary List courses
// @Description Returns every course in catalog order, optionally filtered by category and level
// @Tags courses
// @Produce json
// @Param category query string false "Category"
// @Param level query string false "Level"
// @Success 200 {object} utils.SuccessResponse
// @Router /courses [get]
func (cc *CoursesController) ListCourses(c *fiber.Ctx) error {
	category := strings.TrimSpace(c.Query("category"))
	level := models.Level(c.Query("level"))

	courses := cc.Courses.Load(c.UserContext())
	filtered := make([]models.Course, 0, len(courses))
	for _, course := range courses {
		if category != "" && !strings.EqualFold(course.Category, category) {
			continue
		}
		if level != "" && course.Level != level {
			continue
		}
		filtered = append(filtered, course)
	}
	return utils.OK(c, summarizeAll(filtered), fiber.Map{"total": len(filtered), "degraded": degraded(courses)})
}

func (cc *CoursesController) ListFeatured(c *fiber.Ctx) error {
	n := c.QueryInt("n", cc.Cfg.FeaturedCount)
	return utils.OK(c, summarizeAll(cc.Courses.ListFeatured(c.UserContext(), n)))
}

// GetCourse godoc
// @Summary Get course details
// @Tags courses
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} utils.SuccessResponse
// @Failure 404 {object} utils.ErrorResponse
// @Failure 503 {object} utils.ErrorResponse
// @Router /courses/{id} [get]
func (cc *CoursesController) GetCourse(c *fiber.Ctx) error {
	course, ok, err := cc.Courses.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return utils.Fail(c, err)
	}
	if !ok {
		return utils.NotFound(c, "Course not found")
	}
	stats := models.NewCourseStatistics(course.Stats)
	return utils.OK(c, fiber.Map{
		"course":     course,
		"statistics": stats,
		"rating":     stats.DisplayRating(),
	})
}

// CreateCourse godoc
// @Summary Create course
// @Tags admin
// @Accept json
// @Produce json
// @Param input body CreateCourseRequest true "Course data"
// @Success 201 {object} utils.SuccessResponse
// @Failure 422 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /admin/courses [post]
func (cc *CoursesController) CreateCourse(c *fiber.Ctx) error {
	var input CreateCourseRequest
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if errs := utils.ValidateStruct(input); errs != nil {
		return utils.ValidationError(c, errs)
	}
	course, err := cc.Courses.Create(c.UserContext(), input.course())
	if err != nil {
		return utils.Fail(c, err)
	}
	return utils.Created(c, course)
}

func (cc *CoursesController) UpdateCourse(c *fiber.Ctx) error {
	var input models.CourseUpdate
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if errs := utils.ValidateStruct(input); errs != nil {
		return utils.ValidationError(c, errs)
	}
	course, err := cc.Courses.Update(c.UserContext(), c.Params("id"), input)
	if err != nil {
		return utils.Fail(c, err)
	}
	return utils.OK(c, course)
}

func (cc *CoursesController) DeleteCourse(c *fiber.Ctx) error {
	if err := cc.Courses.Delete(c.UserContext(), c.Params("id")); err != nil {
		return utils.Fail(c, err)
	}
	return utils.NoContent(c)
}

func degraded(courses []models.Course) bool {
	return len(courses) == 1 && courses[0].Degraded
}
