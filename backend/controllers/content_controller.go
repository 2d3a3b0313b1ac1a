package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/philosofium/coursemarket/backend/content"
	"github.com/philosofium/coursemarket/backend/models"
	"github.com/philosofium/coursemarket/backend/utils"
)

// ContentController edits a course curriculum. Every mutation loads the
// stored tree, applies one change and saves it back, so indices in the
// path refer to the tree as currently stored.
type ContentController struct {
	Editor *content.Editor
}

func NewContentController(editor *content.Editor) *ContentController {
	return &ContentController{Editor: editor}
}

type TitleRequest struct {
	Title string `json:"title" validate:"max=200"`
}

type MoveRequest struct {
	To int `json:"to" validate:"gte=0"`
}

// UpdateLessonRequest defines the request body for editing a lesson.
// Absent fields are left untouched; type is applied before the payload.
type UpdateLessonRequest struct {
	Title    string             `json:"title" validate:"max=200"`
	Duration string             `json:"duration" example:"12:30"`
	Type     *models.LessonType `json:"type" validate:"omitempty,oneof=text video quiz" enums:"text,video,quiz"`
	Content  *string            `json:"content"`
	VideoURL *string            `json:"videoUrl" validate:"omitempty,url"`
}

type QuestionRequest struct {
	Text    string   `json:"text" validate:"required"`
	Options []string `json:"options" validate:"min=2,dive,required"`
	Correct int      `json:"correct" validate:"gte=0"`
}

func (q QuestionRequest) question() models.Question {
	return models.Question{Text: q.Text, Options: q.Options, Correct: q.Correct}
}

func (cc *ContentController) GetContent(c *fiber.Ctx) error {
	tree, err := cc.Editor.Load(c.UserContext(), c.Params("id"))
	if err != nil {
		return utils.Fail(c, err)
	}
	return cc.respond(c, tree)
}

// ReplaceContent godoc
// @Summary Replace course content
// @Description Validates and stores a whole curriculum. Payload fields that do not match a lesson's type are dropped.
// @Tags content
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param input body models.CourseContent true "Curriculum"
// @Success 200 {object} utils.SuccessResponse
// @Failure 404 {object} utils.ErrorResponse
// @Failure 422 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /admin/courses/{id}/content [put]
func (cc *ContentController) ReplaceContent(c *fiber.Ctx) error {
	var input models.CourseContent
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	tree, err := content.FromContent(input)
	if err != nil {
		return utils.Fail(c, err)
	}
	if err := cc.Editor.Save(c.UserContext(), c.Params("id"), tree); err != nil {
		return utils.Fail(c, err)
	}
	return cc.respond(c, tree)
}

func (cc *ContentController) AddSection(c *fiber.Ctx) error {
	var input TitleRequest
	if ok, err := bind(c, &input); !ok {
		return err
	}
	return cc.edit(c, func(t *content.Tree) error {
		t.AddSection(input.Title)
		return nil
	})
}

func (cc *ContentController) RenameSection(c *fiber.Ctx) error {
	si, err := c.ParamsInt("section")
	if err != nil {
		return utils.BadRequest(c, "Invalid section index")
	}
	var input TitleRequest
	if ok, err := bind(c, &input); !ok {
		return err
	}
	return cc.edit(c, func(t *content.Tree) error { return t.RenameSection(si, input.Title) })
}

func (cc *ContentController) DeleteSection(c *fiber.Ctx) error {
	si, err := c.ParamsInt("section")
	if err != nil {
		return utils.BadRequest(c, "Invalid section index")
	}
	return cc.edit(c, func(t *content.Tree) error { return t.RemoveSection(si) })
}

func (cc *ContentController) MoveSection(c *fiber.Ctx) error {
	si, err := c.ParamsInt("section")
	if err != nil {
		return utils.BadRequest(c, "Invalid section index")
	}
	var input MoveRequest
	if ok, err := bind(c, &input); !ok {
		return err
	}
	return cc.edit(c, func(t *content.Tree) error { return t.MoveSection(si, input.To) })
}

func (cc *ContentController) AddLesson(c *fiber.Ctx) error {
	si, err := c.ParamsInt("section")
	if err != nil {
		return utils.BadRequest(c, "Invalid section index")
	}
	var input TitleRequest
	if ok, err := bind(c, &input); !ok {
		return err
	}
	return cc.edit(c, func(t *content.Tree) error {
		_, err := t.AddLesson(si, input.Title)
		return err
	})
}

// UpdateLesson godoc
// @Summary Edit a lesson
// @Description Changing the type discards the payload of the previous type
// @Tags content
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param section path int true "Section index"
// @Param lesson path int true "Lesson index"
// @Param input body UpdateLessonRequest true "Lesson fields"
// @Success 200 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 422 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /admin/courses/{id}/content/sections/{section}/lessons/{lesson} [put]
func (cc *ContentController) UpdateLesson(c *fiber.Ctx) error {
	si, li, err := lessonIndex(c)
	if err != nil {
		return utils.BadRequest(c, err.Error())
	}
	var input UpdateLessonRequest
	if ok, err := bind(c, &input); !ok {
		return err
	}
	return cc.edit(c, func(t *content.Tree) error {
		if input.Type != nil {
			if err := t.SetLessonType(si, li, *input.Type); err != nil {
				return err
			}
		}
		if err := t.UpdateLesson(si, li, input.Title, input.Duration); err != nil {
			return err
		}
		if input.Content != nil {
			if err := t.SetText(si, li, *input.Content); err != nil {
				return err
			}
		}
		if input.VideoURL != nil {
			return t.SetVideoURL(si, li, *input.VideoURL)
		}
		return nil
	})
}

func (cc *ContentController) DeleteLesson(c *fiber.Ctx) error {
	si, li, err := lessonIndex(c)
	if err != nil {
		return utils.BadRequest(c, err.Error())
	}
	return cc.edit(c, func(t *content.Tree) error { return t.RemoveLesson(si, li) })
}

func (cc *ContentController) MoveLesson(c *fiber.Ctx) error {
	si, li, err := lessonIndex(c)
	if err != nil {
		return utils.BadRequest(c, err.Error())
	}
	var input MoveRequest
	if ok, err := bind(c, &input); !ok {
		return err
	}
	return cc.edit(c, func(t *content.Tree) error { return t.MoveLesson(si, li, input.To) })
}

func (cc *ContentController) AddQuestion(c *fiber.Ctx) error {
	si, li, err := lessonIndex(c)
	if err != nil {
		return utils.BadRequest(c, err.Error())
	}
	var input QuestionRequest
	if ok, err := bind(c, &input); !ok {
		return err
	}
	return cc.edit(c, func(t *content.Tree) error { return t.AddQuestion(si, li, input.question()) })
}

func (cc *ContentController) UpdateQuestion(c *fiber.Ctx) error {
	si, li, err := lessonIndex(c)
	if err != nil {
		return utils.BadRequest(c, err.Error())
	}
	qi, err := c.ParamsInt("question")
	if err != nil {
		return utils.BadRequest(c, "Invalid question index")
	}
	var input QuestionRequest
	if ok, err := bind(c, &input); !ok {
		return err
	}
	return cc.edit(c, func(t *content.Tree) error { return t.UpdateQuestion(si, li, qi, input.question()) })
}

func (cc *ContentController) DeleteQuestion(c *fiber.Ctx) error {
	si, li, err := lessonIndex(c)
	if err != nil {
		return utils.BadRequest(c, err.Error())
	}
	qi, err := c.ParamsInt("question")
	if err != nil {
		return utils.BadRequest(c, "Invalid question index")
	}
	return cc.edit(c, func(t *content.Tree) error { return t.RemoveQuestion(si, li, qi) })
}

func (cc *ContentController) edit(c *fiber.Ctx, fn func(*content.Tree) error) error {
	tree, err := cc.Editor.Edit(c.UserContext(), c.Params("id"), fn)
	if err != nil {
		return utils.Fail(c, err)
	}
	return cc.respond(c, tree)
}

func (cc *ContentController) respond(c *fiber.Ctx, tree *content.Tree) error {
	return utils.OK(c, tree.Serialize(), fiber.Map{
		"sections": tree.SectionCount(),
		"lessons":  tree.LessonCount(),
	})
}

// bind decodes and validates the body. On false the error response has
// been written and the handler returns err as is.
func bind(c *fiber.Ctx, out interface{}) (bool, error) {
	if err := c.BodyParser(out); err != nil {
		return false, utils.BadRequest(c, "Cannot parse JSON")
	}
	if errs := utils.ValidateStruct(out); errs != nil {
		return false, utils.ValidationError(c, errs)
	}
	return true, nil
}

func lessonIndex(c *fiber.Ctx) (int, int, error) {
	si, err := c.ParamsInt("section")
	if err != nil {
		return 0, 0, fiber.NewError(fiber.StatusBadRequest, "Invalid section index")
	}
	li, err := c.ParamsInt("lesson")
	if err != nil {
		return 0, 0, fiber.NewError(fiber.StatusBadRequest, "Invalid lesson index")
	}
	return si, li, nil
}
