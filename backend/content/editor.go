package content

import (
	"context"
	"fmt"

	"github.com/philosofium/coursemarket/backend/models"
	"go.uber.org/zap"
)

// Courses is the course accessor the editor reads and writes through.
type Courses interface {
	MustGet(ctx context.Context, id string) (models.Course, error)
	UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error
}

type Notifier interface {
	Append(ctx context.Context, typ models.NotificationType, title, message string) (models.Notification, error)
}

// Editor loads a course's curriculum into a Tree and persists it back.
type Editor struct {
	courses Courses
	notify  Notifier
	log     *zap.Logger
}

func NewEditor(courses Courses, notifier Notifier, log *zap.Logger) *Editor {
	return &Editor{
		courses: courses,
		notify:  notifier,
		log:     log.With(zap.String("service", "content")),
	}
}

func (e *Editor) Load(ctx context.Context, courseID string) (*Tree, error) {
	c, err := e.courses.MustGet(ctx, courseID)
	if err != nil {
		return nil, err
	}
	return FromContent(c.Content)
}

// Save replaces the course content with the serialized tree.
func (e *Editor) Save(ctx context.Context, courseID string, t *Tree) error {
	c, err := e.courses.MustGet(ctx, courseID)
	if err != nil {
		return err
	}
	content := t.Serialize()
	if err := e.courses.UpdateFields(ctx, courseID, map[string]interface{}{"content": content}); err != nil {
		return err
	}
	e.log.Info("course content saved",
		zap.String("course", courseID),
		zap.Int("sections", t.SectionCount()),
		zap.Int("lessons", t.LessonCount()))

	msg := fmt.Sprintf("Content of %q now has %d sections and %d lessons", c.Title, t.SectionCount(), t.LessonCount())
	if _, err := e.notify.Append(ctx, models.NotificationInfo, "Course Content Updated", msg); err != nil {
		e.log.Warn("could not announce content update", zap.String("course", courseID), zap.Error(err))
	}
	return nil
}

// Edit loads the tree, applies fn and saves the result. Nothing is written
// when fn fails.
func (e *Editor) Edit(ctx context.Context, courseID string, fn func(*Tree) error) (*Tree, error) {
	t, err := e.Load(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if err := fn(t); err != nil {
		return nil, err
	}
	if err := e.Save(ctx, courseID, t); err != nil {
		return nil, err
	}
	return t, nil
}
