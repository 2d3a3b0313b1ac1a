package content

import (
	"regexp"
	"strings"

	"github.com/philosofium/coursemarket/backend/apperr"
	"github.com/philosofium/coursemarket/backend/models"
	"github.com/pkg/errors"
)

const (
	DefaultSectionTitle = "New Section"
	DefaultLessonTitle  = "New Lesson"
	DefaultDuration     = "0:00"
)

var durationPattern = regexp.MustCompile(`^(\d+:)?\d{1,3}:[0-5]\d$`)

// Tree is the editable curriculum of a course. Indices are positional: any
// add, remove or move invalidates indices held by the caller.
type Tree struct {
	sections []models.Section
}

func New() *Tree {
	return &Tree{sections: []models.Section{}}
}

// FromContent builds a tree from its persisted form, dropping payload fields
// that do not match each lesson's type.
func FromContent(c models.CourseContent) (*Tree, error) {
	t := New()
	for si, s := range c.Sections {
		sec := models.Section{Title: s.Title, Lessons: make([]models.Lesson, 0, len(s.Lessons))}
		for li, l := range s.Lessons {
			if l.Type == "" {
				l.Type = models.LessonText
			}
			if !l.Type.Valid() {
				return nil, apperr.New(apperr.KindInvalidInput,
					"section %d lesson %d: unknown lesson type %q", si, li, l.Type)
			}
			if l.Duration == "" {
				l.Duration = DefaultDuration
			}
			l = copyLesson(l)
			clearStale(&l)
			for qi, q := range l.Questions {
				if err := validateQuestion(q); err != nil {
					return nil, apperr.New(apperr.KindInvalidInput,
						"section %d lesson %d question %d: %s", si, li, qi, err.Error())
				}
			}
			sec.Lessons = append(sec.Lessons, l)
		}
		t.sections = append(t.sections, sec)
	}
	return t, nil
}

// Serialize returns a deep copy in the persisted course content shape.
func (t *Tree) Serialize() models.CourseContent {
	out := models.CourseContent{Sections: make([]models.Section, 0, len(t.sections))}
	for _, s := range t.sections {
		sec := models.Section{Title: s.Title, Lessons: make([]models.Lesson, 0, len(s.Lessons))}
		for _, l := range s.Lessons {
			sec.Lessons = append(sec.Lessons, copyLesson(l))
		}
		out.Sections = append(out.Sections, sec)
	}
	return out
}

func (t *Tree) SectionCount() int { return len(t.sections) }

// LessonCount is the number of lessons across all sections.
func (t *Tree) LessonCount() int {
	n := 0
	for _, s := range t.sections {
		n += len(s.Lessons)
	}
	return n
}

func (t *Tree) Section(i int) (models.Section, error) {
	if err := t.checkSection(i); err != nil {
		return models.Section{}, err
	}
	s := t.sections[i]
	out := models.Section{Title: s.Title, Lessons: make([]models.Lesson, 0, len(s.Lessons))}
	for _, l := range s.Lessons {
		out.Lessons = append(out.Lessons, copyLesson(l))
	}
	return out, nil
}

func (t *Tree) Lesson(si, li int) (models.Lesson, error) {
	l, err := t.lesson(si, li)
	if err != nil {
		return models.Lesson{}, err
	}
	return copyLesson(*l), nil
}

// AddSection appends an empty section.
func (t *Tree) AddSection(title string) models.Section {
	title = strings.TrimSpace(title)
	if title == "" {
		title = DefaultSectionTitle
	}
	s := models.Section{Title: title, Lessons: []models.Lesson{}}
	t.sections = append(t.sections, s)
	return s
}

// RemoveSection deletes a section together with its lessons.
func (t *Tree) RemoveSection(i int) error {
	if err := t.checkSection(i); err != nil {
		return err
	}
	t.sections = append(t.sections[:i], t.sections[i+1:]...)
	return nil
}

func (t *Tree) RenameSection(i int, title string) error {
	if err := t.checkSection(i); err != nil {
		return err
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return apperr.New(apperr.KindInvalidInput, "section title is required")
	}
	t.sections[i].Title = title
	return nil
}

// MoveSection moves section from to position to, shifting the others.
func (t *Tree) MoveSection(from, to int) error {
	if err := t.checkSection(from); err != nil {
		return err
	}
	if err := t.checkSection(to); err != nil {
		return err
	}
	t.sections = move(t.sections, from, to)
	return nil
}

// AddLesson appends an empty text lesson to a section.
func (t *Tree) AddLesson(si int, title string) (models.Lesson, error) {
	if err := t.checkSection(si); err != nil {
		return models.Lesson{}, err
	}
	title = strings.TrimSpace(title)
	if title == "" {
		title = DefaultLessonTitle
	}
	body := ""
	l := models.Lesson{Title: title, Type: models.LessonText, Duration: DefaultDuration, Content: &body}
	t.sections[si].Lessons = append(t.sections[si].Lessons, l)
	return copyLesson(l), nil
}

func (t *Tree) RemoveLesson(si, li int) error {
	if _, err := t.lesson(si, li); err != nil {
		return err
	}
	lessons := t.sections[si].Lessons
	t.sections[si].Lessons = append(lessons[:li], lessons[li+1:]...)
	return nil
}

func (t *Tree) MoveLesson(si, from, to int) error {
	if _, err := t.lesson(si, from); err != nil {
		return err
	}
	if _, err := t.lesson(si, to); err != nil {
		return err
	}
	t.sections[si].Lessons = move(t.sections[si].Lessons, from, to)
	return nil
}

// UpdateLesson sets title and duration. Empty arguments keep the current value.
func (t *Tree) UpdateLesson(si, li int, title, duration string) error {
	l, err := t.lesson(si, li)
	if err != nil {
		return err
	}
	duration = strings.TrimSpace(duration)
	if duration != "" && !durationPattern.MatchString(duration) {
		return apperr.New(apperr.KindInvalidInput, "duration %q must look like 5:30 or 1:05:30", duration)
	}
	if title = strings.TrimSpace(title); title != "" {
		l.Title = title
	}
	if duration != "" {
		l.Duration = duration
	}
	return nil
}

// SetLessonType switches a lesson's type. Payload that belongs to the old
// type is discarded, not converted.
func (t *Tree) SetLessonType(si, li int, typ models.LessonType) error {
	l, err := t.lesson(si, li)
	if err != nil {
		return err
	}
	if !typ.Valid() {
		return apperr.New(apperr.KindInvalidInput, "unknown lesson type %q", typ)
	}
	if l.Type == typ {
		return nil
	}
	l.Type = typ
	clearStale(l)
	switch typ {
	case models.LessonText:
		if l.Content == nil {
			body := ""
			l.Content = &body
		}
	case models.LessonVideo:
		if l.VideoURL == nil {
			url := ""
			l.VideoURL = &url
		}
	}
	return nil
}

func (t *Tree) SetText(si, li int, body string) error {
	l, err := t.typedLesson(si, li, models.LessonText)
	if err != nil {
		return err
	}
	l.Content = &body
	return nil
}

func (t *Tree) SetVideoURL(si, li int, url string) error {
	l, err := t.typedLesson(si, li, models.LessonVideo)
	if err != nil {
		return err
	}
	url = strings.TrimSpace(url)
	l.VideoURL = &url
	return nil
}

// AddQuestion appends a question to a quiz lesson.
func (t *Tree) AddQuestion(si, li int, q models.Question) error {
	l, err := t.typedLesson(si, li, models.LessonQuiz)
	if err != nil {
		return err
	}
	if err := validateQuestion(q); err != nil {
		return apperr.Wrap(apperr.KindInvalidInput, err, "invalid question")
	}
	l.Questions = append(l.Questions, copyQuestion(q))
	return nil
}

func (t *Tree) UpdateQuestion(si, li, qi int, q models.Question) error {
	l, err := t.typedLesson(si, li, models.LessonQuiz)
	if err != nil {
		return err
	}
	if qi < 0 || qi >= len(l.Questions) {
		return apperr.New(apperr.KindIndexOutOfRange, "question %d out of range [0,%d)", qi, len(l.Questions))
	}
	if err := validateQuestion(q); err != nil {
		return apperr.Wrap(apperr.KindInvalidInput, err, "invalid question")
	}
	l.Questions[qi] = copyQuestion(q)
	return nil
}

func (t *Tree) RemoveQuestion(si, li, qi int) error {
	l, err := t.typedLesson(si, li, models.LessonQuiz)
	if err != nil {
		return err
	}
	if qi < 0 || qi >= len(l.Questions) {
		return apperr.New(apperr.KindIndexOutOfRange, "question %d out of range [0,%d)", qi, len(l.Questions))
	}
	l.Questions = append(l.Questions[:qi], l.Questions[qi+1:]...)
	return nil
}

func (t *Tree) checkSection(i int) error {
	if i < 0 || i >= len(t.sections) {
		return apperr.New(apperr.KindIndexOutOfRange, "section %d out of range [0,%d)", i, len(t.sections))
	}
	return nil
}

func (t *Tree) lesson(si, li int) (*models.Lesson, error) {
	if err := t.checkSection(si); err != nil {
		return nil, err
	}
	lessons := t.sections[si].Lessons
	if li < 0 || li >= len(lessons) {
		return nil, apperr.New(apperr.KindIndexOutOfRange, "lesson %d out of range [0,%d) in section %d", li, len(lessons), si)
	}
	return &t.sections[si].Lessons[li], nil
}

func (t *Tree) typedLesson(si, li int, typ models.LessonType) (*models.Lesson, error) {
	l, err := t.lesson(si, li)
	if err != nil {
		return nil, err
	}
	if l.Type != typ {
		return nil, apperr.New(apperr.KindInvalidInput, "lesson is %s, not %s", l.Type, typ)
	}
	return l, nil
}

// clearStale drops payload fields that do not belong to the lesson's type.
func clearStale(l *models.Lesson) {
	if l.Type != models.LessonText {
		l.Content = nil
	}
	if l.Type != models.LessonVideo {
		l.VideoURL = nil
	}
	if l.Type != models.LessonQuiz {
		l.Questions = nil
	}
}

func validateQuestion(q models.Question) error {
	if strings.TrimSpace(q.Text) == "" {
		return errors.New("question text is required")
	}
	if len(q.Options) < 2 {
		return errors.New("a question needs at least two options")
	}
	if q.Correct < 0 || q.Correct >= len(q.Options) {
		return errors.New("correct answer must index one of the options")
	}
	return nil
}

func copyLesson(l models.Lesson) models.Lesson {
	if l.Content != nil {
		body := *l.Content
		l.Content = &body
	}
	if l.VideoURL != nil {
		url := *l.VideoURL
		l.VideoURL = &url
	}
	if l.Questions != nil {
		qs := make([]models.Question, 0, len(l.Questions))
		for _, q := range l.Questions {
			qs = append(qs, copyQuestion(q))
		}
		l.Questions = qs
	}
	return l
}

func copyQuestion(q models.Question) models.Question {
	q.Options = append([]string(nil), q.Options...)
	return q
}

func move[T any](items []T, from, to int) []T {
	item := items[from]
	items = append(items[:from], items[from+1:]...)
	items = append(items[:to], append([]T{item}, items[to:]...)...)
	return items
}
