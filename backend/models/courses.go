package models

import "time"

type Level string

const (
	LevelBeginner     Level = "Beginner"
	LevelIntermediate Level = "Intermediate"
	LevelAdvanced     Level = "Advanced"
)

func (l Level) Valid() bool {
	switch l {
	case LevelBeginner, LevelIntermediate, LevelAdvanced:
		return true
	}
	return false
}

type Author struct {
	Name   string `json:"name"`
	Title  string `json:"title,omitempty"`
	Bio    string `json:"bio,omitempty"`
	Avatar string `json:"avatar,omitempty"`
}

type Course struct {
	ID                 string        `json:"id"`
	Title              string        `json:"title"`
	Description        string        `json:"description"`
	LongDescription    string        `json:"longDescription,omitempty"`
	Category           string        `json:"category"`
	Level              Level         `json:"level"`
	Duration           string        `json:"duration"`
	Price              *float64      `json:"price,omitempty"` // nil means free
	Language           string        `json:"language"`
	Image              string        `json:"image,omitempty"`
	Author             Author        `json:"author"`
	InstructorID       string        `json:"instructorId,omitempty"`
	LearningObjectives []string      `json:"learningObjectives"`
	Requirements       []string      `json:"requirements"`
	Content            CourseContent `json:"content"`
	Reviews            []Review      `json:"reviews"`
	Stats              CourseStats   `json:"stats"`
	CreatedAt          time.Time     `json:"createdAt"`
	// Degraded marks the placeholder served while the backend is unreachable.
	Degraded bool `json:"degraded,omitempty"`
}

func (c Course) IsFree() bool {
	return c.Price == nil || *c.Price == 0
}

// FindReview returns the index of the review with the given id, or -1.
func (c Course) FindReview(id string) int {
	for i, r := range c.Reviews {
		if r.ID == id {
			return i
		}
	}
	return -1
}

// ReviewBy returns the index of userID's review, or -1.
func (c Course) ReviewBy(userID string) int {
	for i, r := range c.Reviews {
		if r.UserID == userID {
			return i
		}
	}
	return -1
}

// CourseUpdate carries the descriptive fields an admin may change. Nil
// fields are left untouched.
type CourseUpdate struct {
	Title              *string   `json:"title" validate:"omitempty,min=1,max=200"`
	Description        *string   `json:"description" validate:"omitempty,max=2000"`
	LongDescription    *string   `json:"longDescription"`
	Category           *string   `json:"category"`
	Level              *Level    `json:"level" validate:"omitempty,oneof=Beginner Intermediate Advanced"`
	Duration           *string   `json:"duration"`
	Price              *float64  `json:"price" validate:"omitempty,gte=0"`
	Language           *string   `json:"language"`
	Image              *string   `json:"image" validate:"omitempty,url"`
	Author             *Author   `json:"author"`
	InstructorID       *string   `json:"instructorId"`
	LearningObjectives *[]string `json:"learningObjectives"`
	Requirements       *[]string `json:"requirements"`
}

// Fields returns the partial document for the non-nil fields.
func (u CourseUpdate) Fields() map[string]interface{} {
	fields := map[string]interface{}{}
	if u.Title != nil {
		fields["title"] = *u.Title
	}
	if u.Description != nil {
		fields["description"] = *u.Description
	}
	if u.LongDescription != nil {
		fields["longDescription"] = *u.LongDescription
	}
	if u.Category != nil {
		fields["category"] = *u.Category
	}
	if u.Level != nil {
		fields["level"] = *u.Level
	}
	if u.Duration != nil {
		fields["duration"] = *u.Duration
	}
	if u.Price != nil {
		fields["price"] = *u.Price
	}
	if u.Language != nil {
		fields["language"] = *u.Language
	}
	if u.Image != nil {
		fields["image"] = *u.Image
	}
	if u.Author != nil {
		fields["author"] = *u.Author
	}
	if u.InstructorID != nil {
		fields["instructorId"] = *u.InstructorID
	}
	if u.LearningObjectives != nil {
		fields["learningObjectives"] = *u.LearningObjectives
	}
	if u.Requirements != nil {
		fields["requirements"] = *u.Requirements
	}
	return fields
}

type LessonType string

const (
	LessonText  LessonType = "text"
	LessonVideo LessonType = "video"
	LessonQuiz  LessonType = "quiz"
)

func (t LessonType) Valid() bool {
	switch t {
	case LessonText, LessonVideo, LessonQuiz:
		return true
	}
	return false
}

type CourseContent struct {
	Sections []Section `json:"sections"`
}

type Section struct {
	Title   string   `json:"title"`
	Lessons []Lesson `json:"lessons"`
}

// Lesson payload fields are only meaningful for the matching Type; the
// others stay nil.
type Lesson struct {
	Title     string     `json:"title"`
	Type      LessonType `json:"type"`
	Duration  string     `json:"duration"`
	Content   *string    `json:"content,omitempty"`
	VideoURL  *string    `json:"videoUrl,omitempty"`
	Questions []Question `json:"questions,omitempty"`
}

type Question struct {
	Text    string   `json:"text"`
	Options []string `json:"options"`
	Correct int      `json:"correct"`
}
