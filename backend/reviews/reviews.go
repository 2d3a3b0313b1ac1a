package reviews

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/philosofium/coursemarket/backend/apperr"
	"github.com/philosofium/coursemarket/backend/identity"
	"github.com/philosofium/coursemarket/backend/models"
	"github.com/philosofium/coursemarket/backend/store"
	"go.uber.org/zap"
)

const (
	MinReviewLength = 20
	MinReplyLength  = 10
	// AnonymousName is shown for reviewers with neither a display name nor an email.
	AnonymousName = "Anonymous"
)

// Courses is the course accessor reviews are read and written through.
type Courses interface {
	MustGet(ctx context.Context, id string) (models.Course, error)
	UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error
}

type Enrollments interface {
	IsEnrolled(ctx context.Context, userID, courseID string) (bool, error)
}

type RatingRecorder interface {
	RecordRating(ctx context.Context, courseID string, rating int) error
}

// Engine enforces the review rules: one review per enrolled user and
// course, idempotent helpful votes, a single reply by staff.
//
// Every operation is read-check-write with no concurrency token, so two
// simultaneous submissions by the same user can both pass the duplicate check.
type Engine struct {
	courses     Courses
	enrollments Enrollments
	ratings     RatingRecorder
	store       store.DocumentStore
	log         *zap.Logger
	Now         func() time.Time
	NewID       func() string
}

func NewEngine(courses Courses, enrollments Enrollments, ratings RatingRecorder, st store.DocumentStore, log *zap.Logger) *Engine {
	return &Engine{
		courses:     courses,
		enrollments: enrollments,
		ratings:     ratings,
		store:       st,
		log:         log.With(zap.String("service", "reviews")),
		Now:         func() time.Time { return time.Now().UTC() },
		NewID:       uuid.NewString,
	}
}

// Submit adds author's review to a course and records the rating.
func (e *Engine) Submit(ctx context.Context, courseID string, author identity.Principal, rating int, text string) (models.Review, error) {
	c, err := e.courses.MustGet(ctx, courseID)
	if err != nil {
		return models.Review{}, err
	}
	enrolled, err := e.enrollments.IsEnrolled(ctx, author.ID, courseID)
	if err != nil {
		return models.Review{}, err
	}
	if !enrolled {
		return models.Review{}, apperr.New(apperr.KindNotEnrolled, "user %s is not enrolled in course %s", author.ID, courseID)
	}
	if c.ReviewBy(author.ID) >= 0 {
		return models.Review{}, apperr.New(apperr.KindDuplicateReview, "user %s already reviewed course %s", author.ID, courseID)
	}
	if rating < 1 || rating > 5 {
		return models.Review{}, apperr.New(apperr.KindInvalidRating, "rating %d is outside 1..5", rating)
	}
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) < MinReviewLength {
		return models.Review{}, apperr.New(apperr.KindTextTooShort, "review must be at least %d characters", MinReviewLength)
	}

	name := author.Name()
	if name == "" {
		name = AnonymousName
	}
	r := models.Review{
		ID:           e.NewID(),
		UserID:       author.ID,
		UserName:     name,
		UserAvatar:   author.PhotoURL,
		Rating:       rating,
		Content:      text,
		Date:         e.Now(),
		HelpfulUsers: []string{},
	}
	if err := e.courses.UpdateFields(ctx, courseID, map[string]interface{}{"reviews": store.Union(r)}); err != nil {
		return models.Review{}, err
	}
	e.log.Info("review submitted", zap.String("course", courseID), zap.String("user", author.ID), zap.Int("rating", rating))

	if err := e.ratings.RecordRating(ctx, courseID, rating); err != nil {
		// The review stands; counters catch up on the next rating.
		e.log.Error("could not record rating", zap.String("course", courseID), zap.Error(err))
	}
	return r, nil
}

// MarkHelpful counts userID's vote once and returns the helpful count.
func (e *Engine) MarkHelpful(ctx context.Context, courseID, reviewID, userID string) (int, error) {
	c, err := e.courses.MustGet(ctx, courseID)
	if err != nil {
		return 0, err
	}
	i, err := findReview(c, reviewID)
	if err != nil {
		return 0, err
	}
	r := &c.Reviews[i]
	if r.MarkedHelpfulBy(userID) {
		return r.Helpful, nil
	}
	r.Helpful++
	r.HelpfulUsers = append(r.HelpfulUsers, userID)
	if err := e.courses.UpdateFields(ctx, courseID, map[string]interface{}{"reviews": c.Reviews}); err != nil {
		return 0, err
	}
	return r.Helpful, nil
}

// Reply attaches a staff reply to a review, replacing any earlier one.
// Only admins and the course instructor may reply.
func (e *Engine) Reply(ctx context.Context, courseID, reviewID string, author identity.Principal, isAdmin bool, text string) (models.Review, error) {
	c, err := e.courses.MustGet(ctx, courseID)
	if err != nil {
		return models.Review{}, err
	}
	instructor := c.InstructorID != "" && author.ID == c.InstructorID
	if !isAdmin && !instructor {
		return models.Review{}, apperr.New(apperr.KindUnauthorized, "only instructors and admins can reply to reviews")
	}
	i, err := findReview(c, reviewID)
	if err != nil {
		return models.Review{}, err
	}
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) < MinReplyLength {
		return models.Review{}, apperr.New(apperr.KindTextTooShort, "reply must be at least %d characters", MinReplyLength)
	}

	role, name := models.ReplyInstructor, "Instructor"
	if isAdmin {
		role, name = models.ReplyAdmin, "Admin"
	}
	if author.DisplayName != "" {
		name = author.DisplayName
	}
	c.Reviews[i].Reply = &models.Reply{
		AuthorID:     author.ID,
		AuthorName:   name,
		AuthorAvatar: author.PhotoURL,
		AuthorRole:   role,
		Text:         text,
		Date:         e.Now(),
	}
	if err := e.courses.UpdateFields(ctx, courseID, map[string]interface{}{"reviews": c.Reviews}); err != nil {
		return models.Review{}, err
	}
	e.log.Info("review reply saved", zap.String("course", courseID), zap.String("review", reviewID), zap.String("role", string(role)))
	return c.Reviews[i], nil
}

// Report files a review for moderation.
func (e *Engine) Report(ctx context.Context, courseID, reviewID, reporterID, reason string) (models.ReviewReport, error) {
	c, err := e.courses.MustGet(ctx, courseID)
	if err != nil {
		return models.ReviewReport{}, err
	}
	if _, err := findReview(c, reviewID); err != nil {
		return models.ReviewReport{}, err
	}
	report := models.ReviewReport{
		CourseID:   courseID,
		ReviewID:   reviewID,
		ReportedBy: reporterID,
		Reason:     strings.TrimSpace(reason),
		Status:     models.ReportPending,
		Timestamp:  e.Now(),
	}
	id, err := e.store.Create(ctx, store.CollectionReportedReviews, report)
	if err != nil {
		return models.ReviewReport{}, apperr.Unavailable(err, "could not file report")
	}
	report.ID = id
	e.log.Info("review reported", zap.String("course", courseID), zap.String("review", reviewID))
	return report, nil
}

func (e *Engine) List(ctx context.Context, courseID string) ([]models.Review, error) {
	c, err := e.courses.MustGet(ctx, courseID)
	if err != nil {
		return nil, err
	}
	return c.Reviews, nil
}

// UserReview returns userID's review of a course, if any.
func (e *Engine) UserReview(ctx context.Context, courseID, userID string) (models.Review, bool, error) {
	c, err := e.courses.MustGet(ctx, courseID)
	if err != nil {
		return models.Review{}, false, err
	}
	i := c.ReviewBy(userID)
	if i < 0 {
		return models.Review{}, false, nil
	}
	return c.Reviews[i], true, nil
}

func findReview(c models.Course, reviewID string) (int, error) {
	i := c.FindReview(reviewID)
	if i < 0 {
		return 0, apperr.New(apperr.KindReviewNotFound, "review %s not found", reviewID)
	}
	return i, nil
}
