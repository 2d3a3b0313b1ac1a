package enrollment

import (
	"context"

	"github.com/philosofium/coursemarket/backend/apperr"
	"github.com/philosofium/coursemarket/backend/models"
	"github.com/philosofium/coursemarket/backend/store"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type Courses interface {
	MustGet(ctx context.Context, id string) (models.Course, error)
}

// Counters receives enrollment events for the statistics.
type Counters interface {
	RecordEnrollment(ctx context.Context, courseID string) error
	RecordCompletion(ctx context.Context, courseID string) error
}

// Service records which users take which courses. Enrollment lives on the
// user's profile document.
type Service struct {
	store    store.DocumentStore
	courses  Courses
	counters Counters
	log      *zap.Logger
}

func NewService(st store.DocumentStore, courses Courses, counters Counters, log *zap.Logger) *Service {
	return &Service{
		store:    st,
		courses:  courses,
		counters: counters,
		log:      log.With(zap.String("service", "enrollment")),
	}
}

// Enroll adds courseID to the user's enrollments. It reports false, and
// leaves the counters alone, when the user was already enrolled.
func (s *Service) Enroll(ctx context.Context, userID, courseID string) (bool, error) {
	if _, err := s.courses.MustGet(ctx, courseID); err != nil {
		return false, err
	}
	u, err := s.user(ctx, userID)
	if err != nil {
		return false, err
	}
	if u.IsEnrolled(courseID) {
		return false, nil
	}
	if err := s.addTo(ctx, userID, "enrolled", courseID); err != nil {
		return false, err
	}
	s.log.Info("user enrolled", zap.String("user", userID), zap.String("course", courseID))

	if err := s.counters.RecordEnrollment(ctx, courseID); err != nil {
		s.log.Error("could not record enrollment", zap.String("course", courseID), zap.Error(err))
	}
	return true, nil
}

// Complete marks an enrolled course as finished. It reports false when it
// was already completed.
func (s *Service) Complete(ctx context.Context, userID, courseID string) (bool, error) {
	u, err := s.user(ctx, userID)
	if err != nil {
		return false, err
	}
	if !u.IsEnrolled(courseID) {
		return false, apperr.New(apperr.KindNotEnrolled, "user %s is not enrolled in course %s", userID, courseID)
	}
	if u.HasCompleted(courseID) {
		return false, nil
	}
	if err := s.addTo(ctx, userID, "completed", courseID); err != nil {
		return false, err
	}
	s.log.Info("course completed", zap.String("user", userID), zap.String("course", courseID))

	if err := s.counters.RecordCompletion(ctx, courseID); err != nil {
		s.log.Error("could not record completion", zap.String("course", courseID), zap.Error(err))
	}
	return true, nil
}

func (s *Service) IsEnrolled(ctx context.Context, userID, courseID string) (bool, error) {
	u, err := s.user(ctx, userID)
	if err != nil {
		return false, err
	}
	return u.IsEnrolled(courseID), nil
}

// EnrolledCourses returns the user's courses in enrollment order. Courses
// deleted since are skipped.
func (s *Service) EnrolledCourses(ctx context.Context, userID string) ([]models.Course, error) {
	u, err := s.user(ctx, userID)
	if err != nil {
		return nil, err
	}
	courses := make([]models.Course, 0, len(u.Enrolled))
	for _, id := range u.Enrolled {
		c, err := s.courses.MustGet(ctx, id)
		if apperr.KindOf(err) == apperr.KindNotFound {
			continue
		}
		if err != nil {
			return nil, err
		}
		courses = append(courses, c)
	}
	return courses, nil
}

// user loads the profile document; a missing one is an empty profile.
func (s *Service) user(ctx context.Context, userID string) (models.User, error) {
	if userID == "" {
		return models.User{}, apperr.New(apperr.KindUnauthorized, "no signed-in user")
	}
	snap, err := s.store.Get(ctx, store.CollectionUsers, userID)
	if errors.Is(err, store.ErrNotFound) {
		return models.User{ID: userID}, nil
	}
	if err != nil {
		return models.User{}, apperr.Unavailable(err, "could not load user")
	}
	var u models.User
	if err := snap.Decode(&u); err != nil {
		return models.User{}, errors.Wrapf(err, "decode user %s", userID)
	}
	return u, nil
}

func (s *Service) addTo(ctx context.Context, userID, field, courseID string) error {
	err := s.store.Update(ctx, store.CollectionUsers, userID, map[string]interface{}{field: store.Union(courseID)})
	if errors.Is(err, store.ErrNotFound) {
		err = s.store.Set(ctx, store.CollectionUsers, userID, map[string]interface{}{field: []string{courseID}}, true)
	}
	if err != nil {
		return apperr.Unavailable(err, "could not update user")
	}
	return nil
}
