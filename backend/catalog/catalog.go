package catalog

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/philosofium/coursemarket/backend/apperr"
	"github.com/philosofium/coursemarket/backend/models"
	"github.com/philosofium/coursemarket/backend/store"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// PlaceholderID identifies the course served when the backend is unreachable.
const PlaceholderID = "sample1"

const defaultLanguage = "English"

// Notifier receives admin-facing events.
type Notifier interface {
	Append(ctx context.Context, typ models.NotificationType, title, message string) (models.Notification, error)
}

// Store owns the course documents and keeps the last loaded collection in
// memory. Other services change a course only through UpdateFields.
type Store struct {
	store  store.DocumentStore
	notify Notifier
	log    *zap.Logger
	Now    func() time.Time

	mu     sync.RWMutex
	loaded bool
	order  []string
	cache  map[string]models.Course
}

func NewStore(st store.DocumentStore, notifier Notifier, log *zap.Logger) *Store {
	return &Store{
		store:  st,
		notify: notifier,
		log:    log.With(zap.String("service", "catalog")),
		Now:    func() time.Time { return time.Now().UTC() },
		cache:  map[string]models.Course{},
	}
}

// Load fetches every course in store order. When the backend fails it
// returns a single placeholder course flagged Degraded instead of an error.
func (s *Store) Load(ctx context.Context) []models.Course {
	snaps, err := s.store.List(ctx, store.CollectionCourses, store.Query{})
	if err != nil {
		s.log.Warn("backend unavailable, serving placeholder course", zap.Error(err))
		s.replace([]models.Course{Placeholder()})
		return []models.Course{Placeholder()}
	}

	courses := make([]models.Course, 0, len(snaps))
	for _, snap := range snaps {
		c, err := decodeCourse(snap)
		if err != nil {
			s.log.Error("skipping undecodable course", zap.String("id", snap.ID), zap.Error(err))
			continue
		}
		courses = append(courses, c)
	}
	s.replace(courses)
	return courses
}

// Get looks a course up in the backend and refreshes its cache entry.
// A missing course is (Course{}, false, nil).
func (s *Store) Get(ctx context.Context, id string) (models.Course, bool, error) {
	snap, err := s.store.Get(ctx, store.CollectionCourses, id)
	if errors.Is(err, store.ErrNotFound) {
		s.evict(id)
		return models.Course{}, false, nil
	}
	if err != nil {
		return models.Course{}, false, apperr.Unavailable(err, "could not load course")
	}
	c, err := decodeCourse(snap)
	if err != nil {
		return models.Course{}, false, err
	}
	s.put(c)
	return c, true, nil
}

// MustGet is Get with absence reported as a NotFound error.
func (s *Store) MustGet(ctx context.Context, id string) (models.Course, error) {
	c, ok, err := s.Get(ctx, id)
	if err != nil {
		return models.Course{}, err
	}
	if !ok {
		return models.Course{}, apperr.New(apperr.KindNotFound, "course %s not found", id)
	}
	return c, nil
}

// ListFeatured returns the first n courses in load order. A cached
// placeholder is not trusted; the backend is asked again.
func (s *Store) ListFeatured(ctx context.Context, n int) []models.Course {
	if n <= 0 {
		return []models.Course{}
	}
	courses, loaded := s.cached()
	if !loaded || isPlaceholder(courses) {
		courses = s.Load(ctx)
	}
	if len(courses) > n {
		courses = courses[:n]
	}
	return courses
}

// Cached returns the courses from the last Load, in load order.
func (s *Store) Cached() []models.Course {
	courses, _ := s.cached()
	return courses
}

func (s *Store) cached() ([]models.Course, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Course, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.cache[id])
	}
	return out, s.loaded
}

func (s *Store) Count(ctx context.Context) (int, error) {
	snaps, err := s.store.List(ctx, store.CollectionCourses, store.Query{})
	if err != nil {
		return 0, apperr.Unavailable(err, "could not count courses")
	}
	return len(snaps), nil
}

// Create stores a new course and announces it on the notification log.
func (s *Store) Create(ctx context.Context, c models.Course) (models.Course, error) {
	c.Title = strings.TrimSpace(c.Title)
	if c.Title == "" {
		return models.Course{}, apperr.New(apperr.KindInvalidInput, "course title is required")
	}
	if c.Level == "" {
		c.Level = models.LevelBeginner
	}
	if !c.Level.Valid() {
		return models.Course{}, apperr.New(apperr.KindInvalidInput, "unknown course level %q", c.Level)
	}
	c.ID = ""
	c.Degraded = false
	c.Reviews = []models.Review{}
	c.Stats = models.CourseStats{}
	c.CreatedAt = s.Now()
	applyDefaults(&c)

	id, err := s.store.Create(ctx, store.CollectionCourses, c)
	if err != nil {
		return models.Course{}, apperr.Unavailable(err, "could not create course")
	}
	c.ID = id
	s.append(c)
	s.log.Info("course created", zap.String("id", id), zap.String("title", c.Title))

	msg := fmt.Sprintf("Course %q has been added to the platform", c.Title)
	if _, err := s.notify.Append(ctx, models.NotificationSuccess, "New Course Created", msg); err != nil {
		s.log.Warn("could not announce new course", zap.String("id", id), zap.Error(err))
	}
	return c, nil
}

// Update applies an admin edit of the descriptive fields.
func (s *Store) Update(ctx context.Context, id string, upd models.CourseUpdate) (models.Course, error) {
	if upd.Level != nil && !upd.Level.Valid() {
		return models.Course{}, apperr.New(apperr.KindInvalidInput, "unknown course level %q", *upd.Level)
	}
	if upd.Title != nil && strings.TrimSpace(*upd.Title) == "" {
		return models.Course{}, apperr.New(apperr.KindInvalidInput, "course title is required")
	}
	fields := upd.Fields()
	if len(fields) == 0 {
		return s.MustGet(ctx, id)
	}
	if err := s.UpdateFields(ctx, id, fields); err != nil {
		return models.Course{}, err
	}
	return s.MustGet(ctx, id)
}

func (s *Store) Delete(ctx context.Context, id string) error {
	err := s.store.Delete(ctx, store.CollectionCourses, id)
	if errors.Is(err, store.ErrNotFound) {
		return apperr.New(apperr.KindNotFound, "course %s not found", id)
	}
	if err != nil {
		return apperr.Unavailable(err, "could not delete course")
	}
	s.evict(id)
	s.log.Info("course deleted", zap.String("id", id))
	return nil
}

// UpdateFields writes a partial update through to the backend and refreshes
// the cached course.
func (s *Store) UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error {
	err := s.store.Update(ctx, store.CollectionCourses, id, fields)
	if errors.Is(err, store.ErrNotFound) {
		return apperr.New(apperr.KindNotFound, "course %s not found", id)
	}
	if err != nil {
		return apperr.Unavailable(err, "could not update course")
	}
	if _, _, err := s.Get(ctx, id); err != nil {
		s.log.Warn("could not refresh cached course", zap.String("id", id), zap.Error(err))
	}
	return nil
}

// Placeholder is the degraded-mode sentinel course.
func Placeholder() models.Course {
	c := models.Course{
		ID:          PlaceholderID,
		Title:       "Sample Course",
		Description: "This is a sample course (backend connection failed)",
		Author:      models.Author{Name: "System"},
		Duration:    "1 hour",
		Category:    "Sample",
		Level:       models.LevelBeginner,
		Degraded:    true,
	}
	applyDefaults(&c)
	return c
}

func isPlaceholder(courses []models.Course) bool {
	return len(courses) == 1 && courses[0].Degraded
}

func decodeCourse(snap store.Snapshot) (models.Course, error) {
	var c models.Course
	if err := snap.Decode(&c); err != nil {
		return models.Course{}, errors.Wrapf(err, "decode course %s", snap.ID)
	}
	c.Degraded = false
	applyDefaults(&c)
	return c, nil
}

// applyDefaults fills every optional field so consumers never nil-check.
func applyDefaults(c *models.Course) {
	if !c.Level.Valid() {
		c.Level = models.LevelBeginner
	}
	if c.Language == "" {
		c.Language = defaultLanguage
	}
	if c.LearningObjectives == nil {
		c.LearningObjectives = []string{}
	}
	if c.Requirements == nil {
		c.Requirements = []string{}
	}
	if c.Content.Sections == nil {
		c.Content.Sections = []models.Section{}
	}
	for i := range c.Content.Sections {
		if c.Content.Sections[i].Lessons == nil {
			c.Content.Sections[i].Lessons = []models.Lesson{}
		}
	}
	if c.Reviews == nil {
		c.Reviews = []models.Review{}
	}
	for i := range c.Reviews {
		if c.Reviews[i].HelpfulUsers == nil {
			c.Reviews[i].HelpfulUsers = []string{}
		}
	}
	if c.Stats.RatingCounts == nil {
		c.Stats.RatingCounts = map[string]int{}
	}
}

func (s *Store) replace(courses []models.Course) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loaded = true
	s.order = make([]string, 0, len(courses))
	s.cache = make(map[string]models.Course, len(courses))
	for _, c := range courses {
		s.order = append(s.order, c.ID)
		s.cache[c.ID] = c
	}
}

func (s *Store) put(c models.Course) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cache[c.ID]; ok {
		s.cache[c.ID] = c
	}
}

func (s *Store) append(c models.Course) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		return
	}
	if _, ok := s.cache[c.ID]; !ok {
		s.order = append(s.order, c.ID)
	}
	s.cache[c.ID] = c
}

func (s *Store) evict(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cache[id]; !ok {
		return
	}
	delete(s.cache, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}
