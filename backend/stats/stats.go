package stats

import (
	"context"
	"strconv"
	"time"

	"github.com/philosofium/coursemarket/backend/apperr"
	"github.com/philosofium/coursemarket/backend/models"
	"github.com/philosofium/coursemarket/backend/store"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// GlobalDocID is the id of the platform-wide counters document.
const GlobalDocID = "global"

// ActiveWindow is how recently a user must have been seen to count as active.
const ActiveWindow = 30 * 24 * time.Hour

// Courses is the course accessor the aggregator writes per-course counters through.
type Courses interface {
	Get(ctx context.Context, id string) (models.Course, bool, error)
	UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error
	Count(ctx context.Context) (int, error)
}

// Aggregator maintains per-course counters (on the course document) and
// platform totals (in statistics/global). Rating counts are the source of
// truth; averages are always derived from them.
type Aggregator struct {
	store   store.DocumentStore
	courses Courses
	log     *zap.Logger
	Now     func() time.Time
}

func NewAggregator(st store.DocumentStore, courses Courses, log *zap.Logger) *Aggregator {
	return &Aggregator{
		store:   st,
		courses: courses,
		log:     log.With(zap.String("service", "stats")),
		Now:     func() time.Time { return time.Now().UTC() },
	}
}

type globalCounters struct {
	TotalEnrollments int `json:"totalEnrollments"`
	TotalCompletions int `json:"totalCompletions"`
	TotalRatings     int `json:"totalRatings"`
}

// Initialize creates the global counters document when it does not exist.
func (a *Aggregator) Initialize(ctx context.Context) error {
	_, err := a.store.Get(ctx, store.CollectionStatistics, GlobalDocID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return apperr.Unavailable(err, "could not read statistics")
	}
	if err := a.store.Set(ctx, store.CollectionStatistics, GlobalDocID, globalCounters{}, false); err != nil {
		return apperr.Unavailable(err, "could not initialize statistics")
	}
	a.log.Info("global statistics initialized")
	return nil
}

func (a *Aggregator) RecordRating(ctx context.Context, courseID string, rating int) error {
	if rating < 1 || rating > 5 {
		return apperr.ErrInvalidRating
	}
	err := a.courses.UpdateFields(ctx, courseID, map[string]interface{}{
		"stats.ratingCounts." + strconv.Itoa(rating): store.Inc(1),
	})
	if err != nil {
		return err
	}
	return a.bumpGlobal(ctx, "totalRatings")
}

func (a *Aggregator) RecordEnrollment(ctx context.Context, courseID string) error {
	if err := a.courses.UpdateFields(ctx, courseID, map[string]interface{}{"stats.enrollments": store.Inc(1)}); err != nil {
		return err
	}
	return a.bumpGlobal(ctx, "totalEnrollments")
}

func (a *Aggregator) RecordCompletion(ctx context.Context, courseID string) error {
	if err := a.courses.UpdateFields(ctx, courseID, map[string]interface{}{"stats.completions": store.Inc(1)}); err != nil {
		return err
	}
	return a.bumpGlobal(ctx, "totalCompletions")
}

// Snapshot returns the statistics of a course. Courses without recorded
// activity, or unknown courses, yield zero counters.
func (a *Aggregator) Snapshot(ctx context.Context, courseID string) (models.CourseStatistics, error) {
	c, ok, err := a.courses.Get(ctx, courseID)
	if err != nil {
		return models.CourseStatistics{}, err
	}
	if !ok {
		return models.NewCourseStatistics(models.CourseStats{}), nil
	}
	return models.NewCourseStatistics(c.Stats), nil
}

// Global returns platform totals. Course count and active users are
// computed live; the counters come from the global document.
func (a *Aggregator) Global(ctx context.Context) (models.GlobalStatistics, error) {
	var counters globalCounters
	snap, err := a.store.Get(ctx, store.CollectionStatistics, GlobalDocID)
	switch {
	case errors.Is(err, store.ErrNotFound):
	case err != nil:
		return models.GlobalStatistics{}, apperr.Unavailable(err, "could not read statistics")
	default:
		if err := snap.Decode(&counters); err != nil {
			return models.GlobalStatistics{}, errors.Wrap(err, "decode statistics")
		}
	}

	total, err := a.courses.Count(ctx)
	if err != nil {
		return models.GlobalStatistics{}, err
	}
	active, err := a.activeUsers(ctx)
	if err != nil {
		return models.GlobalStatistics{}, err
	}
	return models.GlobalStatistics{
		TotalCourses:     total,
		TotalEnrollments: counters.TotalEnrollments,
		TotalCompletions: counters.TotalCompletions,
		TotalRatings:     counters.TotalRatings,
		ActiveUsers:      active,
	}, nil
}

// Reset zeroes the global counters. Admin only.
func (a *Aggregator) Reset(ctx context.Context) error {
	if err := a.store.Set(ctx, store.CollectionStatistics, GlobalDocID, globalCounters{}, false); err != nil {
		return apperr.Unavailable(err, "could not reset statistics")
	}
	a.log.Info("global statistics reset")
	return nil
}

func (a *Aggregator) bumpGlobal(ctx context.Context, field string) error {
	err := a.store.Update(ctx, store.CollectionStatistics, GlobalDocID, map[string]interface{}{field: store.Inc(1)})
	if errors.Is(err, store.ErrNotFound) {
		// First event on a fresh backend.
		err = a.store.Set(ctx, store.CollectionStatistics, GlobalDocID, map[string]interface{}{field: 1}, true)
	}
	if err != nil {
		return apperr.Unavailable(err, "could not update statistics")
	}
	return nil
}

func (a *Aggregator) activeUsers(ctx context.Context) (int, error) {
	snaps, err := a.store.List(ctx, store.CollectionUsers, store.Query{})
	if err != nil {
		return 0, apperr.Unavailable(err, "could not list users")
	}
	cutoff := a.Now().Add(-ActiveWindow)
	active := 0
	for _, snap := range snaps {
		var u models.User
		if err := snap.Decode(&u); err != nil {
			a.log.Warn("skipping undecodable user", zap.String("id", snap.ID), zap.Error(err))
			continue
		}
		if u.LastActive.After(cutoff) {
			active++
		}
	}
	return active, nil
}
