package stats

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/philosofium/coursemarket/backend/apperr"
	"github.com/philosofium/coursemarket/backend/catalog"
	"github.com/philosofium/coursemarket/backend/models"
	"github.com/philosofium/coursemarket/backend/notify"
	"github.com/philosofium/coursemarket/backend/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fixture struct {
	store   *store.MemoryStore
	courses *catalog.Store
	agg     *Aggregator
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	st := store.NewMemoryStore()
	courses := catalog.NewStore(st, notify.NewLog(st, zap.NewNop()), zap.NewNop())
	agg := NewAggregator(st, courses, zap.NewNop())
	require.NoError(t, agg.Initialize(context.Background()))
	return fixture{store: st, courses: courses, agg: agg}
}

func (f fixture) course(t *testing.T, title string) models.Course {
	t.Helper()
	c, err := f.courses.Create(context.Background(), models.Course{Title: title})
	require.NoError(t, err)
	return c
}

func TestSnapshotDefaultsWithoutActivity(t *testing.T) {
	f := newFixture(t)
	c := f.course(t, "Go")

	expected := models.CourseStatistics{RatingCounts: [5]int{0, 0, 0, 0, 0}}
	snap, err := f.agg.Snapshot(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, expected, snap)

	snap, err = f.agg.Snapshot(context.Background(), "never-created")
	require.NoError(t, err)
	assert.Equal(t, expected, snap)
}

func TestRecordRatingsScenario(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.course(t, "Go")

	for _, r := range []int{5, 5, 4, 3} {
		require.NoError(t, f.agg.RecordRating(ctx, c.ID, r))
	}

	snap, err := f.agg.Snapshot(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, [5]int{0, 0, 1, 1, 2}, snap.RatingCounts)
	assert.Equal(t, 4.25, snap.AverageRating)
	assert.Equal(t, 4, snap.TotalRatings)
	assert.Equal(t, 4.3, snap.DisplayRating())

	global, err := f.agg.Global(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, global.TotalRatings)
}

func TestRecordRatingRejectsOutOfRange(t *testing.T) {
	f := newFixture(t)
	c := f.course(t, "Go")
	assert.ErrorIs(t, f.agg.RecordRating(context.Background(), c.ID, 0), apperr.ErrInvalidRating)
	assert.ErrorIs(t, f.agg.RecordRating(context.Background(), c.ID, 6), apperr.ErrInvalidRating)
}

func TestAverageMatchesWeightedMeanOfCounts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.course(t, "Go")

	// 291 ratings in an uneven mix.
	ratings := []int{}
	for i := 0; i < 97; i++ {
		ratings = append(ratings, i%5+1, 5, 1)
	}
	sum := 0
	for _, r := range ratings {
		require.NoError(t, f.agg.RecordRating(ctx, c.ID, r))
		sum += r
	}

	snap, err := f.agg.Snapshot(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, len(ratings), snap.TotalRatings)
	assert.InDelta(t, float64(sum)/float64(len(ratings)), snap.AverageRating, 1e-12)
	assert.InDelta(t, models.AverageRating(snap.RatingCounts), snap.AverageRating, 1e-12)
	assert.Equal(t, math.Round(snap.AverageRating*10)/10, snap.DisplayRating())
}

func TestEnrollmentAndCompletionCounters(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.course(t, "Go")
	b := f.course(t, "Rust")

	require.NoError(t, f.agg.RecordEnrollment(ctx, a.ID))
	require.NoError(t, f.agg.RecordEnrollment(ctx, a.ID))
	require.NoError(t, f.agg.RecordEnrollment(ctx, b.ID))
	require.NoError(t, f.agg.RecordCompletion(ctx, a.ID))

	snap, err := f.agg.Snapshot(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, snap.Enrollments)
	assert.Equal(t, 1, snap.Completions)

	global, err := f.agg.Global(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, global.TotalCourses)
	assert.Equal(t, 3, global.TotalEnrollments)
	assert.Equal(t, 1, global.TotalCompletions)

	assert.ErrorIs(t, f.agg.RecordEnrollment(ctx, "missing"), apperr.ErrNotFound)
}

func TestGlobalCountsActiveUsers(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	f.agg.Now = func() time.Time { return now }

	users := map[string]time.Time{
		"recent": now.Add(-24 * time.Hour),
		"stale":  now.Add(-60 * 24 * time.Hour),
	}
	for id, seen := range users {
		require.NoError(t, f.store.Set(ctx, store.CollectionUsers, id, models.User{Email: id + "@x.io", LastActive: seen}, false))
	}
	require.NoError(t, f.store.Set(ctx, store.CollectionUsers, "never", models.User{Email: "never@x.io"}, false))

	global, err := f.agg.Global(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, global.ActiveUsers)
}

func TestResetAndLazyGlobalDocument(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	courses := catalog.NewStore(st, notify.NewLog(st, zap.NewNop()), zap.NewNop())
	agg := NewAggregator(st, courses, zap.NewNop())
	c, err := courses.Create(ctx, models.Course{Title: "Go"})
	require.NoError(t, err)

	// No Initialize: the first event creates the global document.
	require.NoError(t, agg.RecordEnrollment(ctx, c.ID))
	global, err := agg.Global(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, global.TotalEnrollments)

	require.NoError(t, agg.Reset(ctx))
	global, err = agg.Global(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, global.TotalEnrollments)
	assert.Equal(t, 1, global.TotalCourses)
}
