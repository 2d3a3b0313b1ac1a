package reviews

import (
	"context"
	"strings"
	"testing"

	"github.com/philosofium/coursemarket/backend/apperr"
	"github.com/philosofium/coursemarket/backend/catalog"
	"github.com/philosofium/coursemarket/backend/enrollment"
	"github.com/philosofium/coursemarket/backend/identity"
	"github.com/philosofium/coursemarket/backend/models"
	"github.com/philosofium/coursemarket/backend/notify"
	"github.com/philosofium/coursemarket/backend/stats"
	"github.com/philosofium/coursemarket/backend/store"
	"github.com/philosofium/coursemarket/backend/store/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const goodText = "Clear explanations and useful exercises."

var (
	alice      = identity.Principal{ID: "alice", DisplayName: "Alice"}
	bob        = identity.Principal{ID: "bob", DisplayName: "Bob"}
	instructor = identity.Principal{ID: "teach", DisplayName: "Prof. Tree"}
)

type fixture struct {
	store   *storetest.FailingStore
	courses *catalog.Store
	enroll  *enrollment.Service
	agg     *stats.Aggregator
	engine  *Engine
	course  models.Course
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	st := storetest.NewFailingStore(store.NewMemoryStore())
	courses := catalog.NewStore(st, notify.NewLog(st, zap.NewNop()), zap.NewNop())
	agg := stats.NewAggregator(st, courses, zap.NewNop())
	require.NoError(t, agg.Initialize(ctx))
	enroll := enrollment.NewService(st, courses, agg, zap.NewNop())

	c, err := courses.Create(ctx, models.Course{Title: "Go", InstructorID: instructor.ID})
	require.NoError(t, err)

	f := fixture{
		store:   st,
		courses: courses,
		enroll:  enroll,
		agg:     agg,
		engine:  NewEngine(courses, enroll, agg, st, zap.NewNop()),
		course:  c,
	}
	for _, p := range []identity.Principal{alice, bob} {
		_, err := enroll.Enroll(ctx, p.ID, c.ID)
		require.NoError(t, err)
	}
	return f
}

func (f fixture) submit(t *testing.T, who identity.Principal, rating int) models.Review {
	t.Helper()
	r, err := f.engine.Submit(context.Background(), f.course.ID, who, rating, goodText)
	require.NoError(t, err)
	return r
}

func TestSubmitRecordsRating(t *testing.T) {
	ctx := context.Background()
	for rating := 1; rating <= 5; rating++ {
		f := newFixture(t)
		before, err := f.agg.Snapshot(ctx, f.course.ID)
		require.NoError(t, err)

		r := f.submit(t, alice, rating)
		assert.NotEmpty(t, r.ID)
		assert.Equal(t, "Alice", r.UserName)
		assert.Equal(t, goodText, r.Content)

		after, err := f.agg.Snapshot(ctx, f.course.ID)
		require.NoError(t, err)
		for i := range after.RatingCounts {
			want := before.RatingCounts[i]
			if i == rating-1 {
				want++
			}
			assert.Equal(t, want, after.RatingCounts[i], "rating %d bucket %d", rating, i+1)
		}
	}
}

func TestSubmitNamelessAuthorIsAnonymous(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	carol := identity.Principal{ID: "carol"}
	_, err := f.enroll.Enroll(ctx, carol.ID, f.course.ID)
	require.NoError(t, err)

	r := f.submit(t, carol, 4)
	assert.Equal(t, AnonymousName, r.UserName)

	stored, ok, err := f.engine.UserReview(ctx, f.course.ID, carol.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Anonymous", stored.UserName)
}

func TestSubmitRatingsScenario(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	users := []identity.Principal{alice, bob, {ID: "carol"}, {ID: "dave"}}
	for i, rating := range []int{5, 5, 4, 3} {
		if i >= 2 {
			_, err := f.enroll.Enroll(ctx, users[i].ID, f.course.ID)
			require.NoError(t, err)
		}
		f.submit(t, users[i], rating)
	}

	snap, err := f.agg.Snapshot(ctx, f.course.ID)
	require.NoError(t, err)
	assert.Equal(t, [5]int{0, 0, 1, 1, 2}, snap.RatingCounts)
	assert.Equal(t, 4.25, snap.AverageRating)

	list, err := f.engine.List(ctx, f.course.ID)
	require.NoError(t, err)
	assert.Len(t, list, 4)
}

func TestSubmitValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.engine.Submit(ctx, f.course.ID, identity.Principal{ID: "stranger"}, 5, goodText)
	assert.ErrorIs(t, err, apperr.ErrNotEnrolled)

	for _, rating := range []int{0, 6, -1} {
		_, err = f.engine.Submit(ctx, f.course.ID, alice, rating, goodText)
		assert.ErrorIs(t, err, apperr.ErrInvalidRating, "rating %d", rating)
	}

	_, err = f.engine.Submit(ctx, f.course.ID, alice, 4, "too short")
	assert.ErrorIs(t, err, apperr.ErrTextTooShort)
	// Padding does not count towards the minimum.
	_, err = f.engine.Submit(ctx, f.course.ID, alice, 4, "   short   "+strings.Repeat(" ", 30))
	assert.ErrorIs(t, err, apperr.ErrTextTooShort)

	_, err = f.engine.Submit(ctx, "missing", alice, 4, goodText)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	list, err := f.engine.List(ctx, f.course.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
	snap, err := f.agg.Snapshot(ctx, f.course.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, snap.TotalRatings)
}

func TestSecondReviewIsAlwaysDuplicate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.submit(t, alice, 4)

	attempts := []struct {
		rating int
		text   string
	}{
		{5, goodText},
		{0, goodText},
		{3, "short"},
		{9, ""},
	}
	for _, a := range attempts {
		_, err := f.engine.Submit(ctx, f.course.ID, alice, a.rating, a.text)
		assert.ErrorIs(t, err, apperr.ErrDuplicateReview, "rating %d text %q", a.rating, a.text)
	}

	r, ok, err := f.engine.UserReview(ctx, f.course.ID, alice.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 4, r.Rating)

	_, ok, err = f.engine.UserReview(ctx, f.course.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMarkHelpfulIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	r := f.submit(t, alice, 5)

	once, err := f.engine.MarkHelpful(ctx, f.course.ID, r.ID, bob.ID)
	require.NoError(t, err)
	twice, err := f.engine.MarkHelpful(ctx, f.course.ID, r.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, once)
	assert.Equal(t, once, twice)

	count, err := f.engine.MarkHelpful(ctx, f.course.ID, r.ID, "carol")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	stored, _, err := f.engine.UserReview(ctx, f.course.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{bob.ID, "carol"}, stored.HelpfulUsers)

	_, err = f.engine.MarkHelpful(ctx, f.course.ID, "nope", bob.ID)
	assert.ErrorIs(t, err, apperr.ErrReviewNotFound)
}

func TestReply(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	r := f.submit(t, alice, 3)

	_, err := f.engine.Reply(ctx, f.course.ID, r.ID, bob, false, "Thanks for the feedback!")
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	stored, _, err := f.engine.UserReview(ctx, f.course.ID, alice.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.Reply)

	replied, err := f.engine.Reply(ctx, f.course.ID, r.ID, instructor, false, "Thanks for the feedback!")
	require.NoError(t, err)
	require.NotNil(t, replied.Reply)
	assert.Equal(t, models.ReplyInstructor, replied.Reply.AuthorRole)
	assert.Equal(t, "Prof. Tree", replied.Reply.AuthorName)

	replied, err = f.engine.Reply(ctx, f.course.ID, r.ID, identity.Principal{ID: "root"}, true, "We updated chapter three.")
	require.NoError(t, err)
	assert.Equal(t, models.ReplyAdmin, replied.Reply.AuthorRole)
	assert.Equal(t, "Admin", replied.Reply.AuthorName)

	stored, _, err = f.engine.UserReview(ctx, f.course.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "We updated chapter three.", stored.Reply.Text)

	_, err = f.engine.Reply(ctx, f.course.ID, r.ID, instructor, false, "ok")
	assert.ErrorIs(t, err, apperr.ErrTextTooShort)
	_, err = f.engine.Reply(ctx, f.course.ID, "nope", instructor, false, "Thanks for the feedback!")
	assert.ErrorIs(t, err, apperr.ErrReviewNotFound)
}

func TestReport(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	r := f.submit(t, alice, 1)

	report, err := f.engine.Report(ctx, f.course.ID, r.ID, bob.ID, " spam ")
	require.NoError(t, err)
	assert.NotEmpty(t, report.ID)
	assert.Equal(t, models.ReportPending, report.Status)
	assert.Equal(t, "spam", report.Reason)

	snaps, err := f.store.List(ctx, store.CollectionReportedReviews, store.Query{})
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.Equal(t, "pending", snaps[0].Data["status"])

	_, err = f.engine.Report(ctx, f.course.ID, "nope", bob.ID, "spam")
	assert.ErrorIs(t, err, apperr.ErrReviewNotFound)
}

func TestSubmitSurfacesWriteFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.store.FailWrites = true

	_, err := f.engine.Submit(ctx, f.course.ID, alice, 5, goodText)
	assert.ErrorIs(t, err, apperr.ErrBackendUnavailable)

	f.store.FailWrites = false
	list, err := f.engine.List(ctx, f.course.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}
