package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newGormTestStore(t *testing.T) DocumentStore {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// Every connection to ":memory:" is its own database.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	s := NewGormStore(db, zap.NewNop())
	require.NoError(t, s.Migrate())
	return s
}

func TestDocumentStores(t *testing.T) {
	backends := map[string]func(t *testing.T) DocumentStore{
		"memory": func(*testing.T) DocumentStore { return NewMemoryStore() },
		"gorm":   newGormTestStore,
	}
	for name, newStore := range backends {
		t.Run(name, func(t *testing.T) {
			t.Run("CreateGet", func(t *testing.T) { testCreateGet(t, newStore(t)) })
			t.Run("UpdatePaths", func(t *testing.T) { testUpdatePaths(t, newStore(t)) })
			t.Run("ArrayUnion", func(t *testing.T) { testArrayUnion(t, newStore(t)) })
			t.Run("SetMerge", func(t *testing.T) { testSetMerge(t, newStore(t)) })
			t.Run("ListQuery", func(t *testing.T) { testListQuery(t, newStore(t)) })
			t.Run("OrderTies", func(t *testing.T) { testOrderTies(t, newStore(t)) })
			t.Run("Delete", func(t *testing.T) { testDelete(t, newStore(t)) })
		})
	}
}

func testCreateGet(t *testing.T, s DocumentStore) {
	ctx := context.Background()
	id, err := s.Create(ctx, CollectionCourses, map[string]interface{}{"title": "Go Basics", "price": 10})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	snap, err := s.Get(ctx, CollectionCourses, id)
	require.NoError(t, err)
	assert.Equal(t, id, snap.ID)
	assert.Equal(t, "Go Basics", snap.Data["title"])
	assert.Equal(t, float64(10), snap.Data["price"])

	var decoded struct {
		ID    string  `json:"id"`
		Title string  `json:"title"`
		Price float64 `json:"price"`
	}
	require.NoError(t, snap.Decode(&decoded))
	assert.Equal(t, id, decoded.ID)
	assert.Equal(t, "Go Basics", decoded.Title)

	_, err = s.Get(ctx, CollectionCourses, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.Update(ctx, CollectionCourses, "missing", map[string]interface{}{"a": 1}), ErrNotFound)
}

func testUpdatePaths(t *testing.T, s DocumentStore) {
	ctx := context.Background()
	id, err := s.Create(ctx, CollectionCourses, map[string]interface{}{"title": "Go"})
	require.NoError(t, err)

	require.NoError(t, s.Update(ctx, CollectionCourses, id, map[string]interface{}{
		"stats.ratingCounts.5": Inc(1),
		"stats.enrollments":    Inc(2),
		"title":                "Go, revised",
	}))
	require.NoError(t, s.Update(ctx, CollectionCourses, id, map[string]interface{}{
		"stats.ratingCounts.5": Inc(1),
	}))

	snap, err := s.Get(ctx, CollectionCourses, id)
	require.NoError(t, err)
	assert.Equal(t, "Go, revised", snap.Data["title"])
	stats := snap.Data["stats"].(map[string]interface{})
	assert.Equal(t, float64(2), stats["enrollments"])
	assert.Equal(t, float64(2), stats["ratingCounts"].(map[string]interface{})["5"])

	err = s.Update(ctx, CollectionCourses, id, map[string]interface{}{"title": Inc(1)})
	assert.Error(t, err)
	snap, err = s.Get(ctx, CollectionCourses, id)
	require.NoError(t, err)
	assert.Equal(t, "Go, revised", snap.Data["title"])
}

func testArrayUnion(t *testing.T, s DocumentStore) {
	ctx := context.Background()
	require.NoError(t, s.Set(ctx, CollectionUsers, "u1", map[string]interface{}{"email": "a@b.c"}, false))

	require.NoError(t, s.Update(ctx, CollectionUsers, "u1", map[string]interface{}{"enrolled": Union("c1")}))
	require.NoError(t, s.Update(ctx, CollectionUsers, "u1", map[string]interface{}{"enrolled": Union("c1", "c2")}))

	snap, err := s.Get(ctx, CollectionUsers, "u1")
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"c1", "c2"}, snap.Data["enrolled"])
}

func testSetMerge(t *testing.T, s DocumentStore) {
	ctx := context.Background()
	require.NoError(t, s.Set(ctx, CollectionSettings, "global", map[string]interface{}{
		"allowRegistration": true,
		"nested":            map[string]interface{}{"a": 1, "b": 2},
	}, false))
	require.NoError(t, s.Set(ctx, CollectionSettings, "global", map[string]interface{}{
		"defaultLanguage": "French",
		"nested":          map[string]interface{}{"b": 3},
	}, true))

	snap, err := s.Get(ctx, CollectionSettings, "global")
	require.NoError(t, err)
	assert.Equal(t, true, snap.Data["allowRegistration"])
	assert.Equal(t, "French", snap.Data["defaultLanguage"])
	assert.Equal(t, map[string]interface{}{"a": float64(1), "b": float64(3)}, snap.Data["nested"])

	require.NoError(t, s.Set(ctx, CollectionSettings, "global", map[string]interface{}{"only": "this"}, false))
	snap, err = s.Get(ctx, CollectionSettings, "global")
	require.NoError(t, err)
	assert.Equal(t, Document{"only": "this"}, snap.Data)
}

func testListQuery(t *testing.T, s DocumentStore) {
	ctx := context.Background()
	for i, ts := range []string{"2024-01-01T00:00:01Z", "2024-01-01T00:00:03Z", "2024-01-01T00:00:02Z"} {
		_, err := s.Create(ctx, CollectionNotifications, map[string]interface{}{
			"title":     ts,
			"timestamp": ts,
			"read":      i == 0,
		})
		require.NoError(t, err)
	}

	all, err := s.List(ctx, CollectionNotifications, Query{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "2024-01-01T00:00:01Z", all[0].Data["title"])
	assert.Equal(t, "2024-01-01T00:00:02Z", all[2].Data["title"])

	recent, err := s.List(ctx, CollectionNotifications, Query{OrderBy: "timestamp", Descending: true, Limit: 2})
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "2024-01-01T00:00:03Z", recent[0].Data["title"])
	assert.Equal(t, "2024-01-01T00:00:02Z", recent[1].Data["title"])

	unread, err := s.List(ctx, CollectionNotifications, Query{Filters: []Filter{{Field: "read", Value: false}}})
	require.NoError(t, err)
	assert.Len(t, unread, 2)

	empty, err := s.List(ctx, "nothing-here", Query{})
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func testOrderTies(t *testing.T, s DocumentStore) {
	ctx := context.Background()
	for _, title := range []string{"a", "b", "c"} {
		_, err := s.Create(ctx, CollectionNotifications, map[string]interface{}{"title": title, "timestamp": "2024-01-01T00:00:00Z"})
		require.NoError(t, err)
	}
	titles := func(q Query) []interface{} {
		snaps, err := s.List(ctx, CollectionNotifications, q)
		require.NoError(t, err)
		out := make([]interface{}, 0, len(snaps))
		for _, snap := range snaps {
			out = append(out, snap.Data["title"])
		}
		return out
	}

	assert.Equal(t, []interface{}{"a", "b", "c"}, titles(Query{OrderBy: "timestamp"}))
	assert.Equal(t, []interface{}{"c", "b", "a"}, titles(Query{OrderBy: "timestamp", Descending: true}))
	assert.Equal(t, []interface{}{"c"}, titles(Query{OrderBy: "timestamp", Descending: true, Limit: 1}))
}

func testDelete(t *testing.T, s DocumentStore) {
	ctx := context.Background()
	a, err := s.Create(ctx, CollectionCourses, map[string]interface{}{"title": "a"})
	require.NoError(t, err)
	b, err := s.Create(ctx, CollectionCourses, map[string]interface{}{"title": "b"})
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, CollectionCourses, a))
	assert.ErrorIs(t, s.Delete(ctx, CollectionCourses, a), ErrNotFound)

	all, err := s.List(ctx, CollectionCourses, Query{})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, b, all[0].ID)
}
