package identity

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/philosofium/coursemarket/backend/apperr"
	"github.com/philosofium/coursemarket/backend/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const secret = "test-secret"

func TestSession(t *testing.T) {
	anon := Anonymous()
	_, ok := anon.CurrentUser()
	assert.False(t, ok)
	assert.False(t, anon.IsAuthenticated())

	var id Identity = SignedIn(Principal{ID: "u1", Email: "ada@example.com"})
	p, ok := id.CurrentUser()
	require.True(t, ok)
	assert.True(t, id.IsAuthenticated())
	assert.Equal(t, "ada@example.com", p.Name())
}

func TestTokenRoundTrip(t *testing.T) {
	in := Principal{ID: "u1", DisplayName: "Ada", Email: "ada@example.com", PhotoURL: "https://img.example/ada.png"}
	token, err := GenerateToken(in, secret, time.Hour)
	require.NoError(t, err)

	out, err := ParseToken(token, secret)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestParseTokenRejects(t *testing.T) {
	p := Principal{ID: "u1"}
	wrongKey, err := GenerateToken(p, "other", time.Hour)
	require.NoError(t, err)
	expired, err := GenerateToken(p, secret, -time.Minute)
	require.NoError(t, err)
	noSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(secret))
	require.NoError(t, err)

	for name, token := range map[string]string{
		"garbage":    "not-a-token",
		"wrong key":  wrongKey,
		"expired":    expired,
		"no subject": noSubject,
	} {
		_, err := ParseToken(token, secret)
		assert.ErrorIs(t, err, apperr.ErrUnauthorized, name)
	}
}

func TestDirectory(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	dir := NewDirectory(st, zap.NewNop())
	now := time.Date(2024, 5, 1, 8, 30, 0, 0, time.UTC)
	dir.Now = func() time.Time { return now }

	_, ok, err := dir.Get(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, ok)

	u, err := dir.Ensure(ctx, Principal{ID: "u1", DisplayName: "Ada", Email: "ada@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "Ada", u.DisplayName)
	assert.False(t, u.IsAdmin)
	assert.Empty(t, u.Enrolled)

	admin, err := dir.IsAdmin(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, admin)

	require.NoError(t, dir.SetAdmin(ctx, "u1", true))
	admin, err = dir.IsAdmin(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, admin)

	// Ensure refreshes email without touching the role or the stored name.
	u, err = dir.Ensure(ctx, Principal{ID: "u1", DisplayName: "Ada L.", Email: "ada@lovelace.dev"})
	require.NoError(t, err)
	assert.Equal(t, "Ada", u.DisplayName)
	assert.Equal(t, "ada@lovelace.dev", u.Email)
	assert.True(t, u.IsAdmin)

	assert.ErrorIs(t, dir.SetAdmin(ctx, "ghost", true), apperr.ErrNotFound)
	admin, err = dir.IsAdmin(ctx, "ghost")
	require.NoError(t, err)
	assert.False(t, admin)

	require.NoError(t, dir.Touch(ctx, "u1"))
	u, _, err = dir.Get(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, now.Equal(u.LastActive))
}

func TestUpdateProfile(t *testing.T) {
	ctx := context.Background()
	dir := NewDirectory(store.NewMemoryStore(), zap.NewNop())
	p := Principal{ID: "u1", DisplayName: "Ada", Email: "ada@example.com"}
	_, err := dir.Ensure(ctx, p)
	require.NoError(t, err)

	name, notify := "  Countess Lovelace ", true
	u, err := dir.UpdateProfile(ctx, "u1", ProfileUpdate{DisplayName: &name, EmailNotifications: &notify})
	require.NoError(t, err)
	assert.Equal(t, "Countess Lovelace", u.DisplayName)
	assert.True(t, u.Settings.EmailNotifications)

	// The token still carries the old name; the edit must survive.
	u, err = dir.Ensure(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, "Countess Lovelace", u.DisplayName)
	assert.True(t, u.Settings.EmailNotifications)

	notify = false
	u, err = dir.UpdateProfile(ctx, "u1", ProfileUpdate{EmailNotifications: &notify})
	require.NoError(t, err)
	assert.False(t, u.Settings.EmailNotifications)
	assert.Equal(t, "Countess Lovelace", u.DisplayName)

	blank := "   "
	_, err = dir.UpdateProfile(ctx, "u1", ProfileUpdate{DisplayName: &blank})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
	_, err = dir.UpdateProfile(ctx, "ghost", ProfileUpdate{EmailNotifications: &notify})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestEnsureSeedsMissingDisplayName(t *testing.T) {
	ctx := context.Background()
	dir := NewDirectory(store.NewMemoryStore(), zap.NewNop())
	_, err := dir.Ensure(ctx, Principal{ID: "u1"})
	require.NoError(t, err)

	u, err := dir.Ensure(ctx, Principal{ID: "u1", DisplayName: "Ada", Email: "ada@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "Ada", u.DisplayName)
	assert.Equal(t, "ada@example.com", u.Email)
}

func TestDirectoryListMostRecentFirst(t *testing.T) {
	ctx := context.Background()
	dir := NewDirectory(store.NewMemoryStore(), zap.NewNop())
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"old", "new", "mid"} {
		_, err := dir.Ensure(ctx, Principal{ID: id, Email: id + "@example.com"})
		require.NoError(t, err)
		offset := map[string]time.Duration{"old": 0, "mid": time.Hour, "new": 2 * time.Hour}[id]
		dir.Now = func() time.Time { return base.Add(offset) }
		require.NoError(t, dir.Touch(ctx, id), "user %d", i)
	}

	users, err := dir.List(ctx)
	require.NoError(t, err)
	ids := []string{}
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	assert.Equal(t, []string{"new", "mid", "old"}, ids)
}
