package settings

import (
	"context"
	"testing"

	"github.com/philosofium/coursemarket/backend/apperr"
	"github.com/philosofium/coursemarket/backend/models"
	"github.com/philosofium/coursemarket/backend/notify"
	"github.com/philosofium/coursemarket/backend/store"
	"github.com/philosofium/coursemarket/backend/store/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestGetDefaultsWhenAbsent(t *testing.T) {
	svc := NewService(store.NewMemoryStore(), notify.NewLog(store.NewMemoryStore(), zap.NewNop()), zap.NewNop())
	got, err := svc.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.DefaultSettings(), got)
}

func TestInitializeKeepsExistingSettings(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	svc := NewService(st, notify.NewLog(st, zap.NewNop()), zap.NewNop())

	require.NoError(t, svc.Initialize(ctx))
	custom := models.Settings{DefaultLanguage: "Spanish"}
	require.NoError(t, st.Set(ctx, store.CollectionSettings, DocID, custom, false))
	require.NoError(t, svc.Initialize(ctx))

	got, err := svc.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, custom, got)
}

func TestUpdateAnnouncesChange(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	notes := notify.NewLog(st, zap.NewNop())
	svc := NewService(st, notes, zap.NewNop())

	updated, err := svc.Update(ctx, models.Settings{
		AllowRegistration:        false,
		RequireEmailVerification: true,
		DefaultLanguage:          " French ",
		SystemNotifications:      true,
	})
	require.NoError(t, err)
	assert.False(t, updated.AllowRegistration)
	assert.True(t, updated.RequireEmailVerification)
	assert.Equal(t, "French", updated.DefaultLanguage)

	recent, err := notes.ListRecent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "Settings Updated", recent[0].Title)
	assert.Equal(t, models.NotificationInfo, recent[0].Type)

	_, err = svc.Update(ctx, models.Settings{})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestBackendFailure(t *testing.T) {
	ctx := context.Background()
	st := storetest.NewFailingStore(store.NewMemoryStore())
	svc := NewService(st, notify.NewLog(st, zap.NewNop()), zap.NewNop())

	st.FailReads = true
	_, err := svc.Get(ctx)
	assert.ErrorIs(t, err, apperr.ErrBackendUnavailable)
	assert.ErrorIs(t, svc.Initialize(ctx), apperr.ErrBackendUnavailable)

	st.FailReads = false
	st.FailWrites = true
	_, err = svc.Update(ctx, models.DefaultSettings())
	assert.ErrorIs(t, err, apperr.ErrBackendUnavailable)
}
