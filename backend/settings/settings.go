package settings

import (
	"context"
	"strings"

	"github.com/philosofium/coursemarket/backend/apperr"
	"github.com/philosofium/coursemarket/backend/models"
	"github.com/philosofium/coursemarket/backend/store"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// DocID is the id of the single platform settings document.
const DocID = "global"

type Notifier interface {
	Append(ctx context.Context, typ models.NotificationType, title, message string) (models.Notification, error)
}

type Service struct {
	store  store.DocumentStore
	notify Notifier
	log    *zap.Logger
}

func NewService(st store.DocumentStore, notifier Notifier, log *zap.Logger) *Service {
	return &Service{
		store:  st,
		notify: notifier,
		log:    log.With(zap.String("service", "settings")),
	}
}

// Initialize writes the defaults when no settings document exists yet.
func (s *Service) Initialize(ctx context.Context) error {
	_, err := s.store.Get(ctx, store.CollectionSettings, DocID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return apperr.Unavailable(err, "could not read settings")
	}
	if err := s.store.Set(ctx, store.CollectionSettings, DocID, models.DefaultSettings(), false); err != nil {
		return apperr.Unavailable(err, "could not initialize settings")
	}
	s.log.Info("default settings written")
	return nil
}

// Get returns the stored settings over the defaults.
func (s *Service) Get(ctx context.Context) (models.Settings, error) {
	out := models.DefaultSettings()
	snap, err := s.store.Get(ctx, store.CollectionSettings, DocID)
	if errors.Is(err, store.ErrNotFound) {
		return out, nil
	}
	if err != nil {
		return models.Settings{}, apperr.Unavailable(err, "could not read settings")
	}
	if err := snap.Decode(&out); err != nil {
		return models.Settings{}, errors.Wrap(err, "decode settings")
	}
	if out.DefaultLanguage == "" {
		out.DefaultLanguage = models.DefaultSettings().DefaultLanguage
	}
	return out, nil
}

// Update merges the settings into the stored document and announces the change.
func (s *Service) Update(ctx context.Context, in models.Settings) (models.Settings, error) {
	in.DefaultLanguage = strings.TrimSpace(in.DefaultLanguage)
	if in.DefaultLanguage == "" {
		return models.Settings{}, apperr.New(apperr.KindInvalidInput, "default language is required")
	}
	if err := s.store.Set(ctx, store.CollectionSettings, DocID, in, true); err != nil {
		return models.Settings{}, apperr.Unavailable(err, "could not save settings")
	}
	s.log.Info("settings updated",
		zap.Bool("allowRegistration", in.AllowRegistration),
		zap.String("defaultLanguage", in.DefaultLanguage))

	if _, err := s.notify.Append(ctx, models.NotificationInfo, "Settings Updated", "System settings have been modified"); err != nil {
		s.log.Warn("could not announce settings change", zap.Error(err))
	}
	return s.Get(ctx)
}
