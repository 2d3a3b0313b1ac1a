package identity

import (
	"context"
	"strings"
	"time"

	"github.com/philosofium/coursemarket/backend/apperr"
	"github.com/philosofium/coursemarket/backend/models"
	"github.com/philosofium/coursemarket/backend/store"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Directory keeps the users collection: one profile document per identity
// account, holding the admin flag, enrollments and last activity.
type Directory struct {
	store store.DocumentStore
	log   *zap.Logger
	Now   func() time.Time
}

func NewDirectory(st store.DocumentStore, log *zap.Logger) *Directory {
	return &Directory{
		store: st,
		log:   log.With(zap.String("service", "identity")),
		Now:   func() time.Time { return time.Now().UTC() },
	}
}

func (d *Directory) Get(ctx context.Context, id string) (models.User, bool, error) {
	snap, err := d.store.Get(ctx, store.CollectionUsers, id)
	if errors.Is(err, store.ErrNotFound) {
		return models.User{}, false, nil
	}
	if err != nil {
		return models.User{}, false, apperr.Unavailable(err, "could not load user")
	}
	u, err := decodeUser(snap)
	if err != nil {
		return models.User{}, false, err
	}
	return u, true, nil
}

// Ensure creates the profile document on first sight of a principal and
// keeps email and photo in step with the identity service. The display
// name is only seeded: once stored it belongs to the user.
func (d *Directory) Ensure(ctx context.Context, p Principal) (models.User, error) {
	if p.ID == "" {
		return models.User{}, apperr.New(apperr.KindInvalidInput, "principal has no id")
	}
	existing, found, err := d.Get(ctx, p.ID)
	if err != nil {
		return models.User{}, err
	}
	claims := map[string]string{"email": p.Email, "photoURL": p.PhotoURL}
	if !found || existing.DisplayName == "" {
		claims["displayName"] = p.DisplayName
	}
	// Empty claims never blank out a stored profile field.
	profile := map[string]interface{}{}
	for field, v := range claims {
		if v != "" {
			profile[field] = v
		}
	}
	if err := d.store.Set(ctx, store.CollectionUsers, p.ID, profile, true); err != nil {
		return models.User{}, apperr.Unavailable(err, "could not save user")
	}
	u, ok, err := d.Get(ctx, p.ID)
	if err != nil {
		return models.User{}, err
	}
	if !ok {
		return models.User{}, apperr.New(apperr.KindNotFound, "user %s vanished", p.ID)
	}
	return u, nil
}

// ProfileUpdate holds the profile fields a user edits. Nil fields are left
// untouched.
type ProfileUpdate struct {
	DisplayName        *string
	EmailNotifications *bool
}

func (d *Directory) UpdateProfile(ctx context.Context, id string, upd ProfileUpdate) (models.User, error) {
	fields := map[string]interface{}{}
	if upd.DisplayName != nil {
		name := strings.TrimSpace(*upd.DisplayName)
		if name == "" {
			return models.User{}, apperr.New(apperr.KindInvalidInput, "display name cannot be empty")
		}
		fields["displayName"] = name
	}
	if upd.EmailNotifications != nil {
		fields["settings.emailNotifications"] = *upd.EmailNotifications
	}
	if len(fields) > 0 {
		err := d.store.Update(ctx, store.CollectionUsers, id, fields)
		if errors.Is(err, store.ErrNotFound) {
			return models.User{}, apperr.New(apperr.KindNotFound, "user %s not found", id)
		}
		if err != nil {
			return models.User{}, apperr.Unavailable(err, "could not update profile")
		}
		d.log.Info("profile updated", zap.String("user", id))
	}
	u, ok, err := d.Get(ctx, id)
	if err != nil {
		return models.User{}, err
	}
	if !ok {
		return models.User{}, apperr.New(apperr.KindNotFound, "user %s not found", id)
	}
	return u, nil
}

// Touch records activity for the active-users statistic. Second precision
// keeps the stored strings sortable.
func (d *Directory) Touch(ctx context.Context, id string) error {
	err := d.store.Set(ctx, store.CollectionUsers, id, map[string]interface{}{"lastActive": d.Now().Truncate(time.Second)}, true)
	if err != nil {
		return apperr.Unavailable(err, "could not update last activity")
	}
	return nil
}

func (d *Directory) IsAdmin(ctx context.Context, id string) (bool, error) {
	u, ok, err := d.Get(ctx, id)
	if err != nil || !ok {
		return false, err
	}
	return u.IsAdmin, nil
}

func (d *Directory) SetAdmin(ctx context.Context, id string, admin bool) error {
	err := d.store.Update(ctx, store.CollectionUsers, id, map[string]interface{}{"isAdmin": admin})
	if errors.Is(err, store.ErrNotFound) {
		return apperr.New(apperr.KindNotFound, "user %s not found", id)
	}
	if err != nil {
		return apperr.Unavailable(err, "could not update user role")
	}
	d.log.Info("user role changed", zap.String("user", id), zap.Bool("admin", admin))
	return nil
}

// List returns every user, most recently active first.
func (d *Directory) List(ctx context.Context) ([]models.User, error) {
	snaps, err := d.store.List(ctx, store.CollectionUsers, store.Query{OrderBy: "lastActive", Descending: true})
	if err != nil {
		return nil, apperr.Unavailable(err, "could not list users")
	}
	users := make([]models.User, 0, len(snaps))
	for _, snap := range snaps {
		u, err := decodeUser(snap)
		if err != nil {
			d.log.Warn("skipping undecodable user", zap.String("id", snap.ID), zap.Error(err))
			continue
		}
		users = append(users, u)
	}
	return users, nil
}

func decodeUser(snap store.Snapshot) (models.User, error) {
	var u models.User
	if err := snap.Decode(&u); err != nil {
		return models.User{}, errors.Wrapf(err, "decode user %s", snap.ID)
	}
	if u.Enrolled == nil {
		u.Enrolled = []string{}
	}
	if u.Completed == nil {
		u.Completed = []string{}
	}
	return u, nil
}
