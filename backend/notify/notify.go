package notify

import (
	"context"
	"time"

	"github.com/philosofium/coursemarket/backend/apperr"
	"github.com/philosofium/coursemarket/backend/models"
	"github.com/philosofium/coursemarket/backend/store"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const DefaultLimit = 20

// timestampLayout is fixed width so stored timestamps sort lexically.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Log is the append-only system notification log shown on the admin
// console. Callers are responsible for authorizing writes.
type Log struct {
	store store.DocumentStore
	log   *zap.Logger
	Now   func() time.Time
}

func NewLog(st store.DocumentStore, log *zap.Logger) *Log {
	return &Log{
		store: st,
		log:   log.With(zap.String("service", "notifications")),
		Now:   func() time.Time { return time.Now().UTC() },
	}
}

type record struct {
	Type      models.NotificationType `json:"type"`
	Title     string                  `json:"title"`
	Message   string                  `json:"message"`
	Timestamp string                  `json:"timestamp"`
	Read      bool                    `json:"read"`
}

func (l *Log) Append(ctx context.Context, typ models.NotificationType, title, message string) (models.Notification, error) {
	if !typ.Valid() {
		typ = models.NotificationInfo
	}
	ts := l.Now().UTC()
	id, err := l.store.Create(ctx, store.CollectionNotifications, record{
		Type:      typ,
		Title:     title,
		Message:   message,
		Timestamp: ts.Format(timestampLayout),
	})
	if err != nil {
		return models.Notification{}, apperr.Unavailable(err, "could not add notification")
	}
	l.log.Debug("notification added", zap.String("id", id), zap.String("title", title))
	return models.Notification{ID: id, Type: typ, Title: title, Message: message, Timestamp: ts}, nil
}

// ListRecent returns up to limit notifications, newest first.
func (l *Log) ListRecent(ctx context.Context, limit int) ([]models.Notification, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	snaps, err := l.store.List(ctx, store.CollectionNotifications, store.Query{
		OrderBy:    "timestamp",
		Descending: true,
		Limit:      limit,
	})
	if err != nil {
		return nil, apperr.Unavailable(err, "could not list notifications")
	}
	return decodeAll(snaps)
}

// MarkRead flips a notification to read. Already-read notifications are
// left as they are.
func (l *Log) MarkRead(ctx context.Context, id string) error {
	snap, err := l.store.Get(ctx, store.CollectionNotifications, id)
	if errors.Is(err, store.ErrNotFound) {
		return apperr.New(apperr.KindNotFound, "notification %s not found", id)
	}
	if err != nil {
		return apperr.Unavailable(err, "could not load notification")
	}
	if read, _ := snap.Data["read"].(bool); read {
		return nil
	}
	if err := l.store.Update(ctx, store.CollectionNotifications, id, map[string]interface{}{"read": true}); err != nil {
		return apperr.Unavailable(err, "could not mark notification read")
	}
	return nil
}

// MarkAllRead flips every unread notification and returns how many changed.
func (l *Log) MarkAllRead(ctx context.Context) (int, error) {
	unread, err := l.store.List(ctx, store.CollectionNotifications, store.Query{
		Filters: []store.Filter{{Field: "read", Value: false}},
	})
	if err != nil {
		return 0, apperr.Unavailable(err, "could not list unread notifications")
	}
	marked := 0
	for _, snap := range unread {
		if err := l.store.Update(ctx, store.CollectionNotifications, snap.ID, map[string]interface{}{"read": true}); err != nil {
			return marked, apperr.Unavailable(err, "could not mark notification read")
		}
		marked++
	}
	return marked, nil
}

func (l *Log) UnreadCount(ctx context.Context) (int, error) {
	unread, err := l.store.List(ctx, store.CollectionNotifications, store.Query{
		Filters: []store.Filter{{Field: "read", Value: false}},
	})
	if err != nil {
		return 0, apperr.Unavailable(err, "could not count notifications")
	}
	return len(unread), nil
}

func decodeAll(snaps []store.Snapshot) ([]models.Notification, error) {
	out := make([]models.Notification, 0, len(snaps))
	for _, snap := range snaps {
		var n models.Notification
		if err := snap.Decode(&n); err != nil {
			return nil, errors.Wrapf(err, "decode notification %s", snap.ID)
		}
		out = append(out, n)
	}
	return out, nil
}
