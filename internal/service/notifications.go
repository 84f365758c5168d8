package service

import (
	"context"       // Request scoped cancellation
	"encoding/json" // Payload encoding
	"fmt"           // Error wrapping

	"home_eats/internal/domain" // Domain models
	"home_eats/internal/utils"  // Pagination

	"github.com/sirupsen/logrus" // Logging library
	"gorm.io/gorm"               // GORM ORM library
)

// Broadcaster pushes a payload to every live connection of a user
type Broadcaster interface {
	BroadcastToUser(userID uint, payload any)
}

// NotificationEvent is the frame pushed to live connections
type NotificationEvent struct {
	Type         string              `json:"type"`
	Notification domain.Notification `json:"notification"`
}

// NotificationFilter narrows a feed listing
type NotificationFilter struct {
	SinceID    uint // Only entries with a larger id
	UnreadOnly bool
}

// Notifier appends feed entries and fans them out
type Notifier struct {
	db  *gorm.DB
	out Broadcaster
}

// NewNotifier builds a Notifier; out may be nil when nothing listens live
func NewNotifier(db *gorm.DB, out Broadcaster) *Notifier {
	return &Notifier{db: db, out: out}
}

// Notify stores one entry for the user and pushes it to live connections
func (n *Notifier) Notify(ctx context.Context, userID uint, typ, message string, data map[string]any) error {
	if n == nil {
		return nil // Notifications disabled
	}
	entry := domain.Notification{UserID: userID, Type: typ, Message: message}
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			return fmt.Errorf("encode notification data: %w", err)
		}
		entry.Data = string(b)
	}
	if err := n.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return fmt.Errorf("store notification: %w", err)
	}
	// Push only after the row exists so polling and live clients agree
	if n.out != nil {
		n.out.BroadcastToUser(userID, NotificationEvent{Type: "notification", Notification: entry})
	}
	return nil
}

// notifyQuietly logs instead of failing; the state change it reports is already committed
func (n *Notifier) notifyQuietly(ctx context.Context, userID uint, typ, message string, data map[string]any) {
	if err := n.Notify(ctx, userID, typ, message, data); err != nil {
		logrus.WithFields(logrus.Fields{
			"user_id": userID,
			"type":    typ,
			"error":   err.Error(),
		}).Warn("Notification not stored")
	}
}

// List returns a newest-first page of the user's feed and the unread count
func (n *Notifier) List(ctx context.Context, userID uint, filter NotificationFilter, page utils.Page) ([]domain.Notification, int64, int64, error) {
	base := n.db.WithContext(ctx).Model(&domain.Notification{}).Where("user_id = ?", userID).Session(&gorm.Session{})

	var unread int64 // Counted over the whole feed, not the filtered page
	if err := base.Where("is_read = ?", false).Count(&unread).Error; err != nil {
		return nil, 0, 0, err
	}

	q := base
	if filter.SinceID > 0 {
		q = q.Where("id > ?", filter.SinceID)
	}
	if filter.UnreadOnly {
		q = q.Where("is_read = ?", false)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, 0, err
	}
	var list []domain.Notification
	if err := q.Order("id desc").Offset(page.Offset()).Limit(page.Limit()).Find(&list).Error; err != nil {
		return nil, 0, 0, err
	}
	return list, total, unread, nil
}

// MarkRead flags one of the user's entries as seen
func (n *Notifier) MarkRead(ctx context.Context, userID, id uint) error {
	var entry domain.Notification
	if err := n.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&entry).Error; err != nil {
		return notFound(err)
	}
	return n.db.WithContext(ctx).Model(&entry).Update("is_read", true).Error
}

// MarkAllRead flags every unread entry of the user as seen
func (n *Notifier) MarkAllRead(ctx context.Context, userID uint) (int64, error) {
	res := n.db.WithContext(ctx).Model(&domain.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true)
	return res.RowsAffected, res.Error
}
